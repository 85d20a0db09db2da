package basevocab

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/born-ml/hastings/internal/vocab"
)

// ReadTiktoken parses the tiktoken text format: one "base64(token) SP rank" per
// line, blank lines ignored. Entries are returned sorted by rank.
func ReadTiktoken(r io.Reader) ([]vocab.Entry, error) {
	ranks := map[string]int{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want \"<base64> <rank>\", got %d fields", lineNo, len(fields))
		}

		token, err := base64.StdEncoding.DecodeString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid base64 token %q: %w", lineNo, fields[0], err)
		}
		rank, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid rank %q: %w", lineNo, fields[1], err)
		}
		if _, dup := ranks[string(token)]; dup {
			return nil, fmt.Errorf("line %d: token %q appears more than once", lineNo, token)
		}
		ranks[string(token)] = rank
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tiktoken ranks: %w", err)
	}

	return vocab.SortedEntries(ranks), nil
}

// WriteTiktoken writes entries in the tiktoken text format, in the order given.
func WriteTiktoken(w io.Writer, entries []vocab.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := bw.WriteString(base64.StdEncoding.EncodeToString(e.Token)); err != nil {
			return err
		}
		if err := bw.WriteByte(' '); err != nil {
			return err
		}
		if _, err := bw.WriteString(strconv.Itoa(e.Rank)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadTiktokenFile loads a tiktoken rank file from disk. The pattern defaults to
// PatternGPT2 since the format does not carry one.
func ReadTiktokenFile(path string) (*Base, error) {
	//nolint:gosec // Loading ranks from a user-specified path is intentional.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tiktoken file: %w", err)
	}
	defer f.Close()

	entries, err := ReadTiktoken(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Base{
		Name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Pattern: vocab.PatternGPT2,
		Entries: entries,
	}, nil
}
