package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/born-ml/hastings/internal/basevocab"
	"github.com/born-ml/hastings/internal/vocab"
)

// WriterOptions configures how a vocabulary is written.
type WriterOptions struct {
	Compress bool              // zstd-compress the body
	Metadata map[string]string // Custom metadata stored in the header
	Now      func() time.Time  // Clock for CreatedAt; time.Now when nil
}

// Writer writes vocabularies in .hastings format.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a new .hastings file writer.
func NewWriter(path string) (*Writer, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for vocabulary saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &Writer{
		file:   file,
		closed: false,
	}, nil
}

// WriteVocabulary writes v to the file.
func (w *Writer) WriteVocabulary(v *vocab.Vocabulary, opts WriterOptions) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return WriteTo(w.file, v, opts)
}

// Close closes the writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteTo writes v in .hastings format to writer.
func WriteTo(writer io.Writer, v *vocab.Vocabulary, opts WriterOptions) error {
	if v == nil {
		return fmt.Errorf("nil vocabulary")
	}

	var body bytes.Buffer
	if err := basevocab.WriteTiktoken(&body, v.Entries()); err != nil {
		return fmt.Errorf("failed to encode rank table: %w", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	header := newHeader(v, opts.Metadata)
	header.Checksum = ComputeChecksum(body.Bytes())
	header.CreatedAt = now().UTC()

	payload := body.Bytes()
	flags := uint32(0)
	if opts.Compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		payload = enc.EncodeAll(payload, make([]byte, 0, len(payload)/3))
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to close zstd encoder: %w", err)
		}
		flags |= FlagCompressed
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	if _, err := io.WriteString(writer, MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(writer, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(writer, binary.LittleEndian, flags); err != nil {
		return fmt.Errorf("failed to write flags: %w", err)
	}
	if err := binary.Write(writer, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := writer.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := writer.Write(payload); err != nil {
		return fmt.Errorf("failed to write rank table: %w", err)
	}

	return nil
}

// Save writes v to path. The file is written to a temporary sibling first and
// renamed into place, so readers never observe a partial file.
func Save(path string, v *vocab.Vocabulary, opts WriterOptions) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if err := WriteTo(tmp, v, opts); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move vocabulary into place: %w", err)
	}
	return nil
}
