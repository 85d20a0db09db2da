package serialization

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/born-ml/hastings/internal/basevocab"
	"github.com/born-ml/hastings/internal/vocab"
)

// ReaderOptions configures the behavior of the reader.
type ReaderOptions struct {
	SkipChecksumValidation bool // Skip body checksum validation (faster but less safe)
}

// Info is the fixed part of a .hastings file plus its parsed header.
type Info struct {
	Version uint32
	Flags   uint32
	Header  Header
}

// Compressed reports whether the body is zstd-compressed.
func (i *Info) Compressed() bool {
	return i.Flags&FlagCompressed != 0
}

// ReadInfo parses the fixed header and JSON header from r, leaving r positioned
// at the start of the body.
func ReadInfo(r io.Reader) (*Info, error) {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, ErrInvalidMagic
	}

	info := &Info{}
	if err := binary.Read(r, binary.LittleEndian, &info.Version); err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	if info.Version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, info.Version, FormatVersion)
	}

	if err := binary.Read(r, binary.LittleEndian, &info.Flags); err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}
	if info.Flags&^FlagCompressed != 0 {
		return nil, fmt.Errorf("%w: unknown flags %#x", ErrUnsupportedVersion, info.Flags&^FlagCompressed)
	}

	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &info.Header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	if err := ValidateHeader(&info.Header); err != nil {
		return nil, err
	}

	return info, nil
}

// ReadFrom reads a .hastings vocabulary from reader.
func ReadFrom(reader io.Reader, opts ReaderOptions) (*vocab.Vocabulary, *Info, error) {
	info, err := ReadInfo(reader)
	if err != nil {
		return nil, nil, err
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rank table: %w", err)
	}

	body := payload
	if info.Compressed() {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		body, err = dec.DecodeAll(payload, nil)
		dec.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decompress rank table: %w", err)
		}
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(body), info.Header.Checksum); err != nil {
			return nil, nil, err
		}
	}

	entries, err := basevocab.ReadTiktoken(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse rank table: %w", err)
	}
	if len(entries) != info.Header.RankCount {
		return nil, nil, &ValidationError{
			Field:   "rank_count",
			Details: fmt.Sprintf("header says %d, body has %d", info.Header.RankCount, len(entries)),
		}
	}

	ranks := make(map[string]int, len(entries))
	for _, e := range entries {
		ranks[string(e.Token)] = e.Rank
	}

	h := &info.Header
	v, err := vocab.FromRanks(h.Name, h.Pattern, ranks, h.ControlTokenIDs(), h.VocabSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rebuild vocabulary: %w", err)
	}
	if h.Fingerprint != "" && v.Fingerprint() != h.Fingerprint {
		return nil, nil, ErrFingerprintMismatch
	}

	return v, info, nil
}

// Load reads a .hastings vocabulary from path.
func Load(path string, opts ReaderOptions) (*vocab.Vocabulary, *Info, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for vocabulary loading
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	v, info, err := ReadFrom(bufio.NewReader(file), opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, info, nil
}

// Stat reads only the headers of the file at path.
func Stat(path string) (*Info, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for vocabulary loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := ReadInfo(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}
