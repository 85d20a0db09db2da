// Package config provides the build recipe and runtime settings loaded from
// .hastings.yaml files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/hastings/internal/tokenizer"
)

// FileName is the config file looked up by Find.
const FileName = ".hastings.yaml"

// Default values for the Hastings recipe.
const (
	DefaultName      = "Hastings"
	DefaultBase      = "r50k_base"
	DefaultSource    = "offline"
	DefaultVocabSize = 32768
	DefaultOutput    = "hastings.hastings"
	DefaultCacheSize = 4096
	DefaultAddr      = ":8080"
	DefaultMaxBatch  = 256
)

// VocabularyConfig is the build recipe.
type VocabularyConfig struct {
	Name          string   `yaml:"name,omitempty"`
	Base          string   `yaml:"base,omitempty"`   // encoding name, tiktoken file or tokenizer.json
	Source        string   `yaml:"source,omitempty"` // offline or remote
	Pattern       string   `yaml:"pattern,omitempty"`
	VocabSize     int      `yaml:"vocab_size,omitempty"`
	ControlTokens []string `yaml:"control_tokens,omitempty"`
}

// OutputConfig controls where built vocabularies are written.
type OutputConfig struct {
	Path     string `yaml:"path,omitempty"`
	Compress *bool  `yaml:"compress,omitempty"`
}

// CodecConfig tunes the encoder.
type CodecConfig struct {
	CacheSize int `yaml:"cache_size,omitempty"`
	Workers   int `yaml:"workers,omitempty"` // 0 means one per CPU
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	MaxBatch int    `yaml:"max_batch,omitempty"`
	Metrics  *bool  `yaml:"metrics,omitempty"`
}

// Config is the top-level configuration loaded from .hastings.yaml.
type Config struct {
	Vocabulary VocabularyConfig `yaml:"vocabulary,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
	Codec      CodecConfig      `yaml:"codec,omitempty"`
	Server     ServerConfig     `yaml:"server,omitempty"`
}

// New returns a Config with all defaults populated.
func New() *Config {
	return &Config{
		Vocabulary: VocabularyConfig{
			Name:          DefaultName,
			Base:          DefaultBase,
			Source:        DefaultSource,
			VocabSize:     DefaultVocabSize,
			ControlTokens: slices.Clone(tokenizer.DefaultControlTokens),
		},
		Output: OutputConfig{
			Path:     DefaultOutput,
			Compress: boolPtr(true),
		},
		Codec: CodecConfig{
			CacheSize: DefaultCacheSize,
		},
		Server: ServerConfig{
			Addr:     DefaultAddr,
			MaxBatch: DefaultMaxBatch,
			Metrics:  boolPtr(true),
		},
	}
}

// Load reads the config at path and fills missing fields with defaults.
// An empty path searches upward from the working directory with Find; when
// nothing is found the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := New()

	var data []byte
	var err error
	if path == "" {
		data, err = Find(".")
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	} else {
		//nolint:gosec // Reading a user-specified config path is intentional.
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find walks up from dir looking for .hastings.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found.
func Find(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		//nolint:gosec // Paths are derived from the working directory.
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// Validate checks the settings that can be checked without loading a base table.
func (c *Config) Validate() error {
	v := c.Vocabulary
	if v.VocabSize <= len(v.ControlTokens) {
		return fmt.Errorf("vocabulary.vocab_size %d leaves no room next to %d control tokens",
			v.VocabSize, len(v.ControlTokens))
	}
	seen := make(map[string]bool, len(v.ControlTokens))
	for _, name := range v.ControlTokens {
		if name == "" {
			return errors.New("vocabulary.control_tokens: empty name")
		}
		if seen[name] {
			return fmt.Errorf("vocabulary.control_tokens: %q listed twice", name)
		}
		seen[name] = true
	}
	switch v.Source {
	case "offline", "remote":
	default:
		return fmt.Errorf("vocabulary.source %q: want offline or remote", v.Source)
	}
	if c.Codec.CacheSize < 0 {
		return fmt.Errorf("codec.cache_size %d is negative", c.Codec.CacheSize)
	}
	if c.Codec.Workers < 0 {
		return fmt.Errorf("codec.workers %d is negative", c.Codec.Workers)
	}
	if c.Server.MaxBatch < 0 {
		return fmt.Errorf("server.max_batch %d is negative", c.Server.MaxBatch)
	}
	return nil
}

// Compress reports whether output files are zstd-compressed.
func (c *Config) Compress() bool {
	return c.Output.Compress == nil || *c.Output.Compress
}

// MetricsEnabled reports whether the server exposes /metrics.
func (c *Config) MetricsEnabled() bool {
	return c.Server.Metrics == nil || *c.Server.Metrics
}

// mergeConfig copies non-zero values from src onto dst.
func mergeConfig(dst, src *Config) {
	if src.Vocabulary.Name != "" {
		dst.Vocabulary.Name = src.Vocabulary.Name
	}
	if src.Vocabulary.Base != "" {
		dst.Vocabulary.Base = src.Vocabulary.Base
	}
	if src.Vocabulary.Source != "" {
		dst.Vocabulary.Source = src.Vocabulary.Source
	}
	if src.Vocabulary.Pattern != "" {
		dst.Vocabulary.Pattern = src.Vocabulary.Pattern
	}
	if src.Vocabulary.VocabSize != 0 {
		dst.Vocabulary.VocabSize = src.Vocabulary.VocabSize
	}
	if src.Vocabulary.ControlTokens != nil {
		dst.Vocabulary.ControlTokens = src.Vocabulary.ControlTokens
	}

	if src.Output.Path != "" {
		dst.Output.Path = src.Output.Path
	}
	if src.Output.Compress != nil {
		dst.Output.Compress = src.Output.Compress
	}

	if src.Codec.CacheSize != 0 {
		dst.Codec.CacheSize = src.Codec.CacheSize
	}
	if src.Codec.Workers != 0 {
		dst.Codec.Workers = src.Codec.Workers
	}

	if src.Server.Addr != "" {
		dst.Server.Addr = src.Server.Addr
	}
	if src.Server.MaxBatch != 0 {
		dst.Server.MaxBatch = src.Server.MaxBatch
	}
	if src.Server.Metrics != nil {
		dst.Server.Metrics = src.Server.Metrics
	}
}

func boolPtr(b bool) *bool {
	return &b
}
