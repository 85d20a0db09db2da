package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/hastings/internal/config"
	"github.com/born-ml/hastings/internal/parallel"
	"github.com/born-ml/hastings/internal/serialization"
	"github.com/born-ml/hastings/internal/tokenizer"
	"github.com/born-ml/hastings/internal/vocab"
)

// addVocabFlag registers --vocab; an empty value falls back to output.path.
func addVocabFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVar(path, "vocab", "", "Vocabulary file (default: output.path from the config)")
}

func resolveVocabPath(cfg *config.Config, flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Output.Path
}

func loadVocabulary(cfg *config.Config, flag string) (*vocab.Vocabulary, error) {
	path := resolveVocabPath(cfg, flag)
	v, info, err := serialization.Load(path, serialization.ReaderOptions{})
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded vocabulary",
		"path", path,
		"name", v.Name(),
		"size", v.Size(),
		"compressed", info.Compressed(),
	)
	return v, nil
}

func newCodec(cfg *config.Config, v *vocab.Vocabulary) (*tokenizer.Codec, error) {
	batch := parallel.DefaultConfig()
	if cfg.Codec.Workers > 0 {
		batch.NumWorkers = cfg.Codec.Workers
		batch.Enabled = cfg.Codec.Workers > 1
	}
	c, err := tokenizer.NewCodec(v,
		tokenizer.WithCacheSize(cfg.Codec.CacheSize),
		tokenizer.WithBatchConfig(batch),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}
	return c, nil
}

// openCodec loads the vocabulary and wraps it in a Codec.
func openCodec(cmd *cobra.Command, vocabFlag string) (*config.Config, *tokenizer.Codec, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	v, err := loadVocabulary(cfg, vocabFlag)
	if err != nil {
		return nil, nil, err
	}
	c, err := newCodec(cfg, v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}
