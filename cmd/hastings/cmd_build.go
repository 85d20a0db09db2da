package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/hastings/internal/basevocab"
	"github.com/born-ml/hastings/internal/config"
	"github.com/born-ml/hastings/internal/serialization"
	"github.com/born-ml/hastings/internal/vocab"
)

// Base formats accepted by --base-format.
const (
	formatAuto        = "auto"
	formatEncoding    = "encoding"
	formatTiktoken    = "tiktoken"
	formatHuggingFace = "huggingface"
	formatGGUF        = "gguf"
)

type buildOptions struct {
	base          string
	baseFormat    string
	vocabSize     int
	controlTokens []string
	name          string
	pattern       string
	output        string
	compress      bool
	offline       bool
}

func newBuildCommand() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a vocabulary from a base rank table",
		Long: `Build a fixed-size vocabulary and write it as a .hastings file.

The base is a named encoding (r50k_base, p50k_base, cl100k_base), a tiktoken
rank file, a HuggingFace tokenizer.json or a GGUF model file. Base entries equal to a control token
are dropped, the first vocab-size minus control-token-count survivors keep their
order with dense ranks, and the control tokens take the top ids in the order given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyBuildFlags(cmd, cfg, &opts)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBuild(cmd, cfg, opts.baseFormat)
		},
	}

	cmd.Flags().StringVar(&opts.base, "base", "", "Base encoding name or path (default: "+config.DefaultBase+")")
	cmd.Flags().StringVar(&opts.baseFormat, "base-format", formatAuto, "Base format: auto, encoding, tiktoken, huggingface or gguf")
	cmd.Flags().IntVar(&opts.vocabSize, "vocab-size", 0, "Total vocabulary size including control tokens")
	cmd.Flags().StringArrayVar(&opts.controlTokens, "control-token", nil, "Control token literal, repeatable; order fixes the ids")
	cmd.Flags().StringVar(&opts.name, "name", "", "Vocabulary name")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "Pre-tokenization pattern (default: the base's pattern)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file")
	cmd.Flags().BoolVar(&opts.compress, "compress", true, "Compress the rank table with zstd")
	cmd.Flags().BoolVar(&opts.offline, "offline", true, "Load named encodings from the embedded copy instead of downloading")

	return cmd
}

// applyBuildFlags lets explicitly set flags override the config file.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, opts *buildOptions) {
	flags := cmd.Flags()
	if flags.Changed("base") {
		cfg.Vocabulary.Base = opts.base
	}
	if flags.Changed("vocab-size") {
		cfg.Vocabulary.VocabSize = opts.vocabSize
	}
	if flags.Changed("control-token") {
		cfg.Vocabulary.ControlTokens = opts.controlTokens
	}
	if flags.Changed("name") {
		cfg.Vocabulary.Name = opts.name
	}
	if flags.Changed("pattern") {
		cfg.Vocabulary.Pattern = opts.pattern
	}
	if flags.Changed("output") {
		cfg.Output.Path = opts.output
	}
	if flags.Changed("compress") {
		cfg.Output.Compress = &opts.compress
	}
	if flags.Changed("offline") {
		if opts.offline {
			cfg.Vocabulary.Source = string(basevocab.SourceOffline)
		} else {
			cfg.Vocabulary.Source = string(basevocab.SourceRemote)
		}
	}
}

func loadBase(ref, format string, src basevocab.Source) (*basevocab.Base, error) {
	switch strings.ToLower(format) {
	case formatAuto, "":
		return basevocab.Load(ref, src)
	case formatEncoding:
		return basevocab.LoadEncoding(ref, src)
	case formatTiktoken:
		return basevocab.ReadTiktokenFile(ref)
	case formatHuggingFace:
		return basevocab.LoadHuggingFace(ref)
	case formatGGUF:
		return basevocab.LoadGGUF(ref)
	default:
		return nil, fmt.Errorf("unknown base format %q (want %s, %s, %s, %s or %s)",
			format, formatAuto, formatEncoding, formatTiktoken, formatHuggingFace, formatGGUF)
	}
}

func runBuild(cmd *cobra.Command, cfg *config.Config, format string) error {
	recipe := cfg.Vocabulary

	base, err := loadBase(recipe.Base, format, basevocab.Source(recipe.Source))
	if err != nil {
		return err
	}
	slog.Debug("loaded base", "name", base.Name, "entries", base.Size())

	pattern := recipe.Pattern
	if pattern == "" {
		pattern = base.Pattern
	}

	v, err := vocab.Build(base.Entries, recipe.VocabSize, recipe.ControlTokens,
		vocab.WithName(recipe.Name),
		vocab.WithPattern(pattern),
	)
	if err != nil {
		return err
	}
	for _, lit := range v.Displaced() {
		slog.Warn("control token displaced a base entry", "token", lit)
	}

	err = serialization.Save(cfg.Output.Path, v, serialization.WriterOptions{
		Compress: cfg.Compress(),
		Metadata: map[string]string{"base": base.Name},
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", cfg.Output.Path)
	fmt.Fprintf(out, "  name:        %s\n", v.Name())
	fmt.Fprintf(out, "  base:        %s (%d entries)\n", base.Name, base.Size())
	fmt.Fprintf(out, "  vocab size:  %d (%d ranks, %d control tokens)\n",
		v.Size(), v.RankLimit(), len(v.ControlTokens()))
	fmt.Fprintf(out, "  fingerprint: %s\n", v.Fingerprint())
	return nil
}
