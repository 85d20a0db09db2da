package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/hastings/internal/config"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hastings",
		Short: "Hastings - byte-level BPE tokenizer",
		Long: `Hastings builds a fixed-size byte-level BPE vocabulary from a pretrained
rank table and encodes or decodes text with it.

The default recipe truncates the GPT-2 table to 32768 ids and reserves the top
five ids for <|pad|>, <|endoftext|>, <|assistant|>, <|user|> and <|startoftext|>.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to "+config.FileName+" (searched upward from the working directory by default)")
	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newEncodeCommand())
	cmd.AddCommand(newDecodeCommand())
	cmd.AddCommand(newInfoCommand())
	cmd.AddCommand(newVerifyCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

// loadConfig reads the file named by --config, or the nearest .hastings.yaml.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}
