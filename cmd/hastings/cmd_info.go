package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/hastings/internal/serialization"
)

func newInfoCommand() *cobra.Command {
	var (
		vocabPath string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the header of a vocabulary file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			info, err := serialization.Stat(resolveVocabPath(cfg, vocabPath))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info.Header)
			}

			h := info.Header
			fmt.Fprintf(out, "Name:           %s\n", h.Name)
			fmt.Fprintf(out, "Format:         v%d (hastings %s)\n", info.Version, h.HastingsVersion)
			fmt.Fprintf(out, "Compressed:     %t\n", info.Compressed())
			fmt.Fprintf(out, "Vocab size:     %d\n", h.VocabSize)
			fmt.Fprintf(out, "Ranks:          %d\n", h.RankCount)
			fmt.Fprintf(out, "Fingerprint:    %s\n", h.Fingerprint)
			fmt.Fprintf(out, "Checksum:       %s\n", h.Checksum)
			if !h.CreatedAt.IsZero() {
				fmt.Fprintf(out, "Created:        %s\n", h.CreatedAt.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "Control tokens:\n")
			for _, ct := range h.ControlTokens {
				fmt.Fprintf(out, "  %6d  %s\n", ct.ID, ct.Name)
			}
			if len(h.Metadata) > 0 {
				fmt.Fprintf(out, "Metadata:\n")
				keys := make([]string, 0, len(h.Metadata))
				for k := range h.Metadata {
					keys = append(keys, k)
				}
				slices.Sort(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "  %s: %s\n", k, h.Metadata[k])
				}
			}
			return nil
		},
	}

	addVocabFlag(cmd, &vocabPath)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the header as JSON")

	return cmd
}
