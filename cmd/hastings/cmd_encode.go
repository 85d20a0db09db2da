package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/hastings/internal/tokenizer"
)

func newEncodeCommand() *cobra.Command {
	var (
		vocabPath    string
		allowSpecial []string
		rawSpecial   bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "encode [text|-]",
		Short: "Encode text to token ids",
		Long: `Encode text to token ids.

The text is read from the argument, or from stdin when it is "-" or missing.
Control-token literals are rejected unless --allow-special names them ("all"
allows every one); --raw-special encodes the remaining ones as plain text.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			_, codec, err := openCodec(cmd, vocabPath)
			if err != nil {
				return err
			}

			ids, err := codec.Encode(text, tokenizer.ParsePolicy(allowSpecial, rawSpecial))
			if err != nil {
				return err
			}
			return writeIDs(cmd.OutOrStdout(), ids, asJSON)
		},
	}

	addVocabFlag(cmd, &vocabPath)
	cmd.Flags().StringSliceVar(&allowSpecial, "allow-special", nil, `Control tokens to encode as ids, or "all"`)
	cmd.Flags().BoolVar(&rawSpecial, "raw-special", false, "Encode control tokens that are not allowed as plain text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print ids as a JSON array")

	return cmd
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func writeIDs(w io.Writer, ids []int, asJSON bool) error {
	if asJSON {
		if ids == nil {
			ids = []int{}
		}
		return json.NewEncoder(w).Encode(ids)
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
