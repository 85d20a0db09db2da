package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/hastings/internal/tokenizer"
)

func newDecodeCommand() *cobra.Command {
	var (
		vocabPath string
		lossy     bool
	)

	cmd := &cobra.Command{
		Use:   "decode [id...]",
		Short: "Decode token ids to text",
		Long: `Decode token ids to text.

Ids are taken from the arguments, or read from stdin separated by whitespace or
commas. Decoding fails on bytes that are not valid UTF-8 unless --lossy is set,
in which case they become U+FFFD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := args
			if len(fields) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				fields = splitIDs(string(data))
			}
			ids, err := parseIDs(fields)
			if err != nil {
				return err
			}

			_, codec, err := openCodec(cmd, vocabPath)
			if err != nil {
				return err
			}

			mode := tokenizer.Strict
			if lossy {
				mode = tokenizer.Replace
			}
			text, err := codec.Decode(ids, mode)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}

	addVocabFlag(cmd, &vocabPath)
	cmd.Flags().BoolVar(&lossy, "lossy", false, "Replace invalid UTF-8 with U+FFFD instead of failing")

	return cmd
}

func splitIDs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '[' || r == ']' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

func parseIDs(fields []string) ([]int, error) {
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		for _, part := range splitIDs(f) {
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid token id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
