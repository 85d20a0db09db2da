package main

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/born-ml/hastings/internal/tokenizer"
)

// verifySamples always run; extra texts come from the arguments.
var verifySamples = []string{
	"",
	"Hello, world!",
	"<|startoftext|><|user|>Hello, world!<|assistant|>Hey there!<|endoftext|>",
	"I'm here; they're not. We'll see what you've got   \n\n  done.",
	"Numbers 1234567 and 3.14159, symbols #@$%^&*().",
	"naïve café, 日本語のテキスト, emoji 🎉🚀 and Ελληνικά",
	"\t indented\r\nlines  with   runs of spaces   ",
}

func newVerifyCommand() *cobra.Command {
	var vocabPath string

	cmd := &cobra.Command{
		Use:   "verify [text...]",
		Short: "Check a vocabulary file and cross-check the encoder",
		Long: `Load a vocabulary file with full checksum and fingerprint validation, then
encode a set of sample texts with both the native encoder and tiktoken-go.

A sample passes when both encoders produce the same ids and decoding those ids
gives back the original text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, codec, err := openCodec(cmd, vocabPath)
			if err != nil {
				return err
			}
			ref, err := tokenizer.NewTikToken(codec.Vocabulary())
			if err != nil {
				return err
			}

			samples := append(slices.Clone(verifySamples), args...)
			out := cmd.OutOrStdout()
			failures := 0
			for i, text := range samples {
				if err := verifySample(codec, ref, text); err != nil {
					failures++
					fmt.Fprintf(out, "FAIL  sample %d: %v\n", i, err)
					continue
				}
				slog.Debug("sample verified", "index", i, "bytes", len(text))
			}

			fmt.Fprintf(out, "%d/%d samples ok\n", len(samples)-failures, len(samples))
			if failures > 0 {
				return &VerifyFailureError{Failures: failures}
			}
			return nil
		},
	}

	addVocabFlag(cmd, &vocabPath)

	return cmd
}

func verifySample(codec *tokenizer.Codec, ref *tokenizer.TikToken, text string) error {
	policy := tokenizer.AllowAll()

	ids, err := codec.Encode(text, policy)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	refIDs, err := ref.Encode(text, policy)
	if err != nil {
		return fmt.Errorf("tiktoken encode: %w", err)
	}
	if !slices.Equal(ids, refIDs) {
		return fmt.Errorf("ids differ from tiktoken: %v vs %v", ids, refIDs)
	}

	decoded, err := codec.Decode(ids, tokenizer.Strict)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if decoded != text {
		return fmt.Errorf("round trip gave %q", decoded)
	}
	return nil
}
