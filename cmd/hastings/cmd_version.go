package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/hastings/internal/serialization"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hastings %s (file format v%d)\n", version, serialization.FormatVersion)
		},
	}
}
