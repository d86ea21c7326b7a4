// Package cli implements the docview command-line tool using Cobra. It runs
// the same topic load as the server against a local directory and prints the
// result.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "docview",
		Short: "docview: extract topic sections from office documents",
		Long: `docview finds the section for a topic across a set of documents and
renders it as HTML or Markdown, with spreadsheet links expanded into tables.

Usage:
  docview extract --topic "Fund Creation" [docs...]
  docview outline FILE
  docview menu FILE`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	logger := func(cmd *cobra.Command) *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelInfo
		}
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	root.AddCommand(newExtractCmd(logger), newOutlineCmd(), newMenuCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeLine(w io.Writer, s string) {
	fmt.Fprintln(w, s)
}
