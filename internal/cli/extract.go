package cli

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/docview/internal/config"
	"github.com/dgallion1/docview/internal/highlight"
	"github.com/dgallion1/docview/internal/pipeline"
	"github.com/dgallion1/docview/internal/render"
	"github.com/dgallion1/docview/internal/source"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

const (
	formatHTML     = "html"
	formatMarkdown = "markdown"
)

func newExtractCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var (
		topic       string
		term        string
		format      string
		root        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "extract [docs...]",
		Short: "Print the sections for a topic",
		Long: `Extract searches each document for the topic and prints the matching
sections in document order. Document paths are relative to --root; with no
paths the default document list is used.

Examples:
  docview extract --topic "Income Distribution" --root ./site
  docview extract --topic Fees --term admin --format markdown /docs/reports/admin.docx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatHTML && format != formatMarkdown {
				return fmt.Errorf("unsupported format %q (use %s or %s)", format, formatHTML, formatMarkdown)
			}
			docs := args
			if len(docs) == 0 {
				docs = config.DefaultDocs
			}

			log := logger(cmd)
			loader := pipeline.NewLoader(source.NewFileSource(root, 0), nil, nil,
				pipeline.LoaderConfig{Docs: docs, Concurrency: concurrency}, log)

			load, err := loader.Load(cmd.Context(), topic)
			if err != nil {
				return err
			}
			view := load.Root()

			if term != "" {
				res := highlight.Refresh(view, term)
				dropHidden(view, res)
				log.Info("search applied", "term", res.Term, "marks", res.Marks, "visible", res.Visible())
			}

			var out string
			if format == formatMarkdown {
				out, err = render.Markdown(view)
			} else {
				out, err = render.InnerHTML(view)
			}
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to extract (required)")
	cmd.Flags().StringVar(&term, "term", "", "Highlight this term and keep only sections containing it")
	cmd.Flags().StringVarP(&format, "format", "f", formatHTML, "Output format: html or markdown")
	cmd.Flags().StringVarP(&root, "root", "r", ".", "Directory the document paths are resolved against")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Documents converted at once")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

// dropHidden removes the blocks a search left hidden, since text output has
// no way to hide them.
func dropHidden(view *html.Node, res highlight.Result) {
	for i, b := range highlight.Blocks(view) {
		if i < len(res.Blocks) && !res.Blocks[i].Visible {
			b.Parent.RemoveChild(b)
		}
	}
}
