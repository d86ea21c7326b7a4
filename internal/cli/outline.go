package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dgallion1/docview/internal/nav"
	"github.com/dgallion1/docview/internal/parser"
	"github.com/dgallion1/docview/internal/section"
	"github.com/spf13/cobra"
)

func newOutlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outline FILE",
		Short: "List the headings of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			data, err := os.ReadFile(name)
			if err != nil {
				return err
			}
			conv, err := parser.ForFile(name, parser.Options{})
			if err != nil {
				return err
			}
			doc, err := conv.Convert(bytes.NewReader(data), name)
			if err != nil {
				return fmt.Errorf("convert %s: %w", name, err)
			}
			for _, h := range section.Outline(doc.Nodes) {
				writeLine(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}
}

func newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu FILE",
		Short: "Print the topics of a Markdown navigation file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			menu, err := nav.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), menu.String())
			return nil
		},
	}
}
