package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"harshagw/searchcore/internal/search"
)

func newTypesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the registered adapter types",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.setup()
			if err != nil {
				return err
			}
			defer a.Close()

			printTypes(cmd.OutOrStdout(), a.engine)
			return nil
		},
	}
}

func printTypes(w io.Writer, e *search.Engine) {
	fmt.Fprintf(w, "crawlers:   %s\n", strings.Join(e.ListCrawlerTypes(), ", "))
	fmt.Fprintf(w, "evaluators: %s\n", strings.Join(e.ListEvaluatorTypes(), ", "))
	fmt.Fprintf(w, "scorers:    %s\n", strings.Join(e.ListScorerTypes(), ", "))
	fmt.Fprintf(w, "processors: %s\n", strings.Join(e.ListProcessorTypes(), ", "))
}
