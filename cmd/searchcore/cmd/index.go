package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd(root *rootOptions) *cobra.Command {
	var crawlers []string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Crawl the configured sources and save the term index",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.setup()
			if err != nil {
				return err
			}
			defer a.Close()

			if len(crawlers) > 0 {
				a.cfg.Crawlers = crawlers
			}
			idx, err := a.buildIndex(cmd.Context())
			if err != nil {
				return err
			}
			defer idx.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents, %d terms -> %s\n",
				idx.TotalDocs(), idx.NumTerms(), a.cfg.Index.Path)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&crawlers, "crawler", nil, "Crawler type to run (repeatable, overrides config)")
	return cmd
}
