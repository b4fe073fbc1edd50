package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"harshagw/searchcore/internal/crawler"
	"harshagw/searchcore/internal/search"
)

func newLoadCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file.json>...",
		Short: "Store documents from JSON files in the entity store",
		Long: `Load reads JSON arrays of {"id", "class", "fields"} documents and
stores each one as an entity. Existing entities with the same class and id
are replaced. Run 'searchcore index' afterwards to make them searchable.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.setup()
			if err != nil {
				return err
			}
			defer a.Close()

			for _, path := range args {
				docs, err := crawler.ReadDocuments(path)
				if err != nil {
					return err
				}
				entities := make([]search.Entity, 0, len(docs))
				for _, d := range docs {
					entities = append(entities, search.Entity{ID: d.ID, ClassName: d.ClassName, Fields: d.Fields})
				}
				if err := a.store.Put(cmd.Context(), entities...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d entities from %s\n", len(entities), path)
			}
			return nil
		},
	}
}
