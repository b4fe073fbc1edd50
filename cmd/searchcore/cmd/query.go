package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"harshagw/searchcore/internal/search"
)

// queryOptions holds CLI flags for query.
type queryOptions struct {
	props  map[string]string
	format string // "text", "json"
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Run one query through the search pipeline",
		Long: `Query parses the query string, evaluates it against the saved index,
scores it when formula_type is set and processes the hits.

Properties from the config file can be overridden per run:
  searchcore query mock -p formula_type=bm25
  searchcore query '"mock text" OR entity' -p processor_type= --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("--format must be text or json, got %q", opts.format)
			}

			a, err := root.setup()
			if err != nil {
				return err
			}
			defer a.Close()

			idx, err := a.openIndex(cmd.Context())
			if err != nil {
				return err
			}
			defer idx.Close()

			resp, err := a.engine.Search(cmd.Context(), idx, strings.Join(args, " "), a.properties(opts.props))
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp, opts.format)
		},
	}

	cmd.Flags().StringToStringVarP(&opts.props, "prop", "p", nil, "Pipeline property key=value (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	return cmd
}

type responseJSON struct {
	QueryID  string          `json:"query_id"`
	Query    string          `json:"query"`
	Hits     int             `json:"hits"`
	Score    *float64        `json:"score,omitempty"`
	TookMS   float64         `json:"took_ms"`
	Entities []search.Entity `json:"entities"`
}

func printResponse(w io.Writer, resp *search.Response, format string) error {
	if format == "json" {
		out := responseJSON{
			QueryID:  resp.QueryID,
			Query:    resp.Root.String(),
			Hits:     resp.Result.Len(),
			TookMS:   float64(resp.Took.Microseconds()) / 1000,
			Entities: resp.Entities,
		}
		if resp.Scored {
			out.Score = &resp.Score
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "Query: %s\n", resp.Root)
	fmt.Fprintf(w, "Hits:  %d (%s)\n", resp.Result.Len(), resp.Took)
	if resp.Scored {
		fmt.Fprintf(w, "Score: %.4f\n", resp.Score)
	}
	for i, e := range resp.Entities {
		attrs := resp.Result.Attributes(e.ID)
		line := fmt.Sprintf("  %d. %s/%d", i+1, e.ClassName, e.ID)
		if tf, ok := attrs.TermFrequency(); ok {
			line += fmt.Sprintf(" tf=%g", tf)
		}
		if e.Materialized() {
			fields, err := json.Marshal(e.Fields)
			if err != nil {
				return err
			}
			line += " " + string(fields)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
