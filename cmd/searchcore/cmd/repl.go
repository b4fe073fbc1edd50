package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"harshagw/searchcore/internal/search"
	"harshagw/searchcore/internal/termindex"
)

func newReplCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive search console",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.setup()
			if err != nil {
				return err
			}
			defer a.Close()

			idx, err := a.openIndex(cmd.Context())
			if err != nil {
				return err
			}

			r := newREPL(cmd.Context(), a, idx, cmd.OutOrStdout())
			defer r.close()

			fmt.Fprintln(r.out, "searchcore REPL")
			fmt.Fprintln(r.out)
			r.printHelp()
			fmt.Fprintf(r.out, "\nIndex loaded from %s (%d documents, %d terms)\n\n",
				a.cfg.Index.Path, idx.TotalDocs(), idx.NumTerms())

			p := prompt.New(
				r.executor,
				r.completer,
				prompt.OptionPrefix("searchcore >> "),
				prompt.OptionTitle("searchcore"),
				prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
					return breakline && r.done
				}),
			)
			p.Run()
			return nil
		},
	}
}

// REPL holds the console state: the open index and the session properties.
type REPL struct {
	ctx   context.Context
	app   *app
	idx   *termindex.Index
	props search.Properties
	out   io.Writer
	done  bool
}

func newREPL(ctx context.Context, a *app, idx *termindex.Index, out io.Writer) *REPL {
	return &REPL{
		ctx:   ctx,
		app:   a,
		idx:   idx,
		props: search.Properties(a.cfg.Properties).Clone(),
		out:   out,
	}
}

func (r *REPL) close() {
	if r.idx != nil {
		r.idx.Close()
		r.idx = nil
	}
}

var commands = []prompt.Suggest{
	{Text: "search", Description: "Run a query through the pipeline"},
	{Text: "set", Description: "Set a session property"},
	{Text: "unset", Description: "Remove a session property"},
	{Text: "props", Description: "Show session properties"},
	{Text: "put", Description: "Store an entity"},
	{Text: "entity", Description: "Show a stored entity"},
	{Text: "delete", Description: "Delete a stored entity"},
	{Text: "reindex", Description: "Rebuild the index from the crawlers"},
	{Text: "terms", Description: "List indexed terms by prefix"},
	{Text: "dump", Description: "Show the postings of a term"},
	{Text: "stats", Description: "Show index and entity store statistics"},
	{Text: "types", Description: "List registered adapters"},
	{Text: "metrics", Description: "Show dispatch metrics"},
	{Text: "help", Description: "Show help"},
	{Text: "quit", Description: "Exit"},
}

func (r *REPL) completer(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  search <query>               - Parse, evaluate, score and process a query")
	fmt.Fprintln(r.out, "  set <key>=<value>            - Set a session property")
	fmt.Fprintln(r.out, "  unset <key>                  - Remove a session property")
	fmt.Fprintln(r.out, "  props                        - Show session properties")
	fmt.Fprintln(r.out, "  put <class> <id> <json>      - Store an entity")
	fmt.Fprintln(r.out, "  entity <class> <id>          - Show a stored entity")
	fmt.Fprintln(r.out, "  delete <class> <id>          - Delete a stored entity")
	fmt.Fprintln(r.out, "  reindex                      - Rebuild and save the index")
	fmt.Fprintln(r.out, "  terms <prefix>               - List indexed terms")
	fmt.Fprintln(r.out, "  dump <term>                  - Show the posting list of a term")
	fmt.Fprintln(r.out, "  stats                        - Show index and entity store statistics")
	fmt.Fprintln(r.out, "  types                        - List registered adapters")
	fmt.Fprintln(r.out, "  metrics                      - Show dispatch metrics")
	fmt.Fprintln(r.out, "  help                         - Show this help")
	fmt.Fprintln(r.out, "  quit                         - Exit")
}

func (r *REPL) executor(input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}

	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case "search":
		r.cmdSearch(strings.TrimSpace(strings.TrimPrefix(input, cmd)))
	case "set":
		r.cmdSet(parts[1:])
	case "unset":
		r.cmdUnset(parts[1:])
	case "props":
		r.cmdProps()
	case "put":
		r.cmdPut(input)
	case "entity":
		r.cmdEntity(parts[1:])
	case "delete":
		r.cmdDelete(parts[1:])
	case "reindex":
		r.cmdReindex()
	case "terms":
		r.cmdTerms(parts[1:])
	case "dump":
		r.cmdDump(parts[1:])
	case "stats":
		r.cmdStats()
	case "types":
		printTypes(r.out, r.app.engine)
	case "metrics":
		r.cmdMetrics()
	case "help":
		r.printHelp()
	case "quit", "exit":
		fmt.Fprintln(r.out, "Goodbye!")
		r.done = true
	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", cmd)
	}
}

func (r *REPL) cmdSearch(q string) {
	if q == "" {
		fmt.Fprintln(r.out, "Usage: search <query>")
		return
	}
	if r.idx == nil {
		fmt.Fprintln(r.out, "No index loaded")
		return
	}

	resp, err := r.app.engine.Search(r.ctx, r.idx, q, r.props)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if resp.Result.Len() == 0 {
		fmt.Fprintf(r.out, "No results for %s\n", resp.Root)
		return
	}
	if err := printResponse(r.out, resp, "text"); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
}

func (r *REPL) cmdSet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: set <key>=<value>")
		return
	}
	key, value, ok := strings.Cut(args[0], "=")
	if !ok || key == "" {
		fmt.Fprintln(r.out, "Usage: set <key>=<value>")
		return
	}
	r.props = r.props.With(key, value)
	fmt.Fprintf(r.out, "%s = %q\n", key, value)
}

func (r *REPL) cmdUnset(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: unset <key>")
		return
	}
	delete(r.props, args[0])
	fmt.Fprintf(r.out, "Removed %s\n", args[0])
}

func (r *REPL) cmdProps() {
	if len(r.props) == 0 {
		fmt.Fprintln(r.out, "No properties set")
		return
	}
	keys := make([]string, 0, len(r.props))
	for k := range r.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(r.out, "  %s = %q\n", k, r.props[k])
	}
}

func parseEntityRef(args []string) (string, search.DocumentID, bool) {
	if len(args) < 2 {
		return "", 0, false
	}
	id, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return "", 0, false
	}
	return args[0], search.DocumentID(id), true
}

func (r *REPL) cmdPut(input string) {
	parts := strings.SplitN(input, " ", 4)
	if len(parts) < 4 {
		fmt.Fprintln(r.out, "Usage: put <class> <id> <json>")
		return
	}
	class, id, ok := parseEntityRef(parts[1:3])
	if !ok {
		fmt.Fprintln(r.out, "Usage: put <class> <id> <json>")
		return
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(parts[3]), &fields); err != nil {
		fmt.Fprintf(r.out, "Error parsing JSON: %v\n", err)
		return
	}

	if err := r.app.store.Put(r.ctx, search.Entity{ID: id, ClassName: class, Fields: fields}); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Stored %s/%d (%d fields). Run reindex to search it.\n", class, id, len(fields))
}

func (r *REPL) cmdEntity(args []string) {
	class, id, ok := parseEntityRef(args)
	if !ok {
		fmt.Fprintln(r.out, "Usage: entity <class> <id>")
		return
	}

	e, err := r.app.store.Resolve(r.ctx, class, id)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}

	data, _ := json.MarshalIndent(e, "", "  ")
	fmt.Fprintln(r.out, string(data))
}

func (r *REPL) cmdDelete(args []string) {
	class, id, ok := parseEntityRef(args)
	if !ok {
		fmt.Fprintln(r.out, "Usage: delete <class> <id>")
		return
	}

	if err := r.app.store.Delete(r.ctx, class, id); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Deleted %s/%d\n", class, id)
}

func (r *REPL) cmdReindex() {
	// Release the mapping before the saved file is replaced.
	r.close()

	idx, err := r.app.buildIndex(r.ctx)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		idx, err = r.app.openIndex(r.ctx)
		if err != nil {
			fmt.Fprintf(r.out, "Error reopening index: %v\n", err)
			return
		}
	}
	r.idx = idx
	fmt.Fprintf(r.out, "Indexed %d documents, %d terms.\n", idx.TotalDocs(), idx.NumTerms())
}

func (r *REPL) cmdTerms(args []string) {
	if r.idx == nil {
		fmt.Fprintln(r.out, "No index loaded")
		return
	}
	prefix := ""
	if len(args) > 0 {
		prefix = strings.ToLower(args[0])
	}

	terms, err := r.idx.PrefixTerms(prefix)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if len(terms) == 0 {
		fmt.Fprintf(r.out, "No terms with prefix %q\n", prefix)
		return
	}
	fmt.Fprintf(r.out, "%d terms:\n", len(terms))
	for _, t := range terms {
		df, err := r.idx.DocFreq(t)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
		docs, err := r.idx.Postings(t)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(r.out, "  %s (df=%d) docs=%v\n", t, df, docs.ToArray())
	}
}

func (r *REPL) cmdStats() {
	if r.idx != nil {
		docs := r.idx.Documents()
		fmt.Fprintf(r.out, "Index %s:\n", r.app.cfg.Index.Path)
		fmt.Fprintf(r.out, "  Documents: %d\n", docs.GetCardinality())
		if !docs.IsEmpty() {
			fmt.Fprintf(r.out, "  Id range: %d-%d\n", docs.Minimum(), docs.Maximum())
		}
		fmt.Fprintf(r.out, "  Terms: %d\n", r.idx.NumTerms())
		fmt.Fprintf(r.out, "  Avg length: %.2f\n", r.idx.AvgDocLength())
	}

	classes, err := r.app.store.Classes()
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Entity store %s:\n", r.app.cfg.EntityStore.Path)
	if len(classes) == 0 {
		fmt.Fprintln(r.out, "  No entities")
		return
	}
	for _, class := range classes {
		n, err := r.app.store.Count(class)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(r.out, "  %s: %d entities\n", class, n)
	}
}

func (r *REPL) cmdDump(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(r.out, "Usage: dump <term>")
		return
	}
	if r.idx == nil {
		fmt.Fprintln(r.out, "No index loaded")
		return
	}
	term := strings.ToLower(args[0])

	postings, err := r.idx.Lookup(term)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if len(postings) == 0 {
		fmt.Fprintf(r.out, "No postings for %s\n", term)
		return
	}

	fmt.Fprintf(r.out, "Postings for %s (%d docs):\n", term, len(postings))
	for _, p := range postings {
		fmt.Fprintf(r.out, "  doc=%d freq=%d pos=%v\n", p.DocID, p.Frequency, p.Positions)
	}
}

func (r *REPL) cmdMetrics() {
	families, err := r.app.metrics.Registry().Gather()
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if len(families) == 0 {
		fmt.Fprintln(r.out, "No dispatches recorded")
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(r.out, mf); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
	}
}
