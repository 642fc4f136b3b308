package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/metacat/internal/ir"
	"github.com/roach88/metacat/internal/search"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	DB             string
	TypeName       string
	Classification string
	Limit          int64
	Offset         int64
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a DSL search against a catalog",
		Long: `Compile a DSL query and run it against a SQLite catalog.

Plain queries list the matching entities; queries with a select clause
print the selected columns.

Examples:
  metacat search --db catalog.db 'owner = "etl"'
  metacat search --db catalog.db --type hive_table --classification PII
  metacat search --db catalog.db 'from hive_table groupby(owner) select owner, count()'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return runSearch(opts, query, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "catalog database path (required)")
	cmd.Flags().StringVar(&opts.TypeName, "type", "", "entity type to search")
	cmd.Flags().StringVar(&opts.Classification, "classification", "", "classification the results must carry")
	cmd.Flags().Int64Var(&opts.Limit, "limit", 0, "result limit when the query sets none")
	cmd.Flags().Int64Var(&opts.Offset, "offset", 0, "result offset when the query sets no limit")

	return cmd
}

func runSearch(opts *SearchOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	st, err := openCatalog(opts.DB)
	if err != nil {
		return reportError(formatter, err)
	}
	defer st.Close()

	svc, err := newService(opts.RootOptions, st, logger)
	if err != nil {
		return reportError(formatter, err)
	}

	res, err := svc.Search(cmd.Context(), search.Request{
		Query:          query,
		TypeName:       opts.TypeName,
		Classification: opts.Classification,
		Limit:          opts.Limit,
		Offset:         opts.Offset,
	})
	if err != nil {
		return reportError(formatter, err)
	}
	formatter.VerboseLog("plan: %s", res.Plan)

	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	outputSearchText(formatter, res)
	return nil
}

func outputSearchText(formatter *OutputFormatter, res *search.Result) {
	w := formatter.Writer
	if res.Columns != nil {
		rows := make([][]string, len(res.Rows))
		for i, row := range res.Rows {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = formatCell(v)
			}
			rows[i] = cells
		}
		renderTable(w, res.Columns, rows)
	} else {
		rows := make([][]string, len(res.Entities))
		for i, e := range res.Entities {
			rows[i] = []string{e.GUID, e.TypeName, entityName(e)}
		}
		renderTable(w, []string{"GUID", "TYPE", "NAME"}, rows)
	}
	fmt.Fprintf(w, "\n%d result(s)\n", res.Count)
}

func entityName(e ir.Entity) string {
	name, _ := e.Attributes["name"].(ir.IRString)
	return string(name)
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}
