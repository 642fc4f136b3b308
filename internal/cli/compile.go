package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/metacat/internal/queryplan"
	"github.com/roach88/metacat/internal/querysql"
	"github.com/roach88/metacat/internal/search"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	TypeName       string
	Classification string
	Limit          int64
	Offset         int64
	ShowSQL        bool
}

// CompileResult is the compile command's JSON payload.
type CompileResult struct {
	Query       string          `json:"query"`
	Text        string          `json:"text"`
	Plan        *queryplan.Plan `json:"plan"`
	Fingerprint string          `json:"fingerprint"`
	SQL         string          `json:"sql,omitempty"`
	Params      []any           `json:"params,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a DSL query to a query plan",
		Long: `Compile a DSL query to its backend-neutral query plan.

The type and classification flags are folded into the query the same way
the search endpoint folds its parameters. No catalog is needed.

Examples:
  metacat compile 'owner = "etl" and rows > 100'
  metacat compile --type hive_table --classification PII 'owner = "etl"'
  metacat compile --trait PII --sql 'PII = true'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.TypeName, "type", "", "entity type to search")
	cmd.Flags().StringVar(&opts.Classification, "classification", "", "classification the results must carry")
	cmd.Flags().Int64Var(&opts.Limit, "limit", 0, "result limit when the query sets none")
	cmd.Flags().Int64Var(&opts.Offset, "offset", 0, "result offset when the query sets no limit")
	cmd.Flags().BoolVar(&opts.ShowSQL, "sql", false, "also print the SQLite statement")

	return cmd
}

func runCompile(opts *CompileOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	isTrait, _, err := loadTraits(opts.RootOptions)
	if err != nil {
		return reportError(formatter, err)
	}
	// Paging is only applied when asked for.
	svc := search.New(nil,
		search.WithLogger(logger),
		search.WithTraitPredicate(isTrait),
		search.WithDefaultLimit(0))

	req := search.Request{
		Query:          query,
		TypeName:       opts.TypeName,
		Classification: opts.Classification,
		Limit:          opts.Limit,
		Offset:         opts.Offset,
	}
	text, plan, err := svc.Compile(req)
	if err != nil {
		return reportError(formatter, err)
	}
	formatter.VerboseLog("Compiled %q", text)

	fp, err := plan.Fingerprint()
	if err != nil {
		return reportError(formatter, err)
	}
	result := &CompileResult{Query: query, Text: text, Plan: plan, Fingerprint: fp}

	if opts.ShowSQL {
		st, err := querysql.Lower(plan, querysql.WithTraitPredicate(isTrait))
		if err != nil {
			return reportError(formatter, err)
		}
		result.SQL = st.SQL
		result.Params = st.Params
	}

	return outputCompileSuccess(formatter, result)
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s Compiled\n\n", passMark())
	if result.Text != result.Query {
		fmt.Fprintf(w, "Query:       %s\n", result.Text)
	}
	fmt.Fprintf(w, "Plan:        %s\n", result.Plan)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)
	if result.SQL != "" {
		fmt.Fprintf(w, "SQL:         %s\n", result.SQL)
		fmt.Fprintf(w, "Params:      %v\n", result.Params)
	}
	return nil
}
