package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	DB string
}

// LoadResult is the load command's JSON payload.
type LoadResult struct {
	Files  []string `json:"files"`
	Loaded int      `json:"loaded"`
	Total  int64    `json:"total"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <fixture.yaml>...",
		Short: "Load catalog fixtures into a database",
		Long: `Load entities from YAML fixture files into a SQLite catalog, creating
the database if needed. Entities with a guid replace the stored entity.

Examples:
  metacat load --db catalog.db testdata/catalog.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "catalog database path (required)")

	return cmd
}

func runLoad(opts *LoadOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("fixture not found: %s", f), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("fixture not found: %s", f))
		}
	}

	st, err := openCatalog(opts.DB)
	if err != nil {
		return reportError(formatter, err)
	}
	defer st.Close()

	result := LoadResult{Files: files}
	for _, f := range files {
		guids, err := st.LoadFixture(cmd.Context(), f)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("loading %s", f), err)
		}
		formatter.VerboseLog("Loaded %d entit(ies) from %s", len(guids), f)
		result.Loaded += len(guids)
	}

	result.Total, err = st.CountEntities(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "counting entities", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s Loaded %d entit(ies) from %d file(s); catalog holds %d\n",
		passMark(), result.Loaded, len(files), result.Total)
	return nil
}
