package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/metacat/internal/search"
	"github.com/roach88/metacat/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	DB           string
	Addr         string
	DefaultLimit int64
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve DSL search over HTTP",
		Long: `Serve the catalog's DSL search endpoint:

  GET /api/v1/search/dsl?query=&typeName=&classification=&limit=&offset=
  GET /api/v1/health

Runs until interrupted (SIGINT/SIGTERM), then shuts down gracefully.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "catalog database path (required)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().Int64Var(&opts.DefaultLimit, "default-limit", search.DefaultLimit, "result limit when neither query nor request sets one")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Server logs are the command's output, so they go to stderr at info
	// level even without --verbose.
	level := new(slog.LevelVar)
	if opts.Verbose {
		level.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	st, err := openCatalog(opts.DB)
	if err != nil {
		return reportError(formatter, err)
	}
	defer st.Close()

	svc, err := newService(opts.RootOptions, st, logger, search.WithDefaultLimit(opts.DefaultLimit))
	if err != nil {
		return reportError(formatter, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, opts.Addr, svc, logger)
}

func serve(ctx context.Context, addr string, svc server.Searcher, logger *slog.Logger) error {
	h := server.NewRouter(server.NewHandler(svc, logger))
	if err := server.Serve(ctx, addr, h, logger); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}
