package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/metacat/internal/compiler"
	"github.com/roach88/metacat/internal/registry"
	"github.com/roach88/metacat/internal/search"
	"github.com/roach88/metacat/internal/store"
)

// Error code constants for failures outside the query compiler.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStoreFailed = "E008" // Catalog open/read/write failed
)

// loadTraits builds the trait attribute test from --registry and
// --trait. The registry is nil when --registry is not set.
func loadTraits(opts *RootOptions) (compiler.TraitPredicate, *registry.Registry, error) {
	isTrait := compiler.TraitSet(opts.Traits...)
	if opts.Registry == "" {
		return isTrait, nil, nil
	}
	reg, err := registry.LoadDir(opts.Registry)
	if err != nil {
		return nil, nil, err
	}
	return compiler.AnyTrait(isTrait, reg.IsTraitAttribute), reg, nil
}

// newLogger returns the command logger. Diagnostics go to w so JSON on
// stdout stays parseable; --verbose lowers the level to debug.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openCatalog opens the store at path, creating it if needed.
func openCatalog(path string) (*store.Store, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("opening catalog %s", path), err)
	}
	return st, nil
}

// newService wires the search service for a command.
func newService(opts *RootOptions, st *store.Store, logger *slog.Logger, extra ...search.Option) (*search.Service, error) {
	isTrait, _, err := loadTraits(opts)
	if err != nil {
		return nil, err
	}
	svcOpts := append([]search.Option{
		search.WithLogger(logger),
		search.WithTraitPredicate(isTrait),
	}, extra...)
	return search.New(st, svcOpts...), nil
}

// errorCode classifies err for CLIError output.
func errorCode(err error) string {
	if code := search.ErrorCode(err); code != "" {
		return code
	}
	var loadErr *registry.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// reportError prints err and converts it to an ExitError. Client errors
// (bad queries, bad registries) exit 1, everything else 2.
func reportError(f *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		_ = f.Error(ErrCodeGeneric, exitErr.Error(), nil)
		return exitErr
	}

	code := errorCode(err)
	_ = f.Error(code, err.Error(), nil)

	var loadErr *registry.LoadError
	if search.IsClientError(err) || errors.As(err, &loadErr) {
		return WrapExitError(ExitFailure, code, err)
	}
	return WrapExitError(ExitCommandError, code, err)
}
