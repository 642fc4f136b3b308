package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/metacat/internal/compiler"
	"github.com/roach88/metacat/internal/ir"
	"github.com/roach88/metacat/internal/registry"
	"github.com/roach88/metacat/internal/search"
	"github.com/roach88/metacat/internal/store"
)

// Harness runs the cases of one scenario.
type Harness struct {
	service *search.Service
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// A scenario with a fixture runs against a fresh in-memory catalog, so
// scenarios never share state. Query rejections are case outcomes, not
// errors; Run only fails when the scenario cannot be set up or the
// catalog itself fails.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	isTrait, err := traitPredicate(scenario)
	if err != nil {
		return nil, err
	}

	var st *store.Store
	if scenario.Fixture != "" {
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()

		if _, err := st.LoadFixture(ctx, scenario.Fixture); err != nil {
			return nil, fmt.Errorf("failed to load fixture: %w", err)
		}
	}

	h := &Harness{
		// No default limit: cases see every match unless they page.
		service: search.New(st,
			search.WithLogger(logger),
			search.WithTraitPredicate(isTrait),
			search.WithDefaultLimit(0)),
		logger: logger,
	}

	result := NewResult()
	for _, c := range scenario.Cases {
		got, err := h.runCase(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
		result.Cases = append(result.Cases, got)
		for _, msg := range checkCase(c, got) {
			result.AddError(msg)
		}
	}
	return result, nil
}

func traitPredicate(scenario *Scenario) (compiler.TraitPredicate, error) {
	isTrait := compiler.TraitSet(scenario.Traits...)
	if scenario.Registry == "" {
		return isTrait, nil
	}
	reg, err := registry.LoadDir(scenario.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return compiler.AnyTrait(isTrait, reg.IsTraitAttribute), nil
}

func (h *Harness) runCase(ctx context.Context, c QueryCase) (CaseResult, error) {
	got := CaseResult{Name: c.Name, Query: c.Query}
	req := search.Request{Query: c.Query}

	_, plan, err := h.service.Compile(req)
	if err != nil {
		code := search.ErrorCode(err)
		if code == "" {
			return got, err
		}
		got.Error = code
		return got, nil
	}
	got.Plan = plan.String()
	got.Fingerprint, err = plan.Fingerprint()
	if err != nil {
		return got, err
	}

	if c.Matches == nil {
		return got, nil
	}
	res, err := h.service.Search(ctx, req)
	if err != nil {
		return got, err
	}
	got.Matches = matchNames(res)
	return got, nil
}

func matchNames(res *search.Result) []string {
	names := []string{}
	if res.Columns != nil {
		for _, row := range res.Rows {
			names = append(names, fmt.Sprint(row[0]))
		}
		return names
	}
	for _, e := range res.Entities {
		if name, ok := e.Attributes["name"].(ir.IRString); ok {
			names = append(names, string(name))
			continue
		}
		names = append(names, e.GUID)
	}
	return names
}
