package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/metacat/internal/compiler"
	"github.com/roach88/metacat/internal/dsl"
	"github.com/roach88/metacat/internal/ir"
	"github.com/roach88/metacat/internal/queryplan"
	"github.com/roach88/metacat/internal/querysql"
	"github.com/roach88/metacat/internal/store"
)

// DefaultLimit caps result size when neither the query nor the request
// sets a limit.
const DefaultLimit = 100

var (
	// ErrInvalidRequest marks bad request parameters.
	ErrInvalidRequest = errors.New("invalid search request")

	// ErrInvalidPlan marks a compiled plan that failed validation.
	ErrInvalidPlan = errors.New("invalid query plan")
)

// IsClientError reports whether err was caused by the request (bad query
// text or parameters) rather than by the catalog.
func IsClientError(err error) bool {
	var pe *dsl.ParseError
	return errors.As(err, &pe) ||
		compiler.IsClientError(err) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidPlan)
}

// Codes for client errors that carry no compile error code.
const (
	CodeParse          = "parse"
	CodeInvalidRequest = "invalid_request"
	CodeInvalidPlan    = "invalid_plan"
)

// ErrorCode names a client error: the compile error code (E201-E203) or
// one of the Code* constants. It returns "" for catalog failures.
func ErrorCode(err error) string {
	if code := compiler.ErrorCode(err); code != "" {
		return code
	}
	var pe *dsl.ParseError
	switch {
	case errors.As(err, &pe):
		return CodeParse
	case errors.Is(err, ErrInvalidPlan):
		return CodeInvalidPlan
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	}
	return ""
}

// Request is one DSL search.
type Request struct {
	Query          string
	TypeName       string
	Classification string
	Limit          int64
	Offset         int64
}

// Result is the outcome of a search. Plain queries return Entities;
// queries with a select clause return Columns and Rows.
type Result struct {
	Query       string      `json:"query"`
	Plan        string      `json:"plan"`
	Fingerprint string      `json:"fingerprint"`
	Count       int         `json:"count"`
	Entities    []ir.Entity `json:"entities,omitempty"`
	Columns     []string    `json:"columns,omitempty"`
	Rows        [][]any     `json:"rows,omitempty"`
}

// Service runs DSL searches against a catalog store:
// fold → parse → compile → validate → lower → execute.
//
// A Service holds only configuration and is safe for concurrent use.
type Service struct {
	store        *store.Store
	isTrait      compiler.TraitPredicate
	logger       *slog.Logger
	defaultLimit int64
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTraitPredicate sets the trait-attribute test shared by the compiler
// and the SQL adapter.
func WithTraitPredicate(p compiler.TraitPredicate) Option {
	return func(s *Service) {
		if p != nil {
			s.isTrait = p
		}
	}
}

// WithTraitDomain uses d.IsTraitAttribute as the trait predicate.
func WithTraitDomain(d compiler.TraitDomain) Option {
	return func(s *Service) {
		if d != nil {
			s.isTrait = d.IsTraitAttribute
		}
	}
}

// WithDefaultLimit overrides DefaultLimit. Zero or less means unlimited.
func WithDefaultLimit(n int64) Option {
	return func(s *Service) {
		s.defaultLimit = n
	}
}

// New returns a Service over st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:        st,
		isTrait:      compiler.NoTraits,
		logger:       slog.Default(),
		defaultLimit: DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile folds, parses, compiles and validates the request's query
// without touching the store. The returned plan carries the request's
// paging when the query sets none.
func (s *Service) Compile(req Request) (string, *queryplan.Plan, error) {
	if req.Limit < 0 || req.Offset < 0 {
		return "", nil, fmt.Errorf("%w: limit %d offset %d must not be negative", ErrInvalidRequest, req.Limit, req.Offset)
	}
	if len(req.Query) > dsl.MaxQueryLength {
		return "", nil, fmt.Errorf("%w: query exceeds %d bytes", ErrInvalidRequest, dsl.MaxQueryLength)
	}

	text, err := FoldQuery(req.Query, req.TypeName, req.Classification)
	if err != nil {
		return "", nil, err
	}
	if text == "" {
		return "", nil, fmt.Errorf("%w: empty query", ErrInvalidRequest)
	}

	q, err := dsl.Parse(text)
	if err != nil {
		return text, nil, err
	}
	plan, err := compiler.New(compiler.WithLogger(s.logger), compiler.WithTraitPredicate(s.isTrait)).Compile(q)
	if err != nil {
		return text, nil, err
	}
	if vr := queryplan.Validate(plan); !vr.IsValid {
		return text, nil, fmt.Errorf("%w: %s", ErrInvalidPlan, strings.Join(vr.Warnings, "; "))
	}

	if _, ok := plan.LimitClause(); !ok {
		switch {
		case req.Limit > 0:
			plan = plan.WithLimit(req.Limit, req.Offset)
		case s.defaultLimit > 0:
			plan = plan.WithLimit(s.defaultLimit, req.Offset)
		case req.Offset > 0:
			return text, nil, fmt.Errorf("%w: offset %d needs a limit", ErrInvalidRequest, req.Offset)
		}
	}
	return text, plan, nil
}

// Search runs one request.
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	text, plan, err := s.Compile(req)
	if err != nil {
		s.logger.Info("search rejected", "query", req.Query, "error", err)
		return nil, err
	}

	fp, err := plan.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint plan: %w", err)
	}
	st, err := querysql.Lower(plan, querysql.WithTraitPredicate(s.isTrait))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("search lowered", "query", text, "sql", st.SQL, "params", len(st.Params))

	res := &Result{Query: text, Plan: plan.String(), Fingerprint: fp}
	if st.Projection {
		res.Columns = st.Columns
		res.Rows, err = s.queryRows(ctx, st)
		res.Count = len(res.Rows)
	} else {
		res.Entities, err = s.queryEntities(ctx, st)
		res.Count = len(res.Entities)
	}
	if err != nil {
		s.logger.Error("search failed", "query", text, "error", err)
		return nil, err
	}

	s.logger.Info("search", "query", text, "fingerprint", fp, "count", res.Count)
	return res, nil
}

func (s *Service) queryEntities(ctx context.Context, st querysql.Statement) ([]ir.Entity, error) {
	rows, err := s.store.Query(ctx, st.SQL, st.Params...)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	var guids []string
	for rows.Next() {
		var guid string
		if err := rows.Scan(&guid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		guids = append(guids, guid)
	}
	err = rows.Err()
	// The store runs on a single connection; release it before loading
	// the entities.
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}
	return s.store.GetEntities(ctx, guids)
}

func (s *Service) queryRows(ctx context.Context, st querysql.Statement) ([][]any, error) {
	rows, err := s.store.Query(ctx, st.SQL, st.Params...)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	defer rows.Close()

	out := [][]any{}
	for rows.Next() {
		vals := make([]any, len(st.Columns))
		ptrs := make([]any, len(vals))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return out, nil
}
