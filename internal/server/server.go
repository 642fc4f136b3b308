// Package server exposes DSL search over HTTP.
//
//	GET /api/v1/search/dsl?query=&typeName=&classification=&limit=&offset=
//
// Bad query text or parameters answer 400 with a JSON error body; catalog
// failures answer 500.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/metacat/internal/dsl"
	"github.com/roach88/metacat/internal/search"
)

// Searcher runs one search request. Implemented by *search.Service.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Result, error)
}

// Handler serves the search API.
type Handler struct {
	searcher Searcher
	logger   *slog.Logger
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHandler returns a handler over s. A nil logger means slog.Default().
func NewHandler(s Searcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{searcher: s, logger: logger}
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search/dsl", h.SearchDSL)
		r.Get("/health", h.Health)
	})
}

// NewRouter returns a chi router with the API mounted.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

// SearchDSL runs the query given in the URL parameters.
func (h *Handler) SearchDSL(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("query")
	if len(query) > dsl.MaxQueryLength {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query exceeds %d bytes", dsl.MaxQueryLength), search.CodeInvalidRequest)
		return
	}

	limit, err := int64Param(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err, search.CodeInvalidRequest)
		return
	}
	offset, err := int64Param(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, err, search.CodeInvalidRequest)
		return
	}

	req := search.Request{
		Query:          query,
		TypeName:       params.Get("typeName"),
		Classification: params.Get("classification"),
		Limit:          limit,
		Offset:         offset,
	}
	res, err := h.searcher.Search(r.Context(), req)
	if err != nil {
		if search.IsClientError(err) {
			writeError(w, http.StatusBadRequest, err, search.ErrorCode(err))
			return
		}
		h.logger.Error("dsl search failed",
			"request_id", middleware.GetReqID(r.Context()),
			"query", query,
			"error", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"), "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Health answers 200 while the server is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down", "addr", addr)
		return srv.Shutdown(shutdownCtx)
	}
}

func int64Param(r *http.Request, key string) (int64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, s)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, err error, code string) {
	writeJSON(w, statusCode, ErrorResponse{Error: err.Error(), Code: code})
}
