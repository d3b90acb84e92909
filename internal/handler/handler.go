package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pavelanni/pyquiz/internal/model"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ResultReader is the read side of the results history.
type ResultReader interface {
	GetResult(id string) (*model.StoredResult, error)
	ListResults(limit int) ([]model.StoredResult, error)
	Leaderboard(limit int) ([]model.StoredResult, error)
	ResultCount() (int, error)
}

// Handler serves the read-only results API.
type Handler struct {
	results ResultReader
}

// New creates a new Handler.
func New(results ResultReader) *Handler {
	return &Handler{results: results}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/results", h.handleListResults)
		r.Get("/results/{resultID}", h.handleGetResult)
		r.Get("/leaderboard", h.handleLeaderboard)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.results.ResultCount()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "results": count})
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	results, err := h.results.ListResults(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(results))
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resultID")
	result, err := h.results.GetResult(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if result == nil {
		http.Error(w, "result not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	board, err := h.results.Leaderboard(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(board))
}

// parseLimit reads the optional limit query parameter. On a bad value it
// writes a 400 response and returns false.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		http.Error(w, "limit must be between 1 and "+strconv.Itoa(maxLimit), http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func nonNil(results []model.StoredResult) []model.StoredResult {
	if results == nil {
		return []model.StoredResult{}
	}
	return results
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
