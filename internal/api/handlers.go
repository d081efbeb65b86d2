package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campsight/internal/history"
	"campsight/internal/insights"
	"campsight/internal/upstream"
)

// SearchRequest is the request body for POST /search. Days and Limit are
// decoded as numbers so fractional client values degrade to their integer
// part instead of a decode error.
type SearchRequest struct {
	Keyword string   `json:"keyword"`
	Days    *float64 `json:"days,omitempty"`
	Limit   *float64 `json:"limit,omitempty"`
}

// ListSearchesResponse is the response for GET /searches
type ListSearchesResponse struct {
	Searches []*history.Record `json:"searches"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ErrorResponse is the error response
type ErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   any    `json:"upstream_body,omitempty"`
	Stack          string `json:"stack,omitempty"`
}

// handleSearch handles POST /api/v1/search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := s.pipeline.Search(r.Context(), insights.Request{
		Keyword: req.Keyword,
		Days:    intValue(req.Days),
		Limit:   intValue(req.Limit),
	})
	if err != nil {
		s.sendSearchError(w, r, err)
		return
	}

	s.recordSearch(r.Context(), report)
	s.sendJSON(w, http.StatusOK, report)
}

// sendSearchError maps the pipeline's failure kinds onto HTTP statuses
func (s *Server) sendSearchError(w http.ResponseWriter, r *http.Request, err error) {
	var fetchErr *upstream.FetchError

	switch {
	case errors.Is(err, insights.ErrMissingParameter):
		s.sendError(w, http.StatusBadRequest, "keyword is required")

	case errors.Is(err, insights.ErrServerMisconfigured):
		s.logger.Error("search rejected: upstream API key not configured")
		s.sendError(w, http.StatusInternalServerError, "server is not configured with an upstream API key")

	case errors.As(err, &fetchErr):
		s.logger.Error("upstream listing failed", "status", fetchErr.Status)
		s.sendJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:          "upstream campaign listing failed",
			UpstreamStatus: fetchErr.Status,
			UpstreamBody:   fetchErr.Body,
		})

	case errors.Is(err, insights.ErrRequestCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		s.sendError(w, http.StatusServiceUnavailable, "search cancelled")

	default:
		s.logger.Error("search failed", "error", err)
		resp := ErrorResponse{Error: fmt.Sprintf("internal error: %v", err)}
		if s.config.Debug {
			resp.Stack = string(debug.Stack())
		}
		s.sendJSON(w, http.StatusInternalServerError, resp)
	}
}

// recordSearch appends one successful search to the history log.
// History failures are logged, never surfaced.
func (s *Server) recordSearch(ctx context.Context, report *insights.Report) {
	if s.history == nil {
		return
	}

	ids := make([]string, 0, len(report.Campaigns))
	for _, c := range report.Campaigns {
		if c.ID != nil {
			ids = append(ids, *c.ID)
		}
	}

	rec := &history.Record{
		ID:          uuid.New().String(),
		Keyword:     report.Keyword,
		Days:        report.DaysUsed,
		Limit:       report.RequestedLimit,
		MatchCount:  report.CampaignCount,
		CampaignIDs: ids,
		CreatedAt:   time.Now(),
	}
	if err := s.history.Put(ctx, rec); err != nil {
		s.logger.Warn("failed to record search history", "error", err)
	}
}

// handleListSearches handles GET /api/v1/searches
func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.sendError(w, http.StatusServiceUnavailable, "search history is disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list search history", "error", err)
		s.sendError(w, http.StatusInternalServerError, "failed to list search history")
		return
	}
	if records == nil {
		records = []*history.Record{}
	}

	s.sendJSON(w, http.StatusOK, ListSearchesResponse{Searches: records})
}

// handleGetSearch handles GET /api/v1/searches/{id}
func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.sendError(w, http.StatusServiceUnavailable, "search history is disabled")
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.history.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load search record", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "failed to load search record")
		return
	}
	if rec == nil {
		s.sendError(w, http.StatusNotFound, "search not found")
		return
	}

	s.sendJSON(w, http.StatusOK, rec)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}

func intValue(v *float64) int {
	if v == nil {
		return 0
	}
	return int(*v)
}
