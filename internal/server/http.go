package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/IdanRossman/jiranimo/internal/dashboard"
	"github.com/IdanRossman/jiranimo/internal/filter"
	"github.com/IdanRossman/jiranimo/internal/group"
	"github.com/IdanRossman/jiranimo/internal/kanban"
	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/transition"
)

// defaultEventLimit caps GET /v1/events when no limit is given.
const defaultEventLimit = 100

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health and
// GET /metrics) must include a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/issues", s.handleListIssues)
	mux.HandleFunc("GET /v1/issues/{key}", s.handleGetIssue)
	mux.HandleFunc("GET /v1/issues/{key}/events", s.handleGetIssueEvents)
	mux.HandleFunc("GET /v1/filter", s.handleGetFilter)
	mux.HandleFunc("PUT /v1/filter", s.handleSetFilter)
	mux.HandleFunc("GET /v1/facets", s.handleGetFacets)
	mux.HandleFunc("GET /v1/groups", s.handleGetGroups)
	mux.HandleFunc("GET /v1/summary", s.handleGetSummary)
	mux.HandleFunc("GET /v1/board", s.handleGetBoard)
	mux.HandleFunc("GET /v1/projects", s.handleGetProjects)
	mux.HandleFunc("POST /v1/board/moves", s.handleMove)
	mux.HandleFunc("POST /v1/reload", s.handleReload)
	mux.HandleFunc("GET /v1/attention", s.handleGetAttention)
	mux.HandleFunc("GET /v1/events", s.handleListEvents)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.Handle("GET /metrics", s.metrics.Handler())

	var h http.Handler = mux
	h = AuthMiddleware(authToken, h)
	h = s.metrics.Middleware(h)
	h = LoggingMiddleware(s.logger, h)
	return RecoveryMiddleware(s.logger, h)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"loaded_at": s.dash.LoadedAt(),
	})
}

// filterFromQuery reads a FilterState from query parameters. List values
// are comma-separated.
func filterFromQuery(r *http.Request) (model.FilterState, bool) {
	q := r.URL.Query()
	state := model.FilterState{
		Search:   q.Get("search"),
		Priority: q.Get("priority"),
		Type:     q.Get("type"),
		Types:    splitList(q.Get("types")),
		Labels:   splitList(q.Get("labels")),
		Projects: splitList(q.Get("projects")),
	}
	return state, state.IsActive()
}

// handleListIssues handles GET /v1/issues. Query filters are applied on top
// of the full collection without changing the dashboard filter; with no
// query filters the dashboard's filtered collection is returned.
func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	var issues []*model.Issue
	if state, ok := filterFromQuery(r); ok {
		issues = filter.Apply(s.dash.Issues(), state)
	} else {
		issues = s.dash.Filtered()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"issues":   issues,
		"total":    len(issues),
		"has_more": s.dash.HasMore(),
	})
}

// handleGetIssue handles GET /v1/issues/{key}.
func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	issue, ok := s.dash.Issue(key)
	if !ok {
		writeError(w, http.StatusNotFound, "issue not found: "+key)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

// handleGetIssueEvents handles GET /v1/issues/{key}/events.
func (s *Server) handleGetIssueEvents(w http.ResponseWriter, r *http.Request) {
	evts, err := s.dash.Events(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	writeJSON(w, http.StatusOK, evts)
}

// handleListEvents handles GET /v1/events?limit=N.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	evts, err := s.dash.Journal().ListEvents(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	writeJSON(w, http.StatusOK, evts)
}

// handleGetFilter handles GET /v1/filter.
func (s *Server) handleGetFilter(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Filter())
}

// handleSetFilter handles PUT /v1/filter.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var state model.FilterState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	matched := s.dash.SetFilter(r.Context(), state)
	writeJSON(w, http.StatusOK, map[string]any{
		"filter":  state,
		"active":  state.IsActive(),
		"matched": matched,
	})
}

// handleGetFacets handles GET /v1/facets.
func (s *Server) handleGetFacets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Facets())
}

// handleGetGroups handles GET /v1/groups?by=<dimension>. The default
// dimension is status.
func (s *Server) handleGetGroups(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		by = string(group.Status)
	}
	dim, err := group.ParseDimension(by)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if dim == group.EpicAndType {
		writeJSON(w, http.StatusOK, map[string]any{"by": dim, "groups": s.dash.Nested()})
		return
	}
	view, err := s.dash.Grouped(dim)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"by": dim, "groups": view})
}

// handleGetSummary handles GET /v1/summary.
func (s *Server) handleGetSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Summary())
}

// handleGetBoard handles GET /v1/board.
func (s *Server) handleGetBoard(w http.ResponseWriter, _ *http.Request) {
	pending := []string{}
	for _, t := range s.dash.Pending() {
		pending = append(pending, t.IssueKey)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"columns":  s.dash.Board(),
		"projects": s.dash.Projects(),
		"pending":  pending,
	})
}

// handleGetProjects handles GET /v1/projects.
func (s *Server) handleGetProjects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Projects())
}

// handleMove handles POST /v1/board/moves. A cross-column move answers 202
// with the pending transition unless ?wait=true, in which case the request
// blocks until the transition settles.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var drop transition.Drop
	if err := json.NewDecoder(r.Body).Decode(&drop); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if drop.From == "" || drop.To == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	t, err := s.dash.Move(r.Context(), drop)
	switch {
	case errors.Is(err, kanban.ErrUnknownColumn), errors.Is(err, kanban.ErrIndexOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, transition.ErrTransitionPending):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, transition.ErrControllerClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		// A reverted move is still a settled answer; the error rides in the body.
		_ = t.Wait(r.Context())
	}
	status := http.StatusOK
	if t.State() == transition.StatePending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, t)
}

// handleReload handles POST /v1/reload.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Reload(r.Context()); err != nil {
		if errors.Is(err, dashboard.ErrNoSource) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(s.dash.Issues()),
		"rejected": len(s.dash.Rejected()),
		"has_more": s.dash.HasMore(),
	})
}

// rejectedRecord is the JSON form of a normalize.RecordError.
type rejectedRecord struct {
	Index int    `json:"index"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error"`
}

// handleGetAttention handles GET /v1/attention.
func (s *Server) handleGetAttention(w http.ResponseWriter, _ *http.Request) {
	rejected := []rejectedRecord{}
	for _, r := range s.dash.Rejected() {
		rejected = append(rejected, rejectedRecord{Index: r.Index, Key: r.Key, Error: r.Err.Error()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attention": s.dash.Attention(),
		"rejected":  rejected,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
