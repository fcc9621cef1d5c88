package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/ai"
	"github.com/spigell/laborconnect/internal/filtering"
	"github.com/spigell/laborconnect/internal/laborer"
	"github.com/spigell/laborconnect/internal/metrics"
	"github.com/spigell/laborconnect/internal/selection"
)

const (
	codeBadRequest    = "bad_request"
	codeEmptyQuery    = "empty_query"
	codeNotFound      = "laborer_not_found"
	codeMatchRunning  = "match_in_progress"
	codeProviderError = "advisor_provider_error"
	codeUnavailable   = "unavailable"
	codeInternalError = "internal_error"
)

// catalog is implemented by stores that carry their own skill chip list.
type catalog interface {
	Catalog() []string
}

// Server exposes the directory, filters and selection controller over JSON.
type Server struct {
	store      laborer.Store
	controller *selection.Controller
	defaults   filtering.SearchFilters
	logger     *zap.Logger
}

func NewServer(store laborer.Store, controller *selection.Controller, defaults filtering.SearchFilters, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:      store,
		controller: controller,
		defaults:   defaults,
		logger:     logger,
	}
}

// Router builds the chi router with logging, recovery and metrics middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/laborers", s.listLaborers)
		r.Get("/skills", s.listSkills)
		r.Get("/markers", s.listMarkers)

		r.Get("/selection", s.getSelection)
		r.Put("/selection/{id}", s.putSelection)
		r.Delete("/selection", s.deleteSelection)

		r.Post("/match", s.match)
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listResponse struct {
	Items   []*laborer.Laborer `json:"items"`
	Count   int                `json:"count"`
	Filters filtersView        `json:"filters"`
}

// filtersView is the JSON form of the applied filters. An unbounded max rate
// is rendered as null.
type filtersView struct {
	MaxRate   *float64 `json:"maxRate"`
	MinRating float64  `json:"minRating"`
	Skills    []string `json:"skills"`
}

func newFiltersView(f filtering.SearchFilters) filtersView {
	view := filtersView{MinRating: f.MinRating, Skills: f.Skills}
	if !math.IsInf(f.MaxRate, 1) {
		maxRate := f.MaxRate
		view.MaxRate = &maxRate
	}
	return view
}

type selectionResponse struct {
	State   selection.State  `json:"state"`
	Laborer *laborer.Laborer `json:"laborer,omitempty"`
}

type matchRequest struct {
	Query string `json:"query"`
}

type matchResponse struct {
	Outcome selection.Outcome `json:"outcome"`
	selectionResponse
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listLaborers handles GET /api/laborers.
func (s *Server) listLaborers(w http.ResponseWriter, r *http.Request) {
	filtered, filters, ok := s.filtered(w, r)
	if !ok {
		return
	}

	items := filtered.Items
	if items == nil {
		items = []*laborer.Laborer{}
	}
	s.writeJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items), Filters: newFiltersView(filters)})
}

// listSkills handles GET /api/skills.
func (s *Server) listSkills(w http.ResponseWriter, r *http.Request) {
	if c, ok := s.store.(catalog); ok {
		s.writeJSON(w, http.StatusOK, c.Catalog())
		return
	}

	laborers, err := s.store.Laborers(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, laborers.Skills())
}

// listMarkers handles GET /api/markers with the same filters as the list.
func (s *Server) listMarkers(w http.ResponseWriter, r *http.Request) {
	filtered, _, ok := s.filtered(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.controller.Markers(filtered))
}

func (s *Server) getSelection(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.selection(r.Context()))
}

func (s *Server) putSelection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.controller.SelectByID(r.Context(), id); err != nil {
		if errors.Is(err, selection.ErrUnknownLaborer) {
			s.writeError(w, http.StatusNotFound, codeNotFound, "laborer "+strconv.Quote(id)+" not found")
			return
		}
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.selection(r.Context()))
}

func (s *Server) deleteSelection(w http.ResponseWriter, r *http.Request) {
	s.controller.Clear()
	s.writeJSON(w, http.StatusOK, s.selection(r.Context()))
}

// match handles POST /api/match.
func (s *Server) match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := s.controller.Match(r.Context(), req.Query)
	switch {
	case errors.Is(err, ai.ErrEmptyQuery):
		s.writeError(w, http.StatusBadRequest, codeEmptyQuery, ai.GuidanceMessage)
		return
	case outcome == selection.OutcomeInProgress:
		s.writeError(w, http.StatusConflict, codeMatchRunning, "a smart match is already running")
		return
	case outcome == selection.OutcomeDiscarded:
		s.writeError(w, http.StatusServiceUnavailable, codeUnavailable, "server is shutting down")
		return
	case outcome == selection.OutcomeFailed:
		s.logger.Warn("smart match failed", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, codeProviderError, "smart match provider failed")
		return
	case err != nil:
		s.internalError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, matchResponse{Outcome: outcome, selectionResponse: s.selection(r.Context())})
}

func (s *Server) filtered(w http.ResponseWriter, r *http.Request) (*laborer.Laborers, filtering.SearchFilters, bool) {
	query, filters, err := ParseFilters(r, s.defaults)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return nil, filters, false
	}

	laborers, err := s.store.Laborers(r.Context())
	if err != nil {
		s.internalError(w, err)
		return nil, filters, false
	}

	filtered, _ := filtering.Run(filtering.Steps(query, filters), laborers, s.logger)
	return filtered, filters, true
}

func (s *Server) selection(ctx context.Context) selectionResponse {
	resp := selectionResponse{State: s.controller.Snapshot()}
	if l, ok := s.controller.Selected(ctx); ok {
		resp.Laborer = l
	}
	return resp
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("internal error", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// writeJSON encodes v before touching the response so an encoding failure
// still produces a well-formed 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("encoding response", zap.Error(err), zap.Int("status", status))
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Code: codeInternalError, Message: "internal error"})
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Code: code, Message: message})
}
