// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/vitalrace/internal/adapters/player"
	service "github.com/okian/vitalrace/internal/app"
	"github.com/okian/vitalrace/internal/domain/model"
	"github.com/okian/vitalrace/internal/domain/summary"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Subjects(ctx context.Context) []string
	Metrics(ctx context.Context) []string
	Groups(ctx context.Context) map[string][]string

	Snapshot(ctx context.Context, metricID string, progress float64) (model.CohortSnapshot, error)
	Summaries(ctx context.Context, metricID string, w summary.Window) ([]model.GroupSummary, error)
	Summary(ctx context.Context, metricID, groupID string, w summary.Window) (model.GroupSummary, error)
	DefaultWindow() summary.Window

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	StopPlayback(ctx context.Context) error
	Seek(ctx context.Context, progress float64) error
	SelectMetric(ctx context.Context, metricID string) error
	PlaybackStatus() player.Status
	LatestFrame() model.CohortSnapshot
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	catalogHandler  *CatalogHandler
	snapshotHandler *SnapshotHandler
	summaryHandler  *SummaryHandler
	playbackHandler *PlaybackHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		catalogHandler:  NewCatalogHandler(deps),
		snapshotHandler: NewSnapshotHandler(deps),
		summaryHandler:  NewSummaryHandler(deps),
		playbackHandler: NewPlaybackHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Get("/catalog", s.catalogHandler.HandleCatalog)
	r.Get("/snapshot", s.snapshotHandler.HandleSnapshot)
	r.Get("/summary", s.summaryHandler.HandleSummary)

	r.Route("/playback", func(r chi.Router) {
		r.Get("/", s.playbackHandler.HandleStatus)
		r.Post("/seek", s.playbackHandler.HandleSeek)
		r.Post("/metric", s.playbackHandler.HandleMetric)
		r.Post("/{action}", s.playbackHandler.HandleAction)
	})
}

// Router returns a chi router with every route registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain and service errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrUnknownKey):
		writeError(w, http.StatusNotFound, "unknown_key", err)
	case errors.Is(err, model.ErrEmptyPool):
		writeError(w, http.StatusNotFound, "empty_pool", err)
	case errors.Is(err, model.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err)
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNoMetric):
		writeError(w, http.StatusConflict, "no_metric", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
