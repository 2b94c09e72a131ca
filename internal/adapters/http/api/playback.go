package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/vitalrace/internal/adapters/player"
	"github.com/okian/vitalrace/internal/domain/model"
)

// PlaybackDependencies defines the playback controls.
type PlaybackDependencies interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	StopPlayback(ctx context.Context) error
	Seek(ctx context.Context, progress float64) error
	SelectMetric(ctx context.Context, metricID string) error
	PlaybackStatus() player.Status
	LatestFrame() model.CohortSnapshot
}

// PlaybackHandler handles playback requests.
type PlaybackHandler struct {
	deps PlaybackDependencies
}

// NewPlaybackHandler creates a new playback handler.
func NewPlaybackHandler(deps PlaybackDependencies) *PlaybackHandler {
	return &PlaybackHandler{deps: deps}
}

type playbackResponse struct {
	Status player.Status        `json:"status"`
	Frame  model.CohortSnapshot `json:"frame"`
}

// HandleStatus handles GET /playback requests.
func (h *PlaybackHandler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.writeStatus(w)
}

// HandleAction handles POST /playback/{play|pause|stop}.
func (h *PlaybackHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	switch action := chi.URLParam(r, "action"); action {
	case "play":
		err = h.deps.Play(ctx)
	case "pause":
		err = h.deps.Pause(ctx)
	case "stop":
		err = h.deps.StopPlayback(ctx)
	default:
		writeError(w, http.StatusNotFound, "unknown_action", fmt.Errorf("unknown playback action %q", action))
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeStatus(w)
}

// HandleSeek handles POST /playback/seek?progress=P.
func (h *PlaybackHandler) HandleSeek(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if _, err := requiredString(q, "progress"); err != nil {
		writeDomainError(w, err)
		return
	}
	progress, err := optionalFloat(q, "progress", 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.deps.Seek(r.Context(), progress); err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeStatus(w)
}

// HandleMetric handles POST /playback/metric?metric=M.
func (h *PlaybackHandler) HandleMetric(w http.ResponseWriter, r *http.Request) {
	metricID, err := requiredString(r.URL.Query(), "metric")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.deps.SelectMetric(r.Context(), metricID); err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeStatus(w)
}

func (h *PlaybackHandler) writeStatus(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, playbackResponse{
		Status: h.deps.PlaybackStatus(),
		Frame:  h.deps.LatestFrame(),
	})
}
