package api

import (
	"context"
	"net/http"

	"github.com/okian/vitalrace/internal/domain/model"
)

// SnapshotDependencies defines the interface for one-off race frames.
type SnapshotDependencies interface {
	Snapshot(ctx context.Context, metricID string, progress float64) (model.CohortSnapshot, error)
}

// SnapshotHandler handles snapshot requests.
type SnapshotHandler struct {
	deps SnapshotDependencies
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(deps SnapshotDependencies) *SnapshotHandler {
	return &SnapshotHandler{deps: deps}
}

// HandleSnapshot handles GET /snapshot?metric=M&progress=P requests.
// Progress defaults to 1, the end of the race.
func (h *SnapshotHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metricID, err := requiredString(q, "metric")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	progress, err := optionalFloat(q, "progress", 1)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	snap, err := h.deps.Snapshot(r.Context(), metricID, progress)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
