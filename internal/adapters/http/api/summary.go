package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/vitalrace/internal/domain/model"
	"github.com/okian/vitalrace/internal/domain/summary"
)

// SummaryDependencies defines the interface for box-plot summaries.
type SummaryDependencies interface {
	Summaries(ctx context.Context, metricID string, w summary.Window) ([]model.GroupSummary, error)
	Summary(ctx context.Context, metricID, groupID string, w summary.Window) (model.GroupSummary, error)
	DefaultWindow() summary.Window
}

// SummaryHandler handles summary requests.
type SummaryHandler struct {
	deps SummaryDependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps SummaryDependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleSummary handles GET /summary?metric=M[&group=G][&start=S&end=E].
// Without a group every group is summarised and empty ones are left out.
// start and end are minutes and default to the configured window.
func (h *SummaryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metricID, err := requiredString(q, "metric")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	window := h.deps.DefaultWindow()
	if window.StartMin, err = optionalFloat(q, "start", window.StartMin); err != nil {
		writeDomainError(w, err)
		return
	}
	if window.EndMin, err = optionalFloat(q, "end", window.EndMin); err != nil {
		writeDomainError(w, err)
		return
	}

	if groupID := strings.TrimSpace(q.Get("group")); groupID != "" {
		sum, err := h.deps.Summary(r.Context(), metricID, groupID, window)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
		return
	}

	sums, err := h.deps.Summaries(r.Context(), metricID, window)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sums)
}
