package api

import (
	"context"
	"net/http"
)

// CatalogDependencies lists what the catalog endpoint reads.
type CatalogDependencies interface {
	Subjects(ctx context.Context) []string
	Metrics(ctx context.Context) []string
	Groups(ctx context.Context) map[string][]string
}

// CatalogHandler handles catalog requests.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

type catalogResponse struct {
	Subjects []string            `json:"subjects"`
	Metrics  []string            `json:"metrics"`
	Groups   map[string][]string `json:"groups"`
}

// HandleCatalog handles GET /catalog requests.
func (h *CatalogHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, catalogResponse{
		Subjects: nonNil(h.deps.Subjects(ctx)),
		Metrics:  nonNil(h.deps.Metrics(ctx)),
		Groups:   h.deps.Groups(ctx),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
