package handler

import (
	"net/http"

	"tillpoint-pos-api/internal/cache"
	"tillpoint-pos-api/pkg/apierror"
	"tillpoint-pos-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ResourceHandler serves the last-known cached snapshots - the offline
// read path for products, customers and sales.
type ResourceHandler struct {
	cache *cache.SnapshotCache
}

// NewResourceHandler creates a new resource handler.
func NewResourceHandler(snapshots *cache.SnapshotCache) *ResourceHandler {
	return &ResourceHandler{cache: snapshots}
}

// GetSnapshot handles GET /api/v1/resources/{resource}
func (h *ResourceHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if !cache.KnownResource(resource) {
		response.Error(w, apierror.BadRequest("unknown resource: "+resource))
		return
	}

	data, err := h.cache.Raw(r.Context(), resource)
	if err == cache.ErrNoSnapshot {
		response.Error(w, apierror.NotFound("no snapshot for "+resource))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"resource": resource,
		"data":     data,
	})
}
