package handler

import (
	"context"
	"net/http"

	"github.com/airpulse/airpulse/internal/api/models"
	"github.com/airpulse/airpulse/internal/api/response"
	"github.com/airpulse/airpulse/internal/featureflags"
)

// FlagService lists feature flags and drops cached values.
type FlagService interface {
	GetAllFlags(ctx context.Context) map[string]*featureflags.Flag
	InvalidateCache()
}

// CacheInvalidator is a cache that can be dropped on demand.
type CacheInvalidator interface {
	InvalidateCache()
}

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service FlagService
	caches  []CacheInvalidator
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler. caches are
// cleared together with the flag snapshot.
func NewFeatureFlagsHandler(service FlagService, caches ...CacheInvalidator) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, caches: caches}
}

// ListFeatureFlags handles GET /api/ops/flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, models.NewFeatureFlags(h.service.GetAllFlags(r.Context())))
}

// InvalidateCache handles POST /api/ops/flags/invalidate so that flags
// changed in the database take effect before the snapshot expires. Provider
// caches are dropped as well, since flags such as cached_only_current change
// what they should hold.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	for _, c := range h.caches {
		c.InvalidateCache()
	}
	response.NoContent(w, r)
}
