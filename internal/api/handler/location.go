package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/api/models"
	"github.com/airpulse/airpulse/internal/api/response"
	"github.com/airpulse/airpulse/internal/store"
)

// LocationFinder searches stored locations.
type LocationFinder interface {
	FindLocations(ctx context.Context, query string) ([]store.Location, error)
	SearchLocations(ctx context.Context, query string) ([]store.Location, error)
}

// LocationResolver resolves coordinates to a stored location, creating one
// when needed.
type LocationResolver interface {
	ResolveLocationByCoordinates(ctx context.Context, lat, lon float64) (*store.Location, error)
}

// SearchFlags decides whether a search miss creates a location.
type SearchFlags interface {
	IsSearchSynthesisEnabled(ctx context.Context) bool
}

// LocationHandler handles location lookups.
type LocationHandler struct {
	finder   LocationFinder
	resolver LocationResolver
	flags    SearchFlags
	logger   zerolog.Logger
}

// NewLocationHandler creates a new LocationHandler. A nil flags value keeps
// create-on-miss search enabled.
func NewLocationHandler(finder LocationFinder, resolver LocationResolver, flags SearchFlags, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{finder: finder, resolver: resolver, flags: flags, logger: logger}
}

// SearchLocations handles GET /api/locations/search?q=. Only an absent or
// empty q is rejected; the value is searched as given.
func (h *LocationHandler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, r, "Query parameter 'q' is required", []models.FieldError{
			{Field: "q", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	search := h.finder.SearchLocations
	if h.flags != nil && !h.flags.IsSearchSynthesisEnabled(r.Context()) {
		search = h.finder.FindLocations
	}

	locations, err := search(r.Context(), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.OK(w, r, models.NewLocations(locations))
}

// ResolveCoordinates handles GET /api/locations/coords?lat=&lon=. The body is
// null when no location could be resolved.
func (h *LocationHandler) ResolveCoordinates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		response.BadRequest(w, r, detailInvalidCoordinates, nil)
		return
	}

	loc, err := h.resolver.ResolveLocationByCoordinates(r.Context(), lat, lon)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var body *models.Location
	if loc != nil {
		m := models.NewLocation(*loc)
		body = &m
	}
	response.OK(w, r, body)
}
