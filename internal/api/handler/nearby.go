package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/api/models"
	"github.com/airpulse/airpulse/internal/api/response"
	"github.com/airpulse/airpulse/internal/nearby"
)

// NearbyService builds nearby comparison lists.
type NearbyService interface {
	Nearby(ctx context.Context, locationID int64, radiusKm float64) ([]nearby.Entry, error)
}

// NearbyHandler handles the nearby comparison endpoint.
type NearbyHandler struct {
	service NearbyService
	logger  zerolog.Logger
}

// NewNearbyHandler creates a new NearbyHandler.
func NewNearbyHandler(service NearbyService, logger zerolog.Logger) *NearbyHandler {
	return &NearbyHandler{service: service, logger: logger}
}

// GetNearby handles GET /api/nearby/{locationId}?radiusKm=.
func (h *NearbyHandler) GetNearby(w http.ResponseWriter, r *http.Request) {
	id, ok := locationID(r)
	if !ok {
		response.BadRequest(w, r, detailInvalidLocationID, nil)
		return
	}

	var radius float64
	if raw := r.URL.Query().Get("radiusKm"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || !(parsed > 0) || math.IsInf(parsed, 1) {
			response.BadRequest(w, r, "radiusKm must be a positive number", []models.FieldError{
				{Field: "radiusKm", Message: "must be a positive number", Code: "INVALID"},
			})
			return
		}
		radius = parsed
	}

	entries, err := h.service.Nearby(r.Context(), id, radius)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.OK(w, r, models.NewNearbyLocations(entries))
}
