package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/api/models"
	"github.com/airpulse/airpulse/internal/api/response"
	"github.com/airpulse/airpulse/internal/store"
)

// ForecastService returns and clears stored forecasts.
type ForecastService interface {
	Get(ctx context.Context, locationID int64) ([]store.ForecastPoint, error)
	Clear(ctx context.Context, locationID int64) error
}

// ForecastHandler handles forecast endpoints.
type ForecastHandler struct {
	service ForecastService
	logger  zerolog.Logger
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(service ForecastService, logger zerolog.Logger) *ForecastHandler {
	return &ForecastHandler{service: service, logger: logger}
}

// GetForecast handles GET /api/forecast/{locationId}.
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	id, ok := locationID(r)
	if !ok {
		response.BadRequest(w, r, detailInvalidLocationID, nil)
		return
	}

	points, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.OK(w, r, models.NewForecast(points))
}

// ClearForecast handles DELETE /api/forecast/{locationId}. The next GET
// generates a fresh forecast.
func (h *ForecastHandler) ClearForecast(w http.ResponseWriter, r *http.Request) {
	id, ok := locationID(r)
	if !ok {
		response.BadRequest(w, r, detailInvalidLocationID, nil)
		return
	}

	if err := h.service.Clear(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.NoContent(w, r)
}
