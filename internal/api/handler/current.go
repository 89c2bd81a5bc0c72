package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/api/models"
	"github.com/airpulse/airpulse/internal/api/response"
	"github.com/airpulse/airpulse/internal/refresh"
)

// CurrentService returns a location's current conditions.
type CurrentService interface {
	GetCurrent(ctx context.Context, locationID int64) (*refresh.Current, error)
}

// CurrentHandler handles current conditions.
type CurrentHandler struct {
	service CurrentService
	logger  zerolog.Logger
}

// NewCurrentHandler creates a new CurrentHandler.
func NewCurrentHandler(service CurrentService, logger zerolog.Logger) *CurrentHandler {
	return &CurrentHandler{service: service, logger: logger}
}

// GetCurrent handles GET /api/current/{locationId}.
func (h *CurrentHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	id, ok := locationID(r)
	if !ok {
		response.BadRequest(w, r, detailInvalidLocationID, nil)
		return
	}

	current, err := h.service.GetCurrent(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.OK(w, r, models.NewCurrent(current.Location, current.AQI, current.Weather))
}
