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

// HistorySource lists recent AQI readings.
type HistorySource interface {
	GetAqiHistory(ctx context.Context, locationID int64, limit int) ([]store.AqiReading, error)
}

// AQIHandler handles AQI history and health advice.
type AQIHandler struct {
	history HistorySource
	logger  zerolog.Logger
}

// NewAQIHandler creates a new AQIHandler.
func NewAQIHandler(history HistorySource, logger zerolog.Logger) *AQIHandler {
	return &AQIHandler{history: history, logger: logger}
}

// GetHistory handles GET /api/aqi/history/{locationId}?limit=. Readings are
// newest first; a missing or non-positive limit returns the default 10.
func (h *AQIHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := locationID(r)
	if !ok {
		response.BadRequest(w, r, detailInvalidLocationID, nil)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, r, "limit must be an integer", []models.FieldError{
				{Field: "limit", Message: "must be an integer", Code: "INVALID"},
			})
			return
		}
		limit = parsed
	}

	readings, err := h.history.GetAqiHistory(r.Context(), id, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.OK(w, r, models.NewAqiReadings(readings))
}

// GetRecommendations handles GET /api/health-recommendations?aqi=.
func (h *AQIHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	value, err := strconv.Atoi(r.URL.Query().Get("aqi"))
	if err != nil || value < 0 {
		response.BadRequest(w, r, "aqi must be a non-negative integer", []models.FieldError{
			{Field: "aqi", Message: "must be a non-negative integer", Code: "INVALID"},
		})
		return
	}

	response.OK(w, r, models.NewRecommendations(value))
}
