// Package handler provides HTTP handlers for the AirPulse API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/api/response"
	"github.com/airpulse/airpulse/internal/geo"
	"github.com/airpulse/airpulse/internal/store"
)

// Error details shared by several handlers.
const (
	detailLocationNotFound   = "Location not found"
	detailInvalidLocationID  = "locationId must be a positive integer"
	detailInvalidCoordinates = "Invalid coordinates"
	detailInternal           = "Internal server error"
)

// locationID parses the {locationId} path parameter.
func locationID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "locationId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeError maps domain errors to problem responses. Unexpected errors are
// logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrLocationNotFound):
		response.NotFound(w, r, detailLocationNotFound)
	case errors.Is(err, geo.ErrInvalidCoordinates):
		response.BadRequest(w, r, detailInvalidCoordinates, nil)
	default:
		logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, r, detailInternal)
	}
}
