package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/api/models"
	"github.com/airpulse/airpulse/internal/api/response"
	"github.com/airpulse/airpulse/internal/store"
)

// maxAlertBodyBytes bounds the POST /api/alerts body.
const maxAlertBodyBytes = 4 << 10

// AlertPreferenceStore reads and updates the global alert preference.
type AlertPreferenceStore interface {
	GetOrDefaultAlertPreference(ctx context.Context) (*store.AlertPreference, error)
	UpsertAlertPreference(ctx context.Context, u store.AlertPreferenceUpdate) (*store.AlertPreference, error)
}

// AlertHandler handles the alert preference endpoints.
type AlertHandler struct {
	store  AlertPreferenceStore
	logger zerolog.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(store AlertPreferenceStore, logger zerolog.Logger) *AlertHandler {
	return &AlertHandler{store: store, logger: logger}
}

// GetAlertPreference handles GET /api/alerts. Defaults are returned until a
// preference has been saved.
func (h *AlertHandler) GetAlertPreference(w http.ResponseWriter, r *http.Request) {
	pref, err := h.store.GetOrDefaultAlertPreference(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.OK(w, r, models.NewAlertPreference(*pref))
}

// UpsertAlertPreference handles POST /api/alerts. Fields absent from the
// body keep their current value; an empty body is a no-op update.
func (h *AlertHandler) UpsertAlertPreference(w http.ResponseWriter, r *http.Request) {
	var input models.AlertPreferenceRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxAlertBodyBytes)).Decode(&input)
	if err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "Invalid alert data", nil)
		return
	}

	if fieldErrs := input.Validate(); len(fieldErrs) > 0 {
		response.BadRequest(w, r, "Invalid alert data", fieldErrs)
		return
	}

	pref, err := h.store.UpsertAlertPreference(r.Context(), input.Update())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info().
		Int("threshold", pref.Threshold).
		Bool("email", pref.EmailNotifications).
		Bool("push", pref.PushNotifications).
		Msg("alert preference updated")

	response.OK(w, r, models.NewAlertPreference(*pref))
}
