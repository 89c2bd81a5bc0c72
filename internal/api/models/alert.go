package models

import (
	"github.com/airpulse/airpulse/internal/aqi"
	"github.com/airpulse/airpulse/internal/store"
)

// AlertPreference is the global alert configuration. ID and CreatedAt are
// omitted until the record has been saved.
type AlertPreference struct {
	ID                 int64      `json:"id,omitempty"`
	Threshold          int        `json:"threshold"`
	EmailNotifications bool       `json:"emailNotifications"`
	PushNotifications  bool       `json:"pushNotifications"`
	DailySummary       bool       `json:"dailySummary"`
	CreatedAt          *Timestamp `json:"createdAt,omitempty"`
}

// AlertPreferenceRequest is the body of POST /api/alerts. Absent fields keep
// their current value.
type AlertPreferenceRequest struct {
	Threshold          *int  `json:"threshold,omitempty"`
	EmailNotifications *bool `json:"emailNotifications,omitempty"`
	PushNotifications  *bool `json:"pushNotifications,omitempty"`
	DailySummary       *bool `json:"dailySummary,omitempty"`
}

// Validate returns field errors for out-of-range values.
func (r AlertPreferenceRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Threshold != nil && (*r.Threshold < 0 || *r.Threshold > aqi.MaxIndex) {
		errs = append(errs, FieldError{
			Field:   "threshold",
			Message: "threshold must be between 0 and 500",
			Code:    "OUT_OF_RANGE",
		})
	}
	return errs
}

// Update converts the request into a store update.
func (r AlertPreferenceRequest) Update() store.AlertPreferenceUpdate {
	return store.AlertPreferenceUpdate{
		Threshold:          r.Threshold,
		EmailNotifications: r.EmailNotifications,
		PushNotifications:  r.PushNotifications,
		DailySummary:       r.DailySummary,
	}
}

// NewAlertPreference converts a stored or defaulted preference.
func NewAlertPreference(p store.AlertPreference) AlertPreference {
	return AlertPreference{
		ID:                 p.ID,
		Threshold:          p.Threshold,
		EmailNotifications: p.EmailNotifications,
		PushNotifications:  p.PushNotifications,
		DailySummary:       p.DailySummary,
		CreatedAt:          timestampPtr(p.CreatedAt),
	}
}
