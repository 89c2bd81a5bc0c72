// Package store holds the authoritative state of the dashboard: locations,
// AQI readings, weather snapshots, forecasts and the alert preference.
package store

import (
	"math/rand/v2"
	"time"

	"github.com/airpulse/airpulse/internal/aqi"
	"github.com/airpulse/airpulse/internal/geo"
)

// DefaultCountry is assigned to locations created without a country.
const DefaultCountry = "India"

// Alert preference defaults.
const (
	DefaultAlertThreshold     = 100
	DefaultEmailNotifications = true
	DefaultPushNotifications  = false
	DefaultDailySummary       = true
)

// DefaultHistoryLimit is used by GetAqiHistory when limit <= 0.
const DefaultHistoryLimit = 10

// DefaultCoordinateTolerance is the lookup radius in degrees (~1 km).
const DefaultCoordinateTolerance = 0.01

// Demo fallback centre for locations synthesized by SearchLocations (Mumbai).
var searchFallbackCenter = geo.Coordinates{Lat: 19.0760, Lon: 72.8777}

// Location is a named place with coordinates.
type Location struct {
	ID        int64
	City      string
	State     string
	Country   string
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
}

// Coordinates returns the location's point.
func (l Location) Coordinates() geo.Coordinates {
	return geo.Coordinates{Lat: l.Latitude, Lon: l.Longitude}
}

// AqiReading is an immutable AQI measurement for a location.
type AqiReading struct {
	ID               int64
	LocationID       int64
	AQI              int
	Level            string
	PrimaryPollutant string
	Pollutants       aqi.Pollutants
	Timestamp        time.Time
}

// WeatherSnapshot is an immutable weather observation for a location.
type WeatherSnapshot struct {
	ID          int64
	LocationID  int64
	Temperature float64 // °C
	Humidity    int     // %
	WindSpeed   float64 // km/h
	Visibility  float64 // km
	Description string
	Icon        string
	Timestamp   time.Time
}

// ForecastPoint is one hour of a 48-hour synthetic forecast.
type ForecastPoint struct {
	ID             int64
	LocationID     int64
	Hour           int
	PredictedAQI   int
	PredictedLevel string
	Timestamp      time.Time
}

// AlertPreference is the single global alert configuration record.
// An ID of 0 means the record has not been persisted yet.
type AlertPreference struct {
	ID                 int64
	Threshold          int
	EmailNotifications bool
	PushNotifications  bool
	DailySummary       bool
	CreatedAt          time.Time
}

// AlertPreferenceUpdate carries the fields of a partial upsert. Nil fields are
// left unchanged (or defaulted when the record is created).
type AlertPreferenceUpdate struct {
	Threshold          *int
	EmailNotifications *bool
	PushNotifications  *bool
	DailySummary       *bool
}

// DefaultAlertPreference returns an unsaved preference with default values.
func DefaultAlertPreference() AlertPreference {
	return AlertPreference{
		Threshold:          DefaultAlertThreshold,
		EmailNotifications: DefaultEmailNotifications,
		PushNotifications:  DefaultPushNotifications,
		DailySummary:       DefaultDailySummary,
	}
}

// Apply merges the non-nil fields of u into p.
func (u AlertPreferenceUpdate) Apply(p *AlertPreference) {
	if u.Threshold != nil {
		p.Threshold = *u.Threshold
	}
	if u.EmailNotifications != nil {
		p.EmailNotifications = *u.EmailNotifications
	}
	if u.PushNotifications != nil {
		p.PushNotifications = *u.PushNotifications
	}
	if u.DailySummary != nil {
		p.DailySummary = *u.DailySummary
	}
}

// validateLocation normalizes defaults and checks coordinates.
func validateLocation(loc *Location) error {
	if loc.Country == "" {
		loc.Country = DefaultCountry
	}
	return loc.Coordinates().Validate()
}

// synthesizeLocation builds the demo location created when a search has no
// matches: named after the query and scattered ±0.05° around Mumbai.
func synthesizeLocation(query string, rnd *rand.Rand) Location {
	return Location{
		City:      query,
		State:     DefaultCountry,
		Country:   DefaultCountry,
		Latitude:  searchFallbackCenter.Lat + (rnd.Float64()-0.5)*0.1,
		Longitude: searchFallbackCenter.Lon + (rnd.Float64()-0.5)*0.1,
	}
}

// seedLocations is the demo data loaded into a fresh memory store.
func seedLocations() []Location {
	return []Location{
		{City: "Mumbai", State: "Maharashtra", Country: DefaultCountry, Latitude: 19.0760, Longitude: 72.8777},
	}
}
