package store

import (
	"context"
	"errors"

	"github.com/airpulse/airpulse/internal/geo"
)

// Store errors.
var (
	ErrLocationNotFound        = errors.New("location not found")
	ErrReadingNotFound         = errors.New("aqi reading not found")
	ErrWeatherNotFound         = errors.New("weather snapshot not found")
	ErrAlertPreferenceNotFound = errors.New("alert preference not found")
	ErrInvalidCoordinates      = geo.ErrInvalidCoordinates
	ErrInvalidForecastHour     = errors.New("forecast hour out of range")
)

// ForecastHours is the number of points in a forecast batch.
const ForecastHours = 48

// Store defines the query and mutation surface for all entity kinds.
// Implementations return copies; callers never share mutable state with the store.
type Store interface {
	// CreateLocation assigns an id and creation time. Country defaults to India.
	CreateLocation(ctx context.Context, loc Location) (*Location, error)

	// GetLocation returns ErrLocationNotFound for unknown ids.
	GetLocation(ctx context.Context, id int64) (*Location, error)

	// GetLocationByCoordinates returns the first location (in insertion order)
	// whose degree distance to lat/lon is below tolerance.
	GetLocationByCoordinates(ctx context.Context, lat, lon, tolerance float64) (*Location, error)

	// ListLocations returns all locations in insertion order.
	ListLocations(ctx context.Context) ([]Location, error)

	// FindLocations matches query case-insensitively against city, state and
	// country. It never mutates.
	FindLocations(ctx context.Context, query string) ([]Location, error)

	// SearchLocations behaves like FindLocations but, when nothing matches,
	// creates and returns a demo location named after the query. The result
	// is never empty.
	SearchLocations(ctx context.Context, query string) ([]Location, error)

	CreateAqiReading(ctx context.Context, r AqiReading) (*AqiReading, error)
	GetLatestAqiReading(ctx context.Context, locationID int64) (*AqiReading, error)
	// GetAqiHistory returns at most limit readings, newest first.
	GetAqiHistory(ctx context.Context, locationID int64, limit int) ([]AqiReading, error)

	CreateWeatherSnapshot(ctx context.Context, w WeatherSnapshot) (*WeatherSnapshot, error)
	GetLatestWeatherSnapshot(ctx context.Context, locationID int64) (*WeatherSnapshot, error)

	// GetAlertPreference returns ErrAlertPreferenceNotFound until the first upsert.
	GetAlertPreference(ctx context.Context) (*AlertPreference, error)
	// GetOrDefaultAlertPreference returns the stored record or unsaved defaults.
	GetOrDefaultAlertPreference(ctx context.Context) (*AlertPreference, error)
	// UpsertAlertPreference merges u into the singleton record, creating it
	// with defaults first if needed.
	UpsertAlertPreference(ctx context.Context, u AlertPreferenceUpdate) (*AlertPreference, error)

	// GetForecast returns the location's points ordered by hour.
	GetForecast(ctx context.Context, locationID int64) ([]ForecastPoint, error)
	CreateForecastPoint(ctx context.Context, p ForecastPoint) (*ForecastPoint, error)
	ClearForecast(ctx context.Context, locationID int64) error
	// ReplaceForecast atomically deletes the location's points and inserts points.
	ReplaceForecast(ctx context.Context, locationID int64, points []ForecastPoint) ([]ForecastPoint, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close()
}

func validateForecastPoint(p ForecastPoint) error {
	if p.Hour < 0 || p.Hour >= ForecastHours {
		return ErrInvalidForecastHour
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
