// Package refresh keeps stored AQI readings and weather snapshots fresh by
// consulting upstream providers when the stored values are too old.
package refresh

import (
	"context"
	"errors"

	"github.com/airpulse/airpulse/internal/airquality"
	"github.com/airpulse/airpulse/internal/geo"
	"github.com/airpulse/airpulse/internal/weather"
)

// DataProvider is the upstream surface the orchestrator depends on.
type DataProvider interface {
	// FetchAirQuality returns the nearest sample, or nil when nothing is in range.
	FetchAirQuality(ctx context.Context, at geo.Coordinates) (*airquality.Sample, error)

	// FetchWeather returns current weather at the point.
	FetchWeather(ctx context.Context, at geo.Coordinates) (*weather.Observation, error)
}

// AirQualitySource looks up the latest sample near a point.
type AirQualitySource interface {
	Latest(ctx context.Context, at geo.Coordinates) (*airquality.Sample, error)
}

// WeatherSource looks up current weather at a point.
type WeatherSource interface {
	Current(ctx context.Context, at geo.Coordinates) (*weather.Observation, error)
}

// Upstream adapts the air quality and weather services to DataProvider.
type Upstream struct {
	airQuality AirQualitySource
	weather    WeatherSource
}

// NewUpstream creates a DataProvider backed by the given services.
func NewUpstream(aq AirQualitySource, wx WeatherSource) *Upstream {
	return &Upstream{airQuality: aq, weather: wx}
}

// FetchAirQuality implements DataProvider.
func (u *Upstream) FetchAirQuality(ctx context.Context, at geo.Coordinates) (*airquality.Sample, error) {
	sample, err := u.airQuality.Latest(ctx, at)
	if errors.Is(err, airquality.ErrNoResults) {
		return nil, nil
	}
	return sample, err
}

// FetchWeather implements DataProvider.
func (u *Upstream) FetchWeather(ctx context.Context, at geo.Coordinates) (*weather.Observation, error) {
	return u.weather.Current(ctx, at)
}

// Ensure Upstream implements DataProvider.
var _ DataProvider = (*Upstream)(nil)
