// Package airquality provides access to upstream air quality measurements.
package airquality

import (
	"errors"
	"strings"
	"time"

	"github.com/airpulse/airpulse/internal/aqi"
	"github.com/airpulse/airpulse/internal/geo"
)

// Provider errors.
var (
	ErrNoResults           = errors.New("no air quality results near location")
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
)

// Default query parameters for latest-measurement lookups.
const (
	DefaultRadiusMeters = 25000
	DefaultLimit        = 1
)

// Parameter identifies a pollutant as reported by the upstream provider.
type Parameter string

const (
	ParameterPM25 Parameter = "pm25"
	ParameterPM10 Parameter = "pm10"
	ParameterO3   Parameter = "o3"
	ParameterNO2  Parameter = "no2"
	ParameterSO2  Parameter = "so2"
	ParameterCO   Parameter = "co"
)

// Query describes a latest-measurements lookup around a point.
type Query struct {
	Coordinates  geo.Coordinates
	RadiusMeters int
	Limit        int
}

// Measurement is a single pollutant value reported by a monitoring location.
type Measurement struct {
	Parameter   Parameter
	Value       float64
	Unit        string
	LastUpdated time.Time
}

// Sample is the latest set of measurements from one monitoring location.
type Sample struct {
	// Location is the upstream monitoring location name.
	Location string

	// City as reported upstream, may be empty.
	City string

	// Country code as reported upstream, may be empty.
	Country string

	Coordinates  geo.Coordinates
	Measurements []Measurement

	// FetchedAt is when this sample was retrieved from the provider.
	FetchedAt time.Time

	// Provider identifies the data source.
	Provider string
}

// Pollutants normalizes the sample into the six tracked pollutants.
// Unknown parameters are ignored and missing ones are reported as 0.
func (s *Sample) Pollutants() aqi.Pollutants {
	var p aqi.Pollutants
	for _, m := range s.Measurements {
		switch Parameter(strings.ToLower(string(m.Parameter))) {
		case ParameterPM25:
			p.PM25 = m.Value
		case ParameterPM10:
			p.PM10 = m.Value
		case ParameterO3:
			p.O3 = m.Value
		case ParameterNO2:
			p.NO2 = m.Value
		case ParameterSO2:
			p.SO2 = m.Value
		case ParameterCO:
			p.CO = m.Value
		}
	}
	return p
}
