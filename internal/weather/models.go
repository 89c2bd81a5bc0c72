package weather

import (
	"errors"
	"time"

	"github.com/airpulse/airpulse/internal/geo"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
)

// DefaultVisibilityMeters is assumed when the provider omits visibility.
const DefaultVisibilityMeters = 10000

// placeCountry is recorded as the country of every resolved place.
const placeCountry = "India"

// msToKmh converts metres per second to kilometres per hour.
const msToKmh = 3.6

// Observation represents current weather at a point, in provider units.
type Observation struct {
	Coordinates geo.Coordinates

	// Temperature in Celsius
	Temperature float64

	// Humidity percentage (0-100)
	Humidity int

	// WindSpeed in m/s
	WindSpeed float64

	// Visibility in meters, 0 when not reported
	Visibility float64

	Description string
	Icon        string

	// Locality is the place name the provider resolved the point to.
	Locality string

	// Country is the ISO 3166 alpha-2 code, may be empty.
	Country string

	// Timestamps
	ObservedAt time.Time
	FetchedAt  time.Time
}

// WindSpeedKmh returns the wind speed in km/h.
func (o *Observation) WindSpeedKmh() float64 {
	return o.WindSpeed * msToKmh
}

// VisibilityKm returns the visibility in km, defaulting to 10 km when the
// provider did not report it.
func (o *Observation) VisibilityKm() float64 {
	if o.Visibility <= 0 {
		return DefaultVisibilityMeters / 1000.0
	}
	return o.Visibility / 1000
}

// Place describes the administrative names for a resolved point.
type Place struct {
	City    string
	State   string
	Country string
}

// Place derives location names from the observation. Points in India use
// the country name as state; elsewhere the country code stands in.
func (o *Observation) Place() Place {
	city := o.Locality
	if city == "" {
		city = "Unknown"
	}

	state := o.Country
	switch state {
	case "IN":
		state = placeCountry
	case "":
		state = "Unknown"
	}

	return Place{City: city, State: state, Country: placeCountry}
}
