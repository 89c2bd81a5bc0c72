package models

import (
	"github.com/airpulse/airpulse/internal/aqi"
	"github.com/airpulse/airpulse/internal/store"
)

// Pollutants is the six-field concentration snapshot of a reading.
type Pollutants struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	O3   float64 `json:"o3"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	CO   float64 `json:"co"`
}

// AqiReading is a stored AQI measurement.
type AqiReading struct {
	ID               int64      `json:"id"`
	LocationID       int64      `json:"locationId"`
	AQI              int        `json:"aqi"`
	Level            string     `json:"level"`
	PrimaryPollutant string     `json:"primaryPollutant"`
	Pollutants       Pollutants `json:"pollutants"`
	Timestamp        Timestamp  `json:"timestamp"`
}

// WeatherSnapshot is a stored weather observation.
type WeatherSnapshot struct {
	ID          int64     `json:"id"`
	LocationID  int64     `json:"locationId"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	Visibility  float64   `json:"visibility"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Timestamp   Timestamp `json:"timestamp"`
}

// Current is the response of GET /api/current/{locationId}. AQI and Weather
// are null when no value is stored and the upstream could not provide one.
type Current struct {
	Location Location         `json:"location"`
	AQI      *AqiReading      `json:"aqi"`
	Weather  *WeatherSnapshot `json:"weather"`
}

func newPollutants(p aqi.Pollutants) Pollutants {
	return Pollutants{PM25: p.PM25, PM10: p.PM10, O3: p.O3, NO2: p.NO2, SO2: p.SO2, CO: p.CO}
}

// NewAqiReading converts a stored reading.
func NewAqiReading(r store.AqiReading) AqiReading {
	return AqiReading{
		ID:               r.ID,
		LocationID:       r.LocationID,
		AQI:              r.AQI,
		Level:            r.Level,
		PrimaryPollutant: r.PrimaryPollutant,
		Pollutants:       newPollutants(r.Pollutants),
		Timestamp:        Timestamp(r.Timestamp),
	}
}

// NewAqiReadings converts readings, preserving order. Never nil.
func NewAqiReadings(rs []store.AqiReading) []AqiReading {
	out := make([]AqiReading, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewAqiReading(r))
	}
	return out
}

// NewWeatherSnapshot converts a stored snapshot.
func NewWeatherSnapshot(w store.WeatherSnapshot) WeatherSnapshot {
	return WeatherSnapshot{
		ID:          w.ID,
		LocationID:  w.LocationID,
		Temperature: w.Temperature,
		Humidity:    w.Humidity,
		WindSpeed:   w.WindSpeed,
		Visibility:  w.Visibility,
		Description: w.Description,
		Icon:        w.Icon,
		Timestamp:   Timestamp(w.Timestamp),
	}
}

// NewCurrent builds the current conditions response.
func NewCurrent(loc store.Location, reading *store.AqiReading, snapshot *store.WeatherSnapshot) Current {
	c := Current{Location: NewLocation(loc)}
	if reading != nil {
		r := NewAqiReading(*reading)
		c.AQI = &r
	}
	if snapshot != nil {
		w := NewWeatherSnapshot(*snapshot)
		c.Weather = &w
	}
	return c
}
