package models

import (
	"math"

	"github.com/airpulse/airpulse/internal/nearby"
)

// NearbyLocation is a location in the nearby comparison list.
type NearbyLocation struct {
	ID        int64   `json:"id"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Distance  float64 `json:"distance"`
	AQI       int     `json:"aqi"`
	Level     string  `json:"level"`
	Color     string  `json:"color"`
	Estimated bool    `json:"estimated,omitempty"`
}

// NewNearbyLocations converts nearby entries. Distances are rounded to 0.1 km.
func NewNearbyLocations(entries []nearby.Entry) []NearbyLocation {
	out := make([]NearbyLocation, 0, len(entries))
	for _, e := range entries {
		out = append(out, NearbyLocation{
			ID:        e.Location.ID,
			City:      e.Location.City,
			State:     e.Location.State,
			Country:   e.Location.Country,
			Latitude:  e.Location.Latitude,
			Longitude: e.Location.Longitude,
			Distance:  math.Round(e.DistanceKm*10) / 10,
			AQI:       e.AQI,
			Level:     e.Level,
			Color:     e.Color,
			Estimated: e.Estimated,
		})
	}
	return out
}
