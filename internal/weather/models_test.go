package weather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/airpulse/airpulse/internal/weather"
)

func TestObservation_WindSpeedKmh(t *testing.T) {
	tests := []struct {
		name      string
		windSpeed float64
		expected  float64
	}{
		{"calm", 0, 0},
		{"light breeze", 2.5, 9},
		{"strong", 10, 36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &weather.Observation{WindSpeed: tt.windSpeed}
			assert.InDelta(t, tt.expected, obs.WindSpeedKmh(), 1e-9)
		})
	}
}

func TestObservation_VisibilityKm(t *testing.T) {
	assert.Equal(t, 10.0, (&weather.Observation{}).VisibilityKm())
	assert.Equal(t, 4.5, (&weather.Observation{Visibility: 4500}).VisibilityKm())
	assert.Equal(t, 10.0, (&weather.Observation{Visibility: 10000}).VisibilityKm())
}

func TestObservation_Place(t *testing.T) {
	tests := []struct {
		name     string
		obs      weather.Observation
		expected weather.Place
	}{
		{
			name:     "india",
			obs:      weather.Observation{Locality: "Thane", Country: "IN"},
			expected: weather.Place{City: "Thane", State: "India", Country: "India"},
		},
		{
			name:     "elsewhere",
			obs:      weather.Observation{Locality: "Colombo", Country: "LK"},
			expected: weather.Place{City: "Colombo", State: "LK", Country: "India"},
		},
		{
			name:     "unnamed ocean point",
			obs:      weather.Observation{},
			expected: weather.Place{City: "Unknown", State: "Unknown", Country: "India"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.obs.Place())
		})
	}
}
