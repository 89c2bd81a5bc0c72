package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/airpulse/airpulse/internal/geo"
)

func TestCoordinates_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       geo.Coordinates
		wantErr bool
	}{
		{"mumbai", geo.Coordinates{Lat: 19.076, Lon: 72.8777}, false},
		{"poles and antimeridian", geo.Coordinates{Lat: -90, Lon: 180}, false},
		{"lat too high", geo.Coordinates{Lat: 90.1, Lon: 0}, true},
		{"lon too low", geo.Coordinates{Lat: 0, Lon: -180.5}, true},
		{"nan", geo.Coordinates{Lat: math.NaN(), Lon: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHaversine(t *testing.T) {
	mumbai := geo.Coordinates{Lat: 19.0760, Lon: 72.8777}
	pune := geo.Coordinates{Lat: 18.5204, Lon: 73.8567}

	d := geo.Haversine(mumbai, pune)
	assert.InDelta(t, 120, d, 5)
	assert.Equal(t, 0.0, geo.Haversine(mumbai, mumbai))
}

func TestDegreeDistance(t *testing.T) {
	d := geo.DegreeDistance(geo.Coordinates{Lat: 0, Lon: 0}, geo.Coordinates{Lat: 0.003, Lon: 0.004})
	assert.InDelta(t, 0.005, d, 1e-9)
}
