package openaq_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airpulse/airpulse/internal/airquality"
	"github.com/airpulse/airpulse/internal/airquality/openaq"
	"github.com/airpulse/airpulse/internal/geo"
)

var mumbai = geo.Coordinates{Lat: 19.076, Lon: 72.8777}

func TestClient_FetchLatest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "19.076,72.8777", r.URL.Query().Get("coordinates"))
		assert.Equal(t, "25000", r.URL.Query().Get("radius"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))

		response := map[string]interface{}{
			"meta": map[string]int{"found": 1},
			"results": []map[string]interface{}{
				{
					"location": "Bandra Kurla Complex",
					"city":     "Mumbai",
					"country":  "IN",
					"coordinates": map[string]float64{
						"latitude":  19.0654,
						"longitude": 72.8626,
					},
					"measurements": []map[string]interface{}{
						{"parameter": "pm25", "value": 42.5, "unit": "µg/m³", "lastUpdated": "2024-01-15T08:00:00+00:00"},
						{"parameter": "PM10", "value": 80, "unit": "µg/m³", "lastUpdated": "2024-01-15T08:00:00+00:00"},
						{"parameter": "bc", "value": 3, "unit": "µg/m³", "lastUpdated": "2024-01-15T08:00:00+00:00"},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    server.URL + "/",
		APIKey:     "secret",
		HTTPClient: http.DefaultClient,
	})

	samples, err := client.FetchLatest(context.Background(), airquality.Query{Coordinates: mumbai})
	require.NoError(t, err)
	require.Len(t, samples, 1)

	s := samples[0]
	assert.Equal(t, "Bandra Kurla Complex", s.Location)
	assert.Equal(t, "IN", s.Country)
	assert.Equal(t, openaq.ProviderName, s.Provider)
	assert.InDelta(t, 19.0654, s.Coordinates.Lat, 1e-9)
	require.Len(t, s.Measurements, 3)
	assert.Equal(t, airquality.ParameterPM10, s.Measurements[1].Parameter)
	assert.False(t, s.Measurements[0].LastUpdated.IsZero())

	p := s.Pollutants()
	assert.Equal(t, 42.5, p.PM25)
	assert.Equal(t, 80.0, p.PM10)
	assert.Zero(t, p.O3)
}

func TestClient_FetchLatest_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meta":{"found":0},"results":[]}`))
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{BaseURL: server.URL, HTTPClient: http.DefaultClient})

	samples, err := client.FetchLatest(context.Background(), airquality.Query{Coordinates: mumbai, RadiusMeters: 1000, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestClient_FetchLatest_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{BaseURL: server.URL, HTTPClient: http.DefaultClient})

	_, err := client.FetchLatest(context.Background(), airquality.Query{Coordinates: mumbai})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_FetchLatest_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{BaseURL: server.URL, HTTPClient: http.DefaultClient})

	_, err := client.FetchLatest(context.Background(), airquality.Query{Coordinates: mumbai})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_Name(t *testing.T) {
	client := openaq.NewClient(openaq.ClientConfig{})
	assert.Equal(t, "openaq", client.Name())
}
