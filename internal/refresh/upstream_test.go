package refresh_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airpulse/airpulse/internal/airquality"
	"github.com/airpulse/airpulse/internal/geo"
	"github.com/airpulse/airpulse/internal/refresh"
	"github.com/airpulse/airpulse/internal/weather"
)

type stubAirQuality struct {
	sample *airquality.Sample
	err    error
}

func (s stubAirQuality) Latest(context.Context, geo.Coordinates) (*airquality.Sample, error) {
	return s.sample, s.err
}

type stubWeather struct {
	obs *weather.Observation
	err error
}

func (s stubWeather) Current(context.Context, geo.Coordinates) (*weather.Observation, error) {
	return s.obs, s.err
}

func TestUpstream_FetchAirQuality(t *testing.T) {
	at := geo.Coordinates{Lat: 19.07, Lon: 72.87}

	t.Run("sample", func(t *testing.T) {
		u := refresh.NewUpstream(stubAirQuality{sample: pm25Sample(12)}, stubWeather{})
		sample, err := u.FetchAirQuality(context.Background(), at)
		require.NoError(t, err)
		assert.Equal(t, "Colaba", sample.Location)
	})

	t.Run("no results is not an error", func(t *testing.T) {
		u := refresh.NewUpstream(stubAirQuality{err: airquality.ErrNoResults}, stubWeather{})
		sample, err := u.FetchAirQuality(context.Background(), at)
		require.NoError(t, err)
		assert.Nil(t, sample)
	})

	t.Run("provider failure", func(t *testing.T) {
		u := refresh.NewUpstream(stubAirQuality{err: airquality.ErrProviderUnavailable}, stubWeather{})
		_, err := u.FetchAirQuality(context.Background(), at)
		assert.ErrorIs(t, err, airquality.ErrProviderUnavailable)
	})
}

func TestUpstream_FetchWeather(t *testing.T) {
	at := geo.Coordinates{Lat: 19.07, Lon: 72.87}

	u := refresh.NewUpstream(stubAirQuality{}, stubWeather{obs: hazeObservation()})
	obs, err := u.FetchWeather(context.Background(), at)
	require.NoError(t, err)
	assert.Equal(t, "haze", obs.Description)

	failing := errors.New("boom")
	u = refresh.NewUpstream(stubAirQuality{}, stubWeather{err: failing})
	_, err = u.FetchWeather(context.Background(), at)
	assert.ErrorIs(t, err, failing)
}
