package store_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airpulse/airpulse/internal/aqi"
	"github.com/airpulse/airpulse/internal/store"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	clock := &stepClock{t: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)}
	return store.NewMemoryStore(store.MemoryConfig{
		Now:  clock.Now,
		Rand: rand.New(rand.NewPCG(1, 2)),
		Seed: true,
	})
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestMemoryStore_SeededLocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loc, err := s.GetLocation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", loc.City)
	assert.Equal(t, "India", loc.Country)

	_, err = s.GetLocation(ctx, 99)
	assert.ErrorIs(t, err, store.ErrLocationNotFound)
}

func TestMemoryStore_CreateLocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loc, err := s.CreateLocation(ctx, store.Location{City: "Pune", State: "Maharashtra", Latitude: 18.52, Longitude: 73.85})
	require.NoError(t, err)
	assert.Equal(t, int64(2), loc.ID)
	assert.Equal(t, store.DefaultCountry, loc.Country)
	assert.False(t, loc.CreatedAt.IsZero())

	_, err = s.CreateLocation(ctx, store.Location{City: "Nowhere", Latitude: 91, Longitude: 0})
	assert.ErrorIs(t, err, store.ErrInvalidCoordinates)

	all, err := s.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Mumbai", all[0].City)
	assert.Equal(t, "Pune", all[1].City)
}

func TestMemoryStore_GetLocationByCoordinates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loc, err := s.GetLocationByCoordinates(ctx, 19.08, 72.88, store.DefaultCoordinateTolerance)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loc.ID)

	_, err = s.GetLocationByCoordinates(ctx, 19.2, 72.88, store.DefaultCoordinateTolerance)
	assert.ErrorIs(t, err, store.ErrLocationNotFound)
}

func TestMemoryStore_SearchLocations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("hit is case-insensitive", func(t *testing.T) {
		results, err := s.SearchLocations(ctx, "mUm")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Mumbai", results[0].City)
	})

	t.Run("matches state", func(t *testing.T) {
		results, err := s.SearchLocations(ctx, "maha")
		require.NoError(t, err)
		require.Len(t, results, 1)
	})

	t.Run("miss synthesizes one location", func(t *testing.T) {
		results, err := s.SearchLocations(ctx, "Atlantis")
		require.NoError(t, err)
		require.Len(t, results, 1)

		got := results[0]
		assert.Equal(t, "Atlantis", got.City)
		assert.Equal(t, "India", got.State)
		assert.Equal(t, "India", got.Country)
		assert.InDelta(t, 19.0760, got.Latitude, 0.05)
		assert.InDelta(t, 72.8777, got.Longitude, 0.05)

		// the synthesized location is persisted and found next time
		again, err := s.SearchLocations(ctx, "atlantis")
		require.NoError(t, err)
		require.Len(t, again, 1)
		assert.Equal(t, got.ID, again[0].ID)
	})

	t.Run("find never mutates", func(t *testing.T) {
		before, err := s.ListLocations(ctx)
		require.NoError(t, err)

		results, err := s.FindLocations(ctx, "El Dorado")
		require.NoError(t, err)
		assert.Empty(t, results)

		after, err := s.ListLocations(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})
}

func TestMemoryStore_AqiHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetLatestAqiReading(ctx, 1)
	assert.ErrorIs(t, err, store.ErrReadingNotFound)

	for i := 1; i <= 12; i++ {
		_, err := s.CreateAqiReading(ctx, store.AqiReading{
			LocationID:       1,
			AQI:              i * 10,
			Level:            string(aqi.CategoryFor(i * 10)),
			PrimaryPollutant: aqi.LabelPM25,
			Pollutants:       aqi.Pollutants{PM25: float64(i)},
		})
		require.NoError(t, err)
	}

	latest, err := s.GetLatestAqiReading(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 120, latest.AQI)

	history, err := s.GetAqiHistory(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, history, store.DefaultHistoryLimit)
	assert.Equal(t, 120, history[0].AQI)
	assert.Equal(t, 30, history[len(history)-1].AQI)

	history, err = s.GetAqiHistory(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Timestamp.After(history[i-1].Timestamp))
	}

	empty, err := s.GetAqiHistory(ctx, 42, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_LatestTieBreaksByID(t *testing.T) {
	fixed := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	s := store.NewMemoryStore(store.MemoryConfig{Now: func() time.Time { return fixed }})
	ctx := context.Background()

	_, err := s.CreateAqiReading(ctx, store.AqiReading{LocationID: 7, AQI: 10})
	require.NoError(t, err)
	_, err = s.CreateAqiReading(ctx, store.AqiReading{LocationID: 7, AQI: 20})
	require.NoError(t, err)

	latest, err := s.GetLatestAqiReading(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 20, latest.AQI)
}

func TestMemoryStore_Weather(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetLatestWeatherSnapshot(ctx, 1)
	assert.ErrorIs(t, err, store.ErrWeatherNotFound)

	_, err = s.CreateWeatherSnapshot(ctx, store.WeatherSnapshot{LocationID: 1, Temperature: 28, Description: "haze"})
	require.NoError(t, err)
	_, err = s.CreateWeatherSnapshot(ctx, store.WeatherSnapshot{LocationID: 1, Temperature: 31, Description: "clear sky"})
	require.NoError(t, err)

	latest, err := s.GetLatestWeatherSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 31.0, latest.Temperature)
	assert.Equal(t, "clear sky", latest.Description)
}

func TestMemoryStore_AlertPreference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetAlertPreference(ctx)
	assert.ErrorIs(t, err, store.ErrAlertPreferenceNotFound)

	def, err := s.GetOrDefaultAlertPreference(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), def.ID)
	assert.Equal(t, 100, def.Threshold)
	assert.True(t, def.EmailNotifications)
	assert.False(t, def.PushNotifications)
	assert.True(t, def.DailySummary)

	first, err := s.UpsertAlertPreference(ctx, store.AlertPreferenceUpdate{Threshold: intPtr(150)})
	require.NoError(t, err)
	assert.Equal(t, 150, first.Threshold)
	assert.True(t, first.EmailNotifications)
	assert.NotZero(t, first.ID)

	second, err := s.UpsertAlertPreference(ctx, store.AlertPreferenceUpdate{PushNotifications: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 150, second.Threshold)
	assert.True(t, second.PushNotifications)

	stored, err := s.GetAlertPreference(ctx)
	require.NoError(t, err)
	assert.Equal(t, *second, *stored)
}

func TestMemoryStore_Forecast(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	points := make([]store.ForecastPoint, 0, store.ForecastHours)
	for h := store.ForecastHours - 1; h >= 0; h-- {
		points = append(points, store.ForecastPoint{Hour: h, PredictedAQI: 100 + h})
	}

	saved, err := s.ReplaceForecast(ctx, 1, points)
	require.NoError(t, err)
	require.Len(t, saved, store.ForecastHours)
	assert.Equal(t, 0, saved[0].Hour)

	got, err := s.GetForecast(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, store.ForecastHours)
	for i, p := range got {
		assert.Equal(t, i, p.Hour)
		assert.Equal(t, int64(1), p.LocationID)
	}

	// replacing again does not accumulate
	_, err = s.ReplaceForecast(ctx, 1, points[:5])
	require.NoError(t, err)
	got, err = s.GetForecast(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	_, err = s.CreateForecastPoint(ctx, store.ForecastPoint{LocationID: 1, Hour: store.ForecastHours})
	assert.ErrorIs(t, err, store.ErrInvalidForecastHour)

	require.NoError(t, s.ClearForecast(ctx, 1))
	got, err = s.GetForecast(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loc, err := s.GetLocation(ctx, 1)
	require.NoError(t, err)
	loc.City = "changed"

	again, err := s.GetLocation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", again.City)
}
