package refresh_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airpulse/airpulse/internal/airquality"
	"github.com/airpulse/airpulse/internal/aqi"
	"github.com/airpulse/airpulse/internal/geo"
	"github.com/airpulse/airpulse/internal/refresh"
	"github.com/airpulse/airpulse/internal/store"
	"github.com/airpulse/airpulse/internal/weather"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeProvider struct {
	mu sync.Mutex

	sample     *airquality.Sample
	aqErr      error
	obs        *weather.Observation
	weatherErr error

	aqCalls      int
	weatherCalls int
}

func (f *fakeProvider) FetchAirQuality(_ context.Context, _ geo.Coordinates) (*airquality.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aqCalls++
	if f.aqErr != nil {
		return nil, f.aqErr
	}
	return f.sample, nil
}

func (f *fakeProvider) FetchWeather(_ context.Context, _ geo.Coordinates) (*weather.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weatherCalls++
	if f.weatherErr != nil {
		return nil, f.weatherErr
	}
	return f.obs, nil
}

func (f *fakeProvider) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aqCalls, f.weatherCalls
}

func (f *fakeProvider) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aqErr = err
	f.weatherErr = err
}

type recordingEvaluator struct {
	mu       sync.Mutex
	readings []store.AqiReading
	err      error
}

func (r *recordingEvaluator) Evaluate(_ context.Context, _ store.Location, reading store.AqiReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, reading)
	return r.err
}

func pm25Sample(v float64) *airquality.Sample {
	return &airquality.Sample{
		Location: "Colaba",
		Measurements: []airquality.Measurement{
			{Parameter: airquality.ParameterPM25, Value: v},
			{Parameter: airquality.ParameterPM10, Value: 30},
		},
	}
}

func hazeObservation() *weather.Observation {
	return &weather.Observation{
		Temperature: 30.5,
		Humidity:    72,
		WindSpeed:   5,
		Description: "haze",
		Icon:        "50d",
		Locality:    "Navi Mumbai",
		Country:     "IN",
	}
}

type fixture struct {
	clock    *fakeClock
	store    *store.MemoryStore
	provider *fakeProvider
	alerts   *recordingEvaluator
	orch     *refresh.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)}
	st := store.NewMemoryStore(store.MemoryConfig{Now: clock.Now, Seed: true})
	provider := &fakeProvider{sample: pm25Sample(30), obs: hazeObservation()}
	alerts := &recordingEvaluator{}

	orch := refresh.NewOrchestrator(refresh.Config{
		Store:    st,
		Provider: provider,
		Logger:   zerolog.Nop(),
		Alerts:   alerts,
		Now:      clock.Now,
	})

	return &fixture{clock: clock, store: st, provider: provider, alerts: alerts, orch: orch}
}

func TestGetCurrent_FetchesWhenEmpty(t *testing.T) {
	f := newFixture(t)

	current, err := f.orch.GetCurrent(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Mumbai", current.Location.City)

	require.NotNil(t, current.AQI)
	assert.Equal(t, 120, current.AQI.AQI)
	assert.Equal(t, string(aqi.CategorySensitive), current.AQI.Level)
	assert.Equal(t, aqi.LabelPM25, current.AQI.PrimaryPollutant)
	assert.Equal(t, 30.0, current.AQI.Pollutants.PM25)

	require.NotNil(t, current.Weather)
	assert.Equal(t, 30.5, current.Weather.Temperature)
	assert.Equal(t, 72, current.Weather.Humidity)
	assert.InDelta(t, 18.0, current.Weather.WindSpeed, 1e-9)
	assert.Equal(t, 10.0, current.Weather.Visibility)
	assert.Equal(t, "haze", current.Weather.Description)

	aqCalls, weatherCalls := f.provider.calls()
	assert.Equal(t, 1, aqCalls)
	assert.Equal(t, 1, weatherCalls)

	require.Len(t, f.alerts.readings, 1)
	assert.Equal(t, current.AQI.ID, f.alerts.readings[0].ID)
}

func TestGetCurrent_ReusesFreshValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.orch.GetCurrent(ctx, 1)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)

	second, err := f.orch.GetCurrent(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first.AQI.ID, second.AQI.ID)
	assert.Equal(t, first.Weather.ID, second.Weather.ID)

	aqCalls, weatherCalls := f.provider.calls()
	assert.Equal(t, 1, aqCalls)
	assert.Equal(t, 1, weatherCalls)
	assert.Len(t, f.alerts.readings, 1)
}

func TestGetCurrent_RefreshesStaleValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.orch.GetCurrent(ctx, 1)
	require.NoError(t, err)

	f.clock.Advance(31 * time.Minute)
	f.provider.sample = pm25Sample(10)

	second, err := f.orch.GetCurrent(ctx, 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.AQI.ID, second.AQI.ID)
	assert.Equal(t, 60, second.AQI.AQI)
	assert.Equal(t, aqi.LabelPM10, second.AQI.PrimaryPollutant)
	assert.NotEqual(t, first.Weather.ID, second.Weather.ID)

	aqCalls, weatherCalls := f.provider.calls()
	assert.Equal(t, 2, aqCalls)
	assert.Equal(t, 2, weatherCalls)

	history, err := f.store.GetAqiHistory(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestGetCurrent_UpstreamErrorServesStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.orch.GetCurrent(ctx, 1)
	require.NoError(t, err)

	f.clock.Advance(45 * time.Minute)
	f.provider.fail(errors.New("upstream timeout"))

	second, err := f.orch.GetCurrent(ctx, 1)
	require.NoError(t, err)

	require.NotNil(t, second.AQI)
	assert.Equal(t, first.AQI.ID, second.AQI.ID)
	require.NotNil(t, second.Weather)
	assert.Equal(t, first.Weather.ID, second.Weather.ID)
}

func TestGetCurrent_UpstreamErrorWithNothingStored(t *testing.T) {
	f := newFixture(t)
	f.provider.fail(errors.New("dns failure"))

	current, err := f.orch.GetCurrent(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), current.Location.ID)
	assert.Nil(t, current.AQI)
	assert.Nil(t, current.Weather)
	assert.Empty(t, f.alerts.readings)
}

func TestGetCurrent_NoStationsWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.provider.sample = nil

	current, err := f.orch.GetCurrent(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, current.AQI)

	_, err = f.store.GetLatestAqiReading(context.Background(), 1)
	assert.ErrorIs(t, err, store.ErrReadingNotFound)
}

func TestGetCurrent_UnknownLocation(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.GetCurrent(context.Background(), 404)
	assert.ErrorIs(t, err, store.ErrLocationNotFound)

	aqCalls, weatherCalls := f.provider.calls()
	assert.Zero(t, aqCalls)
	assert.Zero(t, weatherCalls)
}

func TestGetCurrent_AlertErrorIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.alerts.err = errors.New("publisher down")

	current, err := f.orch.GetCurrent(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, current.AQI)
}

type cachedOnlyFlag bool

func (f cachedOnlyFlag) IsCachedOnlyCurrent(context.Context) bool { return bool(f) }

func TestGetCurrent_CachedOnlySkipsUpstream(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.orch.GetCurrent(ctx, 1)
	require.NoError(t, err)

	orch := refresh.NewOrchestrator(refresh.Config{
		Store:    f.store,
		Provider: f.provider,
		Logger:   zerolog.Nop(),
		Flags:    cachedOnlyFlag(true),
		Now:      f.clock.Now,
	})
	f.clock.Advance(2 * time.Hour)

	second, err := orch.GetCurrent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.AQI.ID, second.AQI.ID)
	assert.Equal(t, first.Weather.ID, second.Weather.ID)

	aqCalls, weatherCalls := f.provider.calls()
	assert.Equal(t, 1, aqCalls)
	assert.Equal(t, 1, weatherCalls)
}

func TestResolveLocationByCoordinates_ExistingWithinTolerance(t *testing.T) {
	f := newFixture(t)

	loc, err := f.orch.ResolveLocationByCoordinates(context.Background(), 19.0800, 72.8800)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, int64(1), loc.ID)

	_, weatherCalls := f.provider.calls()
	assert.Zero(t, weatherCalls)
}

func TestResolveLocationByCoordinates_CreatesFromWeather(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loc, err := f.orch.ResolveLocationByCoordinates(ctx, 19.0330, 73.0297)
	require.NoError(t, err)
	require.NotNil(t, loc)

	assert.Equal(t, "Navi Mumbai", loc.City)
	assert.Equal(t, "India", loc.State)
	assert.Equal(t, "India", loc.Country)
	assert.Equal(t, 19.0330, loc.Latitude)
	assert.Equal(t, 73.0297, loc.Longitude)

	// resolved again without another upstream call
	again, err := f.orch.ResolveLocationByCoordinates(ctx, 19.0331, 73.0298)
	require.NoError(t, err)
	assert.Equal(t, loc.ID, again.ID)

	_, weatherCalls := f.provider.calls()
	assert.Equal(t, 1, weatherCalls)
}

func TestResolveLocationByCoordinates_ForeignCountry(t *testing.T) {
	f := newFixture(t)
	f.provider.obs = &weather.Observation{Locality: "Kathmandu", Country: "NP"}

	loc, err := f.orch.ResolveLocationByCoordinates(context.Background(), 27.7172, 85.3240)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Kathmandu", loc.City)
	assert.Equal(t, "NP", loc.State)
	assert.Equal(t, "India", loc.Country)
}

func TestResolveLocationByCoordinates_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.fail(errors.New("401 unauthorized"))

	loc, err := f.orch.ResolveLocationByCoordinates(context.Background(), 28.6139, 77.2090)
	require.NoError(t, err)
	assert.Nil(t, loc)

	all, err := f.store.ListLocations(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestResolveLocationByCoordinates_InvalidCoordinates(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.ResolveLocationByCoordinates(context.Background(), -91, 0)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}
