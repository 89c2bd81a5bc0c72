package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/airpulse/airpulse/internal/aqi"
	"github.com/airpulse/airpulse/internal/geo"
	"github.com/airpulse/airpulse/internal/store"
	"github.com/airpulse/airpulse/internal/telemetry"
)

// Defaults for Config.
const (
	DefaultFreshnessWindow = 30 * time.Minute
	DefaultUpstreamTimeout = 10 * time.Second
)

// Metric labels for freshness decisions.
const (
	metricsAirQuality = "airquality"
	metricsWeather    = "weather"
	operationCurrent  = "current"
)

// AlertEvaluator is notified after a new AQI reading has been stored.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, loc store.Location, reading store.AqiReading) error
}

// FlagSource reports runtime switches affecting refresh.
type FlagSource interface {
	// IsCachedOnlyCurrent reports whether upstream refreshes are suspended.
	IsCachedOnlyCurrent(ctx context.Context) bool
}

// Config holds configuration for the orchestrator.
type Config struct {
	Store    store.Store
	Provider DataProvider

	// Logger for orchestrator operations.
	Logger zerolog.Logger

	// Metrics records freshness hits and misses. Optional.
	Metrics *telemetry.ProviderMetrics

	// Alerts is invoked after each new AQI reading. Optional.
	Alerts AlertEvaluator

	// Flags can suspend upstream refreshes. Optional.
	Flags FlagSource

	// FreshnessWindow is the maximum age of a stored value served without
	// refreshing (default: 30 minutes).
	FreshnessWindow time.Duration

	// UpstreamTimeout bounds each provider call (default: 10 seconds).
	UpstreamTimeout time.Duration

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Current is the dashboard's view of a location. AQI and Weather are nil when
// nothing is stored and the upstream could not provide a value.
type Current struct {
	Location store.Location
	AQI      *store.AqiReading
	Weather  *store.WeatherSnapshot
}

// Orchestrator decides between stored and upstream data.
type Orchestrator struct {
	store           store.Store
	provider        DataProvider
	logger          zerolog.Logger
	metrics         *telemetry.ProviderMetrics
	alerts          AlertEvaluator
	flags           FlagSource
	freshnessWindow time.Duration
	upstreamTimeout time.Duration
	now             func() time.Time
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	window := cfg.FreshnessWindow
	if window <= 0 {
		window = DefaultFreshnessWindow
	}

	timeout := cfg.UpstreamTimeout
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		store:           cfg.Store,
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		alerts:          cfg.Alerts,
		flags:           cfg.Flags,
		freshnessWindow: window,
		upstreamTimeout: timeout,
		now:             now,
	}
}

// GetCurrent returns the location with its freshest AQI reading and weather
// snapshot, refreshing each independently from upstream when stale.
// Returns store.ErrLocationNotFound for unknown ids.
func (o *Orchestrator) GetCurrent(ctx context.Context, locationID int64) (*Current, error) {
	loc, err := o.store.GetLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	current := &Current{Location: *loc}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reading, err := o.currentAQI(gctx, *loc)
		current.AQI = reading
		return err
	})
	g.Go(func() error {
		snapshot, err := o.currentWeather(gctx, *loc)
		current.Weather = snapshot
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return current, nil
}

// currentAQI returns the stored reading when fresh, otherwise tries to store a
// new one. Only store failures are returned as errors.
func (o *Orchestrator) currentAQI(ctx context.Context, loc store.Location) (*store.AqiReading, error) {
	latest, err := o.store.GetLatestAqiReading(ctx, loc.ID)
	if err != nil && !errors.Is(err, store.ErrReadingNotFound) {
		return nil, err
	}

	if (latest != nil && o.isFresh(latest.Timestamp)) || o.cachedOnly(ctx) {
		o.metrics.RecordCacheHit(metricsAirQuality, operationCurrent)
		return latest, nil
	}
	o.metrics.RecordCacheMiss(metricsAirQuality, operationCurrent)

	fetchCtx, cancel := context.WithTimeout(ctx, o.upstreamTimeout)
	defer cancel()

	sample, err := o.provider.FetchAirQuality(fetchCtx, loc.Coordinates())
	if err != nil {
		o.logger.Warn().Err(err).
			Int64("location_id", loc.ID).
			Msg("air quality refresh failed, serving stored reading")
		return latest, nil
	}
	if sample == nil {
		o.logger.Debug().
			Int64("location_id", loc.ID).
			Msg("no air quality stations near location")
		return latest, nil
	}

	pollutants := sample.Pollutants()
	index := aqi.FromPollutants(pollutants)
	reading, err := o.store.CreateAqiReading(ctx, store.AqiReading{
		LocationID:       loc.ID,
		AQI:              index,
		Level:            string(aqi.CategoryFor(index)),
		PrimaryPollutant: aqi.PrimaryPollutant(pollutants),
		Pollutants:       pollutants,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info().
		Int64("location_id", loc.ID).
		Int("aqi", reading.AQI).
		Str("level", reading.Level).
		Str("station", sample.Location).
		Msg("aqi reading refreshed")

	if o.alerts != nil {
		if err := o.alerts.Evaluate(ctx, loc, *reading); err != nil {
			o.logger.Warn().Err(err).
				Int64("location_id", loc.ID).
				Msg("alert evaluation failed")
		}
	}

	return reading, nil
}

// currentWeather mirrors currentAQI for weather snapshots.
func (o *Orchestrator) currentWeather(ctx context.Context, loc store.Location) (*store.WeatherSnapshot, error) {
	latest, err := o.store.GetLatestWeatherSnapshot(ctx, loc.ID)
	if err != nil && !errors.Is(err, store.ErrWeatherNotFound) {
		return nil, err
	}

	if (latest != nil && o.isFresh(latest.Timestamp)) || o.cachedOnly(ctx) {
		o.metrics.RecordCacheHit(metricsWeather, operationCurrent)
		return latest, nil
	}
	o.metrics.RecordCacheMiss(metricsWeather, operationCurrent)

	fetchCtx, cancel := context.WithTimeout(ctx, o.upstreamTimeout)
	defer cancel()

	obs, err := o.provider.FetchWeather(fetchCtx, loc.Coordinates())
	if err != nil || obs == nil {
		if err != nil {
			o.logger.Warn().Err(err).
				Int64("location_id", loc.ID).
				Msg("weather refresh failed, serving stored snapshot")
		}
		return latest, nil
	}

	snapshot, err := o.store.CreateWeatherSnapshot(ctx, store.WeatherSnapshot{
		LocationID:  loc.ID,
		Temperature: obs.Temperature,
		Humidity:    obs.Humidity,
		WindSpeed:   obs.WindSpeedKmh(),
		Visibility:  obs.VisibilityKm(),
		Description: obs.Description,
		Icon:        obs.Icon,
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// ResolveLocationByCoordinates returns the stored location within ~1 km of
// the point, creating one named from the weather provider when none exists.
// It returns (nil, nil) when the provider cannot name the point.
func (o *Orchestrator) ResolveLocationByCoordinates(ctx context.Context, lat, lon float64) (*store.Location, error) {
	at := geo.Coordinates{Lat: lat, Lon: lon}
	if err := at.Validate(); err != nil {
		return nil, err
	}

	existing, err := o.store.GetLocationByCoordinates(ctx, lat, lon, store.DefaultCoordinateTolerance)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrLocationNotFound) {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.upstreamTimeout)
	defer cancel()

	obs, err := o.provider.FetchWeather(fetchCtx, at)
	if err != nil || obs == nil {
		if err != nil {
			o.logger.Warn().Err(err).
				Float64("lat", lat).
				Float64("lon", lon).
				Msg("reverse geocoding failed")
		}
		return nil, nil
	}

	place := obs.Place()
	created, err := o.store.CreateLocation(ctx, store.Location{
		City:      place.City,
		State:     place.State,
		Country:   place.Country,
		Latitude:  lat,
		Longitude: lon,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info().
		Int64("location_id", created.ID).
		Str("city", created.City).
		Msg("location created from coordinates")

	return created, nil
}

func (o *Orchestrator) cachedOnly(ctx context.Context) bool {
	return o.flags != nil && o.flags.IsCachedOnlyCurrent(ctx)
}

func (o *Orchestrator) isFresh(ts time.Time) bool {
	return o.now().Sub(ts) < o.freshnessWindow
}
