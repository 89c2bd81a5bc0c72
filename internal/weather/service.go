// Package weather provides current weather lookups with short-lived caching.
package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/geo"
	"github.com/airpulse/airpulse/internal/provider/resilience"
	"github.com/airpulse/airpulse/internal/telemetry"
)

const operationCurrent = "current"

// Provider defines the interface for weather data providers.
type Provider interface {
	// GetCurrentWeather fetches current weather for a location.
	GetCurrentWeather(ctx context.Context, at geo.Coordinates) (*Observation, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Registry receives success/failure reports for provider health. Optional.
	Registry *resilience.Registry

	// Metrics records provider latency and cache usage. Optional.
	Metrics *telemetry.ProviderMetrics

	// CacheTTL is how long to cache observations (default: 5 minutes).
	// Resolving a location by coordinates is usually followed by a current
	// conditions request for the same point; the cache absorbs the repeat.
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.01).
	CacheGridSize float64

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Service provides weather data with caching.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	registry      *resilience.Registry
	metrics       *telemetry.ProviderMetrics
	cacheTTL      time.Duration
	cacheGridSize float64
	now           func() time.Time

	mu    sync.Mutex
	cache map[string]cachedObservation
}

type cachedObservation struct {
	observation Observation
	expiresAt   time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01 // ~1km
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		registry:      cfg.Registry,
		metrics:       cfg.Metrics,
		cacheTTL:      cacheTTL,
		cacheGridSize: cacheGridSize,
		now:           now,
		cache:         make(map[string]cachedObservation),
	}
}

// Current returns current weather for a point, served from cache when a
// recent observation exists for the same grid cell.
func (s *Service) Current(ctx context.Context, at geo.Coordinates) (*Observation, error) {
	if err := at.Validate(); err != nil {
		return nil, err
	}

	key := s.cacheKey(at)
	name := s.provider.Name()

	s.mu.Lock()
	if cached, ok := s.cache[key]; ok && s.now().Before(cached.expiresAt) {
		s.mu.Unlock()
		s.metrics.RecordCacheHit(name, operationCurrent)
		obs := cached.observation
		return &obs, nil
	}
	s.mu.Unlock()

	s.logger.Debug().
		Float64("lat", at.Lat).
		Float64("lon", at.Lon).
		Str("provider", name).
		Msg("fetching weather from provider")

	start := time.Now()
	obs, err := s.provider.GetCurrentWeather(ctx, at)
	s.metrics.RecordRequest(name, operationCurrent, time.Since(start), err)

	if err != nil {
		if s.registry != nil {
			s.registry.RecordFailure(name, err)
		}
		s.logger.Error().Err(err).
			Float64("lat", at.Lat).
			Float64("lon", at.Lon).
			Msg("failed to fetch weather")
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	if s.registry != nil {
		s.registry.RecordSuccess(name)
	}

	s.mu.Lock()
	s.cache[key] = cachedObservation{observation: *obs, expiresAt: s.now().Add(s.cacheTTL)}
	s.evictExpired()
	s.mu.Unlock()

	return obs, nil
}

// evictExpired must be called with mu held.
func (s *Service) evictExpired() {
	now := s.now()
	for key, cached := range s.cache {
		if !now.Before(cached.expiresAt) {
			delete(s.cache, key)
		}
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cachedObservation)
}

// cacheKey snaps coordinates to the cache grid.
func (s *Service) cacheKey(at geo.Coordinates) string {
	lat := math.Floor(at.Lat/s.cacheGridSize) * s.cacheGridSize
	lon := math.Floor(at.Lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}
