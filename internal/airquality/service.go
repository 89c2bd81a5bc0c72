package airquality

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/geo"
	"github.com/airpulse/airpulse/internal/provider/resilience"
	"github.com/airpulse/airpulse/internal/telemetry"
)

const operationLatest = "latest"

// Provider defines the interface for air quality data providers.
type Provider interface {
	// FetchLatest returns the most recent measurements of monitoring
	// locations near q.Coordinates, nearest first.
	FetchLatest(ctx context.Context, q Query) ([]Sample, error)

	// Name returns the provider name for logging and health reporting.
	Name() string
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	// Provider is the air quality data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Registry receives success/failure reports for provider health.
	// Optional.
	Registry *resilience.Registry

	// Metrics records provider latency. Optional.
	Metrics *telemetry.ProviderMetrics

	// RadiusMeters is the search radius (default: 25000).
	RadiusMeters int
}

// Service looks up the latest air quality sample for a point.
type Service struct {
	provider     Provider
	logger       zerolog.Logger
	registry     *resilience.Registry
	metrics      *telemetry.ProviderMetrics
	radiusMeters int
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	radius := cfg.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}

	return &Service{
		provider:     cfg.Provider,
		logger:       cfg.Logger,
		registry:     cfg.Registry,
		metrics:      cfg.Metrics,
		radiusMeters: radius,
	}
}

// Latest returns the nearest monitoring location's latest sample.
// It returns ErrNoResults when the provider has nothing within range and
// ErrProviderUnavailable when the provider call fails.
func (s *Service) Latest(ctx context.Context, at geo.Coordinates) (*Sample, error) {
	if err := at.Validate(); err != nil {
		return nil, err
	}

	name := s.provider.Name()
	start := time.Now()
	samples, err := s.provider.FetchLatest(ctx, Query{
		Coordinates:  at,
		RadiusMeters: s.radiusMeters,
		Limit:        DefaultLimit,
	})
	s.metrics.RecordRequest(name, operationLatest, time.Since(start), err)

	if err != nil {
		if s.registry != nil {
			s.registry.RecordFailure(name, err)
		}
		s.logger.Error().Err(err).
			Float64("lat", at.Lat).
			Float64("lon", at.Lon).
			Str("provider", name).
			Msg("failed to fetch air quality")
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	if s.registry != nil {
		s.registry.RecordSuccess(name)
	}

	if len(samples) == 0 {
		s.logger.Debug().
			Float64("lat", at.Lat).
			Float64("lon", at.Lon).
			Int("radius_m", s.radiusMeters).
			Msg("no air quality stations in range")
		return nil, ErrNoResults
	}

	sample := samples[0]
	return &sample, nil
}
