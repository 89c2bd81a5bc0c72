package forecast

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/airpulse/airpulse/internal/store"
)

// DefaultBaseAQI seeds the forecast when a location has no readings yet.
const DefaultBaseAQI = 100

// DefaultGenerateTimeout bounds one shared forecast generation.
const DefaultGenerateTimeout = 10 * time.Second

// ServiceConfig holds configuration for the forecast service.
type ServiceConfig struct {
	Store store.Store

	// Model generates new forecasts. Default: time-seeded SyntheticModel.
	Model Model

	// Logger for service operations.
	Logger zerolog.Logger

	// GenerateTimeout bounds a generation shared by concurrent callers
	// (default: 10 seconds).
	GenerateTimeout time.Duration
}

// Service returns stored forecasts, generating them on first request.
type Service struct {
	store           store.Store
	model           Model
	logger          zerolog.Logger
	generateTimeout time.Duration
	group           singleflight.Group
}

// NewService creates a new forecast service.
func NewService(cfg ServiceConfig) *Service {
	model := cfg.Model
	if model == nil {
		model = NewSyntheticModel(nil)
	}

	timeout := cfg.GenerateTimeout
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}

	return &Service{
		store:           cfg.Store,
		model:           model,
		logger:          cfg.Logger,
		generateTimeout: timeout,
	}
}

// Get returns the location's forecast. An existing forecast is returned
// unchanged; otherwise one is generated from the latest AQI and stored.
// Concurrent first requests for a location share one generation, which is
// not cancelled when the caller that started it goes away.
// Returns store.ErrLocationNotFound for unknown ids.
func (s *Service) Get(ctx context.Context, locationID int64) ([]store.ForecastPoint, error) {
	if _, err := s.store.GetLocation(ctx, locationID); err != nil {
		return nil, err
	}

	points, err := s.store.GetForecast(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if len(points) > 0 {
		return points, nil
	}

	v, err, _ := s.group.Do(strconv.FormatInt(locationID, 10), func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.generateTimeout)
		defer cancel()
		return s.generate(genCtx, locationID)
	})
	if err != nil {
		return nil, err
	}

	generated := v.([]store.ForecastPoint)
	out := make([]store.ForecastPoint, len(generated))
	copy(out, generated)
	return out, nil
}

func (s *Service) generate(ctx context.Context, locationID int64) ([]store.ForecastPoint, error) {
	// Another flight may have stored a forecast since our first read.
	if points, err := s.store.GetForecast(ctx, locationID); err != nil {
		return nil, err
	} else if len(points) > 0 {
		return points, nil
	}

	base := DefaultBaseAQI
	latest, err := s.store.GetLatestAqiReading(ctx, locationID)
	switch {
	case err == nil:
		base = latest.AQI
	case !errors.Is(err, store.ErrReadingNotFound):
		return nil, err
	}

	points, err := s.store.ReplaceForecast(ctx, locationID, s.model.Generate(locationID, base))
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int64("location_id", locationID).
		Int("base_aqi", base).
		Int("points", len(points)).
		Msg("forecast generated")

	return points, nil
}

// Clear removes the stored forecast so the next Get regenerates it.
// Returns store.ErrLocationNotFound for unknown ids.
func (s *Service) Clear(ctx context.Context, locationID int64) error {
	if _, err := s.store.GetLocation(ctx, locationID); err != nil {
		return err
	}
	return s.store.ClearForecast(ctx, locationID)
}
