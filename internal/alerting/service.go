package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/store"
	"github.com/airpulse/airpulse/internal/telemetry"
)

// PreferenceSource supplies the global alert preference.
type PreferenceSource interface {
	GetOrDefaultAlertPreference(ctx context.Context) (*store.AlertPreference, error)
}

// Gate switches alert evaluation on and off at runtime.
type Gate interface {
	AlertsEnabled(ctx context.Context) bool
}

// ServiceConfig holds configuration for the alerting service.
type ServiceConfig struct {
	Preferences PreferenceSource
	States      StateStore
	Publisher   Publisher

	// Gate disables evaluation when it reports false. Optional.
	Gate Gate

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records publish outcomes. Optional.
	Metrics *telemetry.ProviderMetrics

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Service evaluates readings and publishes threshold crossings once per
// episode: a location alerts when its AQI rises above the threshold and
// re-arms only after the AQI falls back to the threshold or below.
type Service struct {
	prefs     PreferenceSource
	states    StateStore
	publisher Publisher
	gate      Gate
	logger    zerolog.Logger
	metrics   *telemetry.ProviderMetrics
	now       func() time.Time
}

// NewService creates a new alerting service. A nil StateStore uses a
// MemoryStateStore; a nil Publisher logs events only.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	states := cfg.States
	if states == nil {
		states = NewMemoryStateStore(DefaultStateTTL, now)
	}

	publisher := cfg.Publisher
	if publisher == nil {
		publisher = NewLogPublisher(cfg.Logger)
	}

	return &Service{
		prefs:     cfg.Preferences,
		states:    states,
		publisher: publisher,
		gate:      cfg.Gate,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		now:       now,
	}
}

// Evaluate checks a freshly stored reading against the alert preference.
func (s *Service) Evaluate(ctx context.Context, loc store.Location, reading store.AqiReading) error {
	if s.gate != nil && !s.gate.AlertsEnabled(ctx) {
		return nil
	}

	pref, err := s.prefs.GetOrDefaultAlertPreference(ctx)
	if err != nil {
		return fmt.Errorf("loading alert preference: %w", err)
	}

	current, err := s.states.Get(ctx, loc.ID)
	if err != nil {
		return err
	}

	if reading.AQI <= pref.Threshold {
		if current.Status != StatusAlerting {
			return nil
		}
		s.logger.Info().
			Int64("location_id", loc.ID).
			Int("aqi", reading.AQI).
			Msg("aqi alert cleared")
		return s.states.Clear(ctx, loc.ID)
	}

	channels := channelsFor(pref)
	if len(channels) == 0 || current.Status == StatusAlerting {
		return nil
	}

	now := s.now()
	acquired, err := s.states.TryAcquire(ctx, loc.ID, &State{
		Status:      StatusAlerting,
		AQI:         reading.AQI,
		Threshold:   pref.Threshold,
		TriggeredAt: now,
	})
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}

	event := Event{
		ID:          uuid.NewString(),
		LocationID:  loc.ID,
		City:        loc.City,
		State:       loc.State,
		AQI:         reading.AQI,
		Level:       reading.Level,
		Threshold:   pref.Threshold,
		Channels:    channels,
		ReadingID:   reading.ID,
		TriggeredAt: now,
	}

	err = s.publisher.Publish(ctx, event)
	s.metrics.RecordAlertPublished(s.publisher.Name(), err)
	if err != nil {
		// Release the claim so the next reading retries.
		if clearErr := s.states.Clear(ctx, loc.ID); clearErr != nil {
			s.logger.Warn().Err(clearErr).
				Int64("location_id", loc.ID).
				Msg("failed to release alert claim")
		}
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	s.logger.Info().
		Int64("location_id", loc.ID).
		Int("aqi", reading.AQI).
		Int("threshold", pref.Threshold).
		Str("event_id", event.ID).
		Msg("aqi alert published")

	return nil
}

// State returns the current alert state of a location.
func (s *Service) State(ctx context.Context, locationID int64) (*State, error) {
	return s.states.Get(ctx, locationID)
}

// Close releases the publisher.
func (s *Service) Close() error {
	return s.publisher.Close()
}

func channelsFor(pref *store.AlertPreference) []string {
	var channels []string
	if pref.EmailNotifications {
		channels = append(channels, ChannelEmail)
	}
	if pref.PushNotifications {
		channels = append(channels, ChannelPush)
	}
	return channels
}
