package featureflags

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCacheTTL is how long a loaded flag snapshot is served before the
// repository is read again.
const DefaultCacheTTL = time.Minute

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// CacheTTL bounds snapshot age (default: DefaultCacheTTL).
	CacheTTL time.Duration

	// DefaultFlags apply to keys without a repository override.
	// Default: DefaultFlags().
	DefaultFlags map[string]*Flag

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Service answers the dashboard's runtime switches. Lookups are served from
// a snapshot of defaults overlaid with repository overrides.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration
	defaults map[string]*Flag
	now      func() time.Time

	mu       sync.RWMutex
	snapshot map[string]*Flag
	loadedAt time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	defaults := cfg.DefaultFlags
	if defaults == nil {
		defaults = DefaultFlags()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: ttl,
		defaults: defaults,
		now:      now,
	}
}

// GetFlag returns a copy of the effective flag, or nil for unknown keys.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	flag, ok := s.current(ctx)[key]
	if !ok {
		return nil
	}
	return flag.clone()
}

// GetAllFlags returns copies of every effective flag.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	snap := s.current(ctx)
	out := make(map[string]*Flag, len(snap))
	for k, v := range snap {
		out[k] = v.clone()
	}
	return out
}

// SetFlag stores an override. The caller's flag is not modified.
func (s *Service) SetFlag(ctx context.Context, flag *Flag) error {
	return s.SetFlags(ctx, []*Flag{flag})
}

// SetFlags stores several overrides in one repository write.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	now := s.now()
	stamped := make([]*Flag, len(flags))
	for i, f := range flags {
		stamped[i] = f.clone()
		stamped[i].UpdatedAt = now
	}

	if err := s.repo.SetFlags(ctx, stamped); err != nil {
		return err
	}

	s.mu.Lock()
	if s.snapshot != nil {
		for _, f := range stamped {
			s.snapshot[f.Key] = f
		}
	}
	s.mu.Unlock()

	for _, f := range stamped {
		s.logger.Info().
			Str("flag", f.Key).
			Interface("value", f.Value).
			Msg("feature flag updated")
	}
	return nil
}

// InvalidateCache drops the snapshot; the next lookup reads the repository.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.loadedAt = time.Time{}
}

// IsEnabled reports whether a boolean flag is on. Unknown keys are off.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).BoolValue(false)
}

// IsSearchSynthesisEnabled reports whether a search miss creates a demo location.
func (s *Service) IsSearchSynthesisEnabled(ctx context.Context) bool {
	return s.GetFlag(ctx, FlagSearchSynthesizeOnMiss).BoolValue(true)
}

// AlertsEnabled reports whether new readings are evaluated against the
// alert preference.
func (s *Service) AlertsEnabled(ctx context.Context) bool {
	return s.GetFlag(ctx, FlagAlertsEnabled).BoolValue(true)
}

// IsCachedOnlyCurrent reports whether current conditions must be served from
// the store without upstream refreshes.
func (s *Service) IsCachedOnlyCurrent(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagCachedOnlyCurrent)
}

// current returns the live snapshot, reloading it when expired. A failed
// reload keeps serving the previous snapshot, or the defaults before the
// first successful load. The returned map must not be modified.
func (s *Service) current(ctx context.Context) map[string]*Flag {
	s.mu.RLock()
	snap, loadedAt := s.snapshot, s.loadedAt
	s.mu.RUnlock()

	if snap != nil && s.now().Sub(loadedAt) < s.cacheTTL {
		return snap
	}

	stored, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load feature flags, serving last known values")
		if snap != nil {
			return snap
		}
		return s.defaults
	}

	merged := Merge(s.defaults, stored)

	s.mu.Lock()
	s.snapshot = merged
	s.loadedAt = s.now()
	s.mu.Unlock()

	return merged
}
