// Package nearby compares a location's air quality with other stored
// locations around it.
package nearby

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/aqi"
	"github.com/airpulse/airpulse/internal/geo"
	"github.com/airpulse/airpulse/internal/store"
)

// DefaultRadiusKm is used when Nearby is called with a non-positive radius.
const DefaultRadiusKm = 50.0

// demoAQIRange bounds the placeholder AQI for locations without readings.
const demoAQIRange = 300

// Entry is a location with its latest air quality and distance from the
// reference location.
type Entry struct {
	Location   store.Location
	AQI        int
	Level      string
	Color      string
	DistanceKm float64

	// Estimated is true when the location has no reading and AQI is a
	// placeholder value.
	Estimated bool
}

// ServiceConfig holds configuration for the nearby service.
type ServiceConfig struct {
	Store store.Store

	// Logger for service operations.
	Logger zerolog.Logger

	// Rand supplies placeholder AQI values. Default: time-seeded PCG.
	Rand *rand.Rand
}

// Service builds nearby comparison lists.
type Service struct {
	store  store.Store
	logger zerolog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewService creates a new nearby service.
func NewService(cfg ServiceConfig) *Service {
	rnd := cfg.Rand
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return &Service{
		store:  cfg.Store,
		logger: cfg.Logger,
		rnd:    rnd,
	}
}

// Nearby returns the reference location first (distance 0) followed by other
// stored locations within radiusKm, closest first. Returns
// store.ErrLocationNotFound for unknown ids.
func (s *Service) Nearby(ctx context.Context, locationID int64, radiusKm float64) ([]Entry, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	origin, err := s.store.GetLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	all, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		loc  store.Location
		dist float64
	}
	candidates := []candidate{{loc: *origin}}
	for _, loc := range all {
		if loc.ID == origin.ID {
			continue
		}
		d := geo.Haversine(origin.Coordinates(), loc.Coordinates())
		if d <= radiusKm {
			candidates = append(candidates, candidate{loc: loc, dist: d})
		}
	}

	others := candidates[1:]
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].dist < others[j].dist
	})

	entries := make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		entry, err := s.entry(ctx, c.loc, c.dist)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	s.logger.Debug().
		Int64("location_id", locationID).
		Float64("radius_km", radiusKm).
		Int("count", len(entries)).
		Msg("nearby locations listed")

	return entries, nil
}

func (s *Service) entry(ctx context.Context, loc store.Location, dist float64) (Entry, error) {
	entry := Entry{Location: loc, DistanceKm: dist}

	reading, err := s.store.GetLatestAqiReading(ctx, loc.ID)
	switch {
	case err == nil:
		entry.AQI = reading.AQI
		entry.Level = reading.Level
	case errors.Is(err, store.ErrReadingNotFound):
		entry.AQI = s.placeholderAQI()
		entry.Level = string(aqi.CategoryFor(entry.AQI))
		entry.Estimated = true
	default:
		return Entry{}, err
	}

	entry.Color = aqi.Color(entry.AQI)
	return entry, nil
}

func (s *Service) placeholderAQI() int {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.IntN(demoAQIRange)
}
