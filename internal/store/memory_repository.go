package store

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/airpulse/airpulse/internal/geo"
)

// MemoryConfig holds configuration for the in-memory store.
type MemoryConfig struct {
	// Now returns the current time. Default: time.Now.
	Now func() time.Time

	// Rand drives search-miss location synthesis. Default: time-seeded PCG.
	Rand *rand.Rand

	// Seed loads the demo locations (Mumbai) on construction.
	Seed bool
}

// MemoryStore is an in-memory implementation of Store.
// Contents are lost when the process exits.
type MemoryStore struct {
	now func() time.Time

	mu  sync.RWMutex
	rnd *rand.Rand

	locations     map[int64]*Location
	locationOrder []int64
	readings      map[int64][]AqiReading
	weather       map[int64][]WeatherSnapshot
	forecasts     map[int64][]ForecastPoint
	alert         *AlertPreference

	nextLocationID int64
	nextReadingID  int64
	nextWeatherID  int64
	nextForecastID int64
	nextAlertID    int64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	rnd := cfg.Rand
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}

	s := &MemoryStore{
		now:       now,
		rnd:       rnd,
		locations: make(map[int64]*Location),
		readings:  make(map[int64][]AqiReading),
		weather:   make(map[int64][]WeatherSnapshot),
		forecasts: make(map[int64][]ForecastPoint),
	}

	if cfg.Seed {
		for _, loc := range seedLocations() {
			s.insertLocation(loc)
		}
	}

	return s
}

// CreateLocation stores a new location.
func (s *MemoryStore) CreateLocation(_ context.Context, loc Location) (*Location, error) {
	if err := validateLocation(&loc); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.insertLocation(loc)
	return &created, nil
}

// insertLocation must be called with mu held for writing.
func (s *MemoryStore) insertLocation(loc Location) Location {
	s.nextLocationID++
	loc.ID = s.nextLocationID
	loc.CreatedAt = s.now()
	if loc.Country == "" {
		loc.Country = DefaultCountry
	}

	stored := loc
	s.locations[loc.ID] = &stored
	s.locationOrder = append(s.locationOrder, loc.ID)
	return loc
}

// GetLocation retrieves a location by id.
func (s *MemoryStore) GetLocation(_ context.Context, id int64) (*Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[id]
	if !ok {
		return nil, ErrLocationNotFound
	}
	out := *loc
	return &out, nil
}

// GetLocationByCoordinates finds a location within tolerance degrees.
func (s *MemoryStore) GetLocationByCoordinates(_ context.Context, lat, lon, tolerance float64) (*Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target := geo.Coordinates{Lat: lat, Lon: lon}
	for _, id := range s.locationOrder {
		loc := s.locations[id]
		if geo.DegreeDistance(loc.Coordinates(), target) < tolerance {
			out := *loc
			return &out, nil
		}
	}
	return nil, ErrLocationNotFound
}

// ListLocations returns all locations in insertion order.
func (s *MemoryStore) ListLocations(_ context.Context) ([]Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Location, 0, len(s.locationOrder))
	for _, id := range s.locationOrder {
		out = append(out, *s.locations[id])
	}
	return out, nil
}

// FindLocations performs a case-insensitive substring search.
func (s *MemoryStore) FindLocations(_ context.Context, query string) ([]Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.match(query), nil
}

// SearchLocations searches and synthesizes a location on a miss.
func (s *MemoryStore) SearchLocations(_ context.Context, query string) ([]Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := s.match(query)
	if len(results) > 0 {
		return results, nil
	}

	created := s.insertLocation(synthesizeLocation(query, s.rnd))
	return []Location{created}, nil
}

// match must be called with mu held.
func (s *MemoryStore) match(query string) []Location {
	q := strings.ToLower(query)
	results := []Location{}
	for _, id := range s.locationOrder {
		loc := s.locations[id]
		if strings.Contains(strings.ToLower(loc.City), q) ||
			strings.Contains(strings.ToLower(loc.State), q) ||
			strings.Contains(strings.ToLower(loc.Country), q) {
			results = append(results, *loc)
		}
	}
	return results
}

// CreateAqiReading stores a new reading stamped with the current time.
func (s *MemoryStore) CreateAqiReading(_ context.Context, r AqiReading) (*AqiReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReadingID++
	r.ID = s.nextReadingID
	r.Timestamp = s.now()
	s.readings[r.LocationID] = append(s.readings[r.LocationID], r)
	return &r, nil
}

// GetLatestAqiReading returns the reading with the greatest timestamp.
func (s *MemoryStore) GetLatestAqiReading(_ context.Context, locationID int64) (*AqiReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := s.readings[locationID]
	if len(readings) == 0 {
		return nil, ErrReadingNotFound
	}

	latest := readings[0]
	for _, r := range readings[1:] {
		if newer(r.Timestamp, r.ID, latest.Timestamp, latest.ID) {
			latest = r
		}
	}
	return &latest, nil
}

// GetAqiHistory returns up to limit readings, newest first.
func (s *MemoryStore) GetAqiHistory(_ context.Context, locationID int64, limit int) ([]AqiReading, error) {
	s.mu.RLock()
	history := make([]AqiReading, len(s.readings[locationID]))
	copy(history, s.readings[locationID])
	s.mu.RUnlock()

	sort.Slice(history, func(i, j int) bool {
		return newer(history[i].Timestamp, history[i].ID, history[j].Timestamp, history[j].ID)
	})

	limit = normalizeLimit(limit)
	if len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// CreateWeatherSnapshot stores a new weather snapshot.
func (s *MemoryStore) CreateWeatherSnapshot(_ context.Context, w WeatherSnapshot) (*WeatherSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextWeatherID++
	w.ID = s.nextWeatherID
	w.Timestamp = s.now()
	s.weather[w.LocationID] = append(s.weather[w.LocationID], w)
	return &w, nil
}

// GetLatestWeatherSnapshot returns the snapshot with the greatest timestamp.
func (s *MemoryStore) GetLatestWeatherSnapshot(_ context.Context, locationID int64) (*WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := s.weather[locationID]
	if len(snapshots) == 0 {
		return nil, ErrWeatherNotFound
	}

	latest := snapshots[0]
	for _, w := range snapshots[1:] {
		if newer(w.Timestamp, w.ID, latest.Timestamp, latest.ID) {
			latest = w
		}
	}
	return &latest, nil
}

// GetAlertPreference returns the stored alert preference.
func (s *MemoryStore) GetAlertPreference(_ context.Context) (*AlertPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.alert == nil {
		return nil, ErrAlertPreferenceNotFound
	}
	out := *s.alert
	return &out, nil
}

// GetOrDefaultAlertPreference returns the stored preference or defaults.
func (s *MemoryStore) GetOrDefaultAlertPreference(ctx context.Context) (*AlertPreference, error) {
	pref, err := s.GetAlertPreference(ctx)
	if err == ErrAlertPreferenceNotFound {
		def := DefaultAlertPreference()
		return &def, nil
	}
	return pref, err
}

// UpsertAlertPreference merges u into the singleton record.
func (s *MemoryStore) UpsertAlertPreference(_ context.Context, u AlertPreferenceUpdate) (*AlertPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alert == nil {
		pref := DefaultAlertPreference()
		s.nextAlertID++
		pref.ID = s.nextAlertID
		pref.CreatedAt = s.now()
		s.alert = &pref
	}

	u.Apply(s.alert)
	out := *s.alert
	return &out, nil
}

// GetForecast returns the forecast ordered by hour.
func (s *MemoryStore) GetForecast(_ context.Context, locationID int64) ([]ForecastPoint, error) {
	s.mu.RLock()
	points := make([]ForecastPoint, len(s.forecasts[locationID]))
	copy(points, s.forecasts[locationID])
	s.mu.RUnlock()

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Hour < points[j].Hour
	})
	return points, nil
}

// CreateForecastPoint stores a single forecast point.
func (s *MemoryStore) CreateForecastPoint(_ context.Context, p ForecastPoint) (*ForecastPoint, error) {
	if err := validateForecastPoint(p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.insertForecastPoint(p)
	return &created, nil
}

// ClearForecast deletes all forecast points for a location.
func (s *MemoryStore) ClearForecast(_ context.Context, locationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.forecasts, locationID)
	return nil
}

// ReplaceForecast swaps the location's forecast for points in one step.
func (s *MemoryStore) ReplaceForecast(_ context.Context, locationID int64, points []ForecastPoint) ([]ForecastPoint, error) {
	for _, p := range points {
		if err := validateForecastPoint(p); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.forecasts, locationID)
	out := make([]ForecastPoint, 0, len(points))
	for _, p := range points {
		p.LocationID = locationID
		out = append(out, s.insertForecastPoint(p))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hour < out[j].Hour
	})
	return out, nil
}

// insertForecastPoint must be called with mu held for writing.
func (s *MemoryStore) insertForecastPoint(p ForecastPoint) ForecastPoint {
	s.nextForecastID++
	p.ID = s.nextForecastID
	p.Timestamp = s.now()
	s.forecasts[p.LocationID] = append(s.forecasts[p.LocationID], p)
	return p
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// newer orders by timestamp, breaking ties by the later-assigned id.
func newer(ts time.Time, id int64, otherTS time.Time, otherID int64) bool {
	if ts.Equal(otherTS) {
		return id > otherID
	}
	return ts.After(otherTS)
}

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)
