package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStateTTL bounds how long an ALERTING state is remembered.
const DefaultStateTTL = 24 * time.Hour

// StateStore persists per-location alert state. A missing state is CLEAR.
type StateStore interface {
	Get(ctx context.Context, locationID int64) (*State, error)
	Set(ctx context.Context, locationID int64, state *State) error
	Clear(ctx context.Context, locationID int64) error

	// TryAcquire stores state only if the location has no live state. It
	// reports whether this call won the claim.
	TryAcquire(ctx context.Context, locationID int64, state *State) (bool, error)
}

// RedisStateStore keeps alert state in Redis so replicas share it.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore creates a Redis-backed state store. A ttl <= 0 uses
// DefaultStateTTL.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &RedisStateStore{client: client, ttl: ttl}
}

// StateKey returns the Redis key for a location's alert state.
func StateKey(locationID int64) string {
	return "alert_state:" + strconv.FormatInt(locationID, 10)
}

// Get returns the stored state, or CLEAR when none exists.
func (s *RedisStateStore) Get(ctx context.Context, locationID int64) (*State, error) {
	data, err := s.client.Get(ctx, StateKey(locationID)).Bytes()
	if err == redis.Nil {
		return &State{Status: StatusClear}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert state from redis: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert state: %w", err)
	}
	return &state, nil
}

// Set stores the state with the configured expiry.
func (s *RedisStateStore) Set(ctx context.Context, locationID int64, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal alert state: %w", err)
	}
	if err := s.client.Set(ctx, StateKey(locationID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set alert state in redis: %w", err)
	}
	return nil
}

// TryAcquire claims the location with SET NX so only one replica publishes
// per episode.
func (s *RedisStateStore) TryAcquire(ctx context.Context, locationID int64, state *State) (bool, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return false, fmt.Errorf("failed to marshal alert state: %w", err)
	}
	ok, err := s.client.SetNX(ctx, StateKey(locationID), data, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim alert state in redis: %w", err)
	}
	return ok, nil
}

// Clear removes the state, returning the location to CLEAR.
func (s *RedisStateStore) Clear(ctx context.Context, locationID int64) error {
	return s.client.Del(ctx, StateKey(locationID)).Err()
}

// Ping reports whether Redis is reachable.
func (s *RedisStateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MemoryStateStore is a process-local StateStore.
type MemoryStateStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[int64]memoryState
}

type memoryState struct {
	state     State
	expiresAt time.Time
}

// NewMemoryStateStore creates an in-memory state store. A ttl <= 0 uses
// DefaultStateTTL; a nil now uses time.Now.
func NewMemoryStateStore(ttl time.Duration, now func() time.Time) *MemoryStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStateStore{ttl: ttl, now: now, states: make(map[int64]memoryState)}
}

// Get returns the stored state, or CLEAR when none exists or it expired.
func (m *MemoryStateStore) Get(_ context.Context, locationID int64) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.states[locationID]
	if !ok || !m.now().Before(entry.expiresAt) {
		delete(m.states, locationID)
		return &State{Status: StatusClear}, nil
	}
	state := entry.state
	return &state, nil
}

// Set stores the state.
func (m *MemoryStateStore) Set(_ context.Context, locationID int64, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[locationID] = memoryState{state: *state, expiresAt: m.now().Add(m.ttl)}
	return nil
}

// TryAcquire stores state unless a live state already exists.
func (m *MemoryStateStore) TryAcquire(_ context.Context, locationID int64, state *State) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.states[locationID]; ok && m.now().Before(entry.expiresAt) {
		return false, nil
	}
	m.states[locationID] = memoryState{state: *state, expiresAt: m.now().Add(m.ttl)}
	return true, nil
}

// Clear removes the state.
func (m *MemoryStateStore) Clear(_ context.Context, locationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, locationID)
	return nil
}

var (
	_ StateStore = (*RedisStateStore)(nil)
	_ StateStore = (*MemoryStateStore)(nil)
)
