package alerting_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airpulse/airpulse/internal/alerting"
	"github.com/airpulse/airpulse/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []alerting.Event
	err    error
	delay  time.Duration
}

func (p *recordingPublisher) Publish(_ context.Context, event alerting.Event) error {
	time.Sleep(p.delay)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Name() string { return "recording" }
func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []alerting.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]alerting.Event(nil), p.events...)
}

type staticGate bool

func (g staticGate) AlertsEnabled(context.Context) bool { return bool(g) }

var mumbai = store.Location{ID: 1, City: "Mumbai", State: "Maharashtra", Country: "India"}

func reading(id int64, value int) store.AqiReading {
	return store.AqiReading{ID: id, LocationID: mumbai.ID, AQI: value, Level: "x"}
}

func newService(t *testing.T, gate alerting.Gate) (*alerting.Service, *store.MemoryStore, *recordingPublisher) {
	t.Helper()
	st := store.NewMemoryStore(store.MemoryConfig{Seed: true})
	pub := &recordingPublisher{}
	svc := alerting.NewService(alerting.ServiceConfig{
		Preferences: st,
		Publisher:   pub,
		Gate:        gate,
		Logger:      zerolog.Nop(),
		Now:         func() time.Time { return time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC) },
	})
	return svc, st, pub
}

func TestEvaluate_BelowThreshold(t *testing.T) {
	svc, _, pub := newService(t, nil)

	require.NoError(t, svc.Evaluate(context.Background(), mumbai, reading(1, 100)))
	assert.Empty(t, pub.published())
}

func TestEvaluate_PublishesOncePerEpisode(t *testing.T) {
	svc, _, pub := newService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.Evaluate(ctx, mumbai, reading(1, 101)))
	require.NoError(t, svc.Evaluate(ctx, mumbai, reading(2, 180)))

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].LocationID)
	assert.Equal(t, 101, events[0].AQI)
	assert.Equal(t, store.DefaultAlertThreshold, events[0].Threshold)
	assert.Equal(t, []string{alerting.ChannelEmail}, events[0].Channels)
	assert.Equal(t, int64(1), events[0].ReadingID)
	assert.NotEmpty(t, events[0].ID)

	state, err := svc.State(ctx, mumbai.ID)
	require.NoError(t, err)
	assert.Equal(t, alerting.StatusAlerting, state.Status)

	// back under the threshold re-arms the alert
	require.NoError(t, svc.Evaluate(ctx, mumbai, reading(3, 90)))
	state, err = svc.State(ctx, mumbai.ID)
	require.NoError(t, err)
	assert.Equal(t, alerting.StatusClear, state.Status)

	require.NoError(t, svc.Evaluate(ctx, mumbai, reading(4, 130)))
	assert.Len(t, pub.published(), 2)
}

func TestEvaluate_UsesStoredPreference(t *testing.T) {
	svc, st, pub := newService(t, nil)
	ctx := context.Background()

	threshold := 150
	push := true
	email := false
	_, err := st.UpsertAlertPreference(ctx, store.AlertPreferenceUpdate{
		Threshold:          &threshold,
		PushNotifications:  &push,
		EmailNotifications: &email,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Evaluate(ctx, mumbai, reading(1, 150)))
	assert.Empty(t, pub.published())

	require.NoError(t, svc.Evaluate(ctx, mumbai, reading(2, 151)))
	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, []string{alerting.ChannelPush}, events[0].Channels)
}

func TestEvaluate_NoChannelsEnabled(t *testing.T) {
	svc, st, pub := newService(t, nil)
	ctx := context.Background()

	off := false
	_, err := st.UpsertAlertPreference(ctx, store.AlertPreferenceUpdate{EmailNotifications: &off})
	require.NoError(t, err)

	require.NoError(t, svc.Evaluate(ctx, mumbai, reading(1, 300)))
	assert.Empty(t, pub.published())

	state, err := svc.State(ctx, mumbai.ID)
	require.NoError(t, err)
	assert.Equal(t, alerting.StatusClear, state.Status)
}

func TestEvaluate_Disabled(t *testing.T) {
	svc, _, pub := newService(t, staticGate(false))

	require.NoError(t, svc.Evaluate(context.Background(), mumbai, reading(1, 400)))
	assert.Empty(t, pub.published())
}

func TestEvaluate_PublishFailureRetriesNextReading(t *testing.T) {
	svc, _, pub := newService(t, staticGate(true))
	ctx := context.Background()

	pub.err = errors.New("broker unavailable")
	err := svc.Evaluate(ctx, mumbai, reading(1, 200))
	assert.ErrorIs(t, err, alerting.ErrPublishFailed)

	state, err := svc.State(ctx, mumbai.ID)
	require.NoError(t, err)
	assert.Equal(t, alerting.StatusClear, state.Status)

	pub.err = nil
	require.NoError(t, svc.Evaluate(ctx, mumbai, reading(2, 200)))
	assert.Len(t, pub.published(), 1)
}

func TestEvaluate_ConcurrentReadingsPublishOnce(t *testing.T) {
	svc, _, pub := newService(t, nil)
	pub.delay = 20 * time.Millisecond
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = svc.Evaluate(ctx, mumbai, reading(int64(i+1), 250))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, pub.published(), 1)

	state, err := svc.State(ctx, mumbai.ID)
	require.NoError(t, err)
	assert.Equal(t, alerting.StatusAlerting, state.Status)
	assert.Equal(t, 250, state.AQI)
}
