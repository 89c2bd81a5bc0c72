package telemetry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airpulse/airpulse/internal/telemetry"
)

func TestNewProviderMetrics(t *testing.T) {
	pm, err := telemetry.NewProviderMetrics()
	require.NoError(t, err)
	assert.NotNil(t, pm)
}

func TestProviderMetrics_Record(t *testing.T) {
	pm, err := telemetry.NewProviderMetrics()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		pm.RecordRequest("openaq", "latest", 120*time.Millisecond, nil)
		pm.RecordRequest("openweathermap", "current", time.Second, errors.New("timeout"))
		pm.RecordCacheHit("openaq", "latest")
		pm.RecordCacheMiss("openweathermap", "current")
		pm.RecordAlertPublished("log", nil)
	})
}

func TestProviderMetrics_NilIsNoop(t *testing.T) {
	var pm *telemetry.ProviderMetrics

	assert.NotPanics(t, func() {
		pm.RecordRequest("openaq", "latest", time.Millisecond, nil)
		pm.RecordCacheHit("openaq", "latest")
		pm.RecordCacheMiss("openaq", "latest")
		pm.RecordAlertPublished("kafka", errors.New("broker down"))
	})
}
