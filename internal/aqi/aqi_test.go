package aqi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airpulse/airpulse/internal/aqi"
)

func TestCategoryFor_Boundaries(t *testing.T) {
	tests := []struct {
		aqi  int
		want aqi.Category
	}{
		{0, aqi.CategoryGood},
		{50, aqi.CategoryGood},
		{51, aqi.CategoryModerate},
		{100, aqi.CategoryModerate},
		{101, aqi.CategorySensitive},
		{150, aqi.CategorySensitive},
		{151, aqi.CategoryUnhealthy},
		{200, aqi.CategoryUnhealthy},
		{201, aqi.CategoryVeryUnhealthy},
		{300, aqi.CategoryVeryUnhealthy},
		{301, aqi.CategoryHazardous},
		{999, aqi.CategoryHazardous},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, aqi.CategoryFor(tt.aqi), "aqi=%d", tt.aqi)
	}
}

func TestCategoryFor_Monotonic(t *testing.T) {
	prev := aqi.CategoryFor(-10).Severity()
	for v := -9; v <= 600; v++ {
		sev := aqi.CategoryFor(v).Severity()
		require.GreaterOrEqual(t, sev, 0, "unknown category for %d", v)
		require.GreaterOrEqual(t, sev, prev, "severity decreased at %d", v)
		prev = sev
	}
}

func TestFromPollutants(t *testing.T) {
	assert.Equal(t, 40, aqi.FromPollutants(aqi.Pollutants{PM25: 10}))
	assert.Equal(t, 100, aqi.FromPollutants(aqi.Pollutants{PM25: 10, PM10: 50, O3: 20}))
	assert.Equal(t, 75, aqi.FromPollutants(aqi.Pollutants{O3: 50}))
	assert.Equal(t, 0, aqi.FromPollutants(aqi.Pollutants{NO2: 80, SO2: 10, CO: 3}))
	assert.Equal(t, 3, aqi.FromPollutants(aqi.Pollutants{O3: 1.7}))
}

func TestPrimaryPollutant(t *testing.T) {
	assert.Equal(t, aqi.LabelPM10, aqi.PrimaryPollutant(aqi.Pollutants{PM25: 5, PM10: 50, O3: 1}))
	assert.Equal(t, aqi.LabelCO, aqi.PrimaryPollutant(aqi.Pollutants{CO: 2}))
	assert.Equal(t, aqi.LabelNO2, aqi.PrimaryPollutant(aqi.Pollutants{PM25: 10, NO2: 40, SO2: 39}))

	// ties resolve in pm25, pm10, o3, no2, so2, co order
	assert.Equal(t, aqi.LabelPM25, aqi.PrimaryPollutant(aqi.Pollutants{}))
	assert.Equal(t, aqi.LabelPM10, aqi.PrimaryPollutant(aqi.Pollutants{PM10: 7, O3: 7, CO: 7}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, aqi.Clamp(-4))
	assert.Equal(t, 250, aqi.Clamp(250))
	assert.Equal(t, aqi.MaxIndex, aqi.Clamp(612))
}

func TestHealthRecommendations(t *testing.T) {
	good := aqi.HealthRecommendations(20)
	require.Len(t, good, 1)
	assert.Equal(t, aqi.SeverityInfo, good[0].Severity)

	moderate := aqi.HealthRecommendations(100)
	require.Len(t, moderate, 2)
	assert.Equal(t, "Moderate Air Quality", moderate[0].Title)

	for _, v := range []int{160, 250, 400} {
		recs := aqi.HealthRecommendations(v)
		require.NotEmpty(t, recs)
		assert.Equal(t, aqi.SeverityDanger, recs[0].Severity, "aqi=%d", v)
	}

	// callers get a copy
	good[0].Title = "changed"
	assert.Equal(t, "Great Air Quality", aqi.HealthRecommendations(20)[0].Title)
}

func TestColor(t *testing.T) {
	assert.Equal(t, "green", aqi.Color(10))
	assert.Equal(t, "orange", aqi.Color(120))
	assert.Equal(t, "maroon", aqi.Color(450))
}
