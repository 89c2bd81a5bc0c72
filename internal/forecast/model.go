// Package forecast produces the 48-hour synthetic AQI outlook for a location.
package forecast

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/airpulse/airpulse/internal/aqi"
	"github.com/airpulse/airpulse/internal/store"
)

// Model generates forecast points from a base AQI.
type Model interface {
	Generate(locationID int64, baseAQI int) []store.ForecastPoint
}

// Synthetic model parameters.
const (
	noiseAmplitude   = 20.0
	diurnalAmplitude = 20.0
	diurnalPeriodH   = 24.0
)

// SyntheticModel adds uniform noise and a 24-hour sine cycle to the base AQI.
// It is not a prediction.
type SyntheticModel struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSyntheticModel creates a model drawing from rnd. A nil rnd uses a
// time-seeded source.
func NewSyntheticModel(rnd *rand.Rand) *SyntheticModel {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &SyntheticModel{rnd: rnd}
}

// Generate returns store.ForecastHours points ordered by hour.
func (m *SyntheticModel) Generate(locationID int64, baseAQI int) []store.ForecastPoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	points := make([]store.ForecastPoint, 0, store.ForecastHours)
	for h := 0; h < store.ForecastHours; h++ {
		noise := (m.rnd.Float64()*2 - 1) * noiseAmplitude
		diurnal := diurnalAmplitude * math.Sin(float64(h)*2*math.Pi/diurnalPeriodH)
		predicted := aqi.Clamp(int(math.Round(float64(baseAQI) + noise + diurnal)))

		points = append(points, store.ForecastPoint{
			LocationID:     locationID,
			Hour:           h,
			PredictedAQI:   predicted,
			PredictedLevel: string(aqi.CategoryFor(predicted)),
		})
	}
	return points
}

// Ensure SyntheticModel implements Model.
var _ Model = (*SyntheticModel)(nil)
