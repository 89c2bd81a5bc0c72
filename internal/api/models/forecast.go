package models

import "github.com/airpulse/airpulse/internal/store"

// ForecastPoint is one hour of the 48-hour forecast.
type ForecastPoint struct {
	ID             int64     `json:"id"`
	LocationID     int64     `json:"locationId"`
	Hour           int       `json:"hour"`
	PredictedAQI   int       `json:"predictedAqi"`
	PredictedLevel string    `json:"predictedLevel"`
	Timestamp      Timestamp `json:"timestamp"`
}

// NewForecast converts stored forecast points. Never nil.
func NewForecast(points []store.ForecastPoint) []ForecastPoint {
	out := make([]ForecastPoint, 0, len(points))
	for _, p := range points {
		out = append(out, ForecastPoint{
			ID:             p.ID,
			LocationID:     p.LocationID,
			Hour:           p.Hour,
			PredictedAQI:   p.PredictedAQI,
			PredictedLevel: p.PredictedLevel,
			Timestamp:      Timestamp(p.Timestamp),
		})
	}
	return out
}
