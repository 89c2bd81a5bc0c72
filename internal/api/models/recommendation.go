package models

import "github.com/airpulse/airpulse/internal/aqi"

// Recommendation is a piece of health advice for an AQI band.
type Recommendation struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// NewRecommendations returns the advice for the band containing value.
func NewRecommendations(value int) []Recommendation {
	recs := aqi.HealthRecommendations(value)
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		out = append(out, Recommendation{
			Icon:        r.Icon,
			Title:       r.Title,
			Description: r.Description,
			Severity:    string(r.Severity),
		})
	}
	return out
}
