// Package aqi provides pure functions that derive AQI categories, primary
// pollutants and health advice from pollutant concentrations.
//
// The AQI computation here is a simplified linear approximation and not the
// EPA breakpoint-table formula. It must not be used for regulatory reporting.
package aqi

import "math"

// Category is an AQI severity label.
type Category string

// Category labels, ordered by increasing severity.
const (
	CategoryGood          Category = "Good"
	CategoryModerate      Category = "Moderate"
	CategorySensitive     Category = "Unhealthy for Sensitive"
	CategoryUnhealthy     Category = "Unhealthy"
	CategoryVeryUnhealthy Category = "Very Unhealthy"
	CategoryHazardous     Category = "Hazardous"
)

// Band upper bounds (inclusive).
const (
	upperGood          = 50
	upperModerate      = 100
	upperSensitive     = 150
	upperUnhealthy     = 200
	upperVeryUnhealthy = 300

	// MaxIndex is the top of the nominal AQI scale.
	MaxIndex = 500
)

// Categories lists every category from least to most severe.
var Categories = []Category{
	CategoryGood,
	CategoryModerate,
	CategorySensitive,
	CategoryUnhealthy,
	CategoryVeryUnhealthy,
	CategoryHazardous,
}

// Pollutant labels as returned by PrimaryPollutant.
const (
	LabelPM25 = "PM2.5"
	LabelPM10 = "PM10"
	LabelO3   = "O₃"
	LabelNO2  = "NO₂"
	LabelSO2  = "SO₂"
	LabelCO   = "CO"
)

// Pollutants is a fixed six-field concentration snapshot.
// Unknown pollutants are 0.
type Pollutants struct {
	PM25 float64
	PM10 float64
	O3   float64
	NO2  float64
	SO2  float64
	CO   float64
}

// CategoryFor maps an AQI value to its category. Band upper bounds are
// inclusive: 50 is Good, 51 is Moderate.
func CategoryFor(aqi int) Category {
	switch {
	case aqi <= upperGood:
		return CategoryGood
	case aqi <= upperModerate:
		return CategoryModerate
	case aqi <= upperSensitive:
		return CategorySensitive
	case aqi <= upperUnhealthy:
		return CategoryUnhealthy
	case aqi <= upperVeryUnhealthy:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}

// Severity returns the position of c in Categories, or -1 if unknown.
func (c Category) Severity() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return -1
}

// PrimaryPollutant returns the label of the pollutant with the highest
// concentration. Ties resolve in the order pm25, pm10, o3, no2, so2, co.
func PrimaryPollutant(p Pollutants) string {
	ordered := []struct {
		label string
		value float64
	}{
		{LabelPM25, p.PM25},
		{LabelPM10, p.PM10},
		{LabelO3, p.O3},
		{LabelNO2, p.NO2},
		{LabelSO2, p.SO2},
		{LabelCO, p.CO},
	}

	best := ordered[0]
	for _, candidate := range ordered[1:] {
		if candidate.value > best.value {
			best = candidate
		}
	}
	return best.label
}

// FromPollutants computes round(max(pm25·4, pm10·2, o3·1.5)).
func FromPollutants(p Pollutants) int {
	return int(math.Round(math.Max(p.PM25*4, math.Max(p.PM10*2, p.O3*1.5))))
}

// Clamp limits an AQI value to [0, MaxIndex].
func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxIndex {
		return MaxIndex
	}
	return v
}

// Color returns the dashboard colour band for an AQI value.
func Color(aqi int) string {
	switch CategoryFor(aqi) {
	case CategoryGood:
		return "green"
	case CategoryModerate:
		return "yellow"
	case CategorySensitive:
		return "orange"
	case CategoryUnhealthy:
		return "red"
	case CategoryVeryUnhealthy:
		return "purple"
	default:
		return "maroon"
	}
}
