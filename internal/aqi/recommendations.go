package aqi

// Severity of a health recommendation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Recommendation is a static piece of health advice for an AQI band.
type Recommendation struct {
	Icon        string
	Title       string
	Description string
	Severity    Severity
}

var recommendationsByCategory = map[Category][]Recommendation{
	CategoryGood: {
		{Icon: "CheckCircle", Title: "Great Air Quality", Description: "Perfect for all outdoor activities", Severity: SeverityInfo},
	},
	CategoryModerate: {
		{Icon: "AlertTriangle", Title: "Moderate Air Quality", Description: "Sensitive individuals should limit outdoor activities", Severity: SeverityWarning},
		{Icon: "Home", Title: "Consider Indoor Activities", Description: "Children and elderly should stay indoors during peak hours", Severity: SeverityInfo},
	},
	CategorySensitive: {
		{Icon: "Shield", Title: "Wear a Mask", Description: "N95 masks recommended for outdoor activities", Severity: SeverityWarning},
		{Icon: "Home", Title: "Limit Outdoor Exposure", Description: "Reduce prolonged outdoor activities", Severity: SeverityWarning},
	},
	CategoryUnhealthy: {
		{Icon: "AlertCircle", Title: "Stay Indoors", Description: "Avoid outdoor activities completely", Severity: SeverityDanger},
		{Icon: "Shield", Title: "Essential Protection", Description: "N95 or higher grade masks required if going outside", Severity: SeverityDanger},
		{Icon: "Wind", Title: "Use Air Purifiers", Description: "Keep windows closed and use air purifiers indoors", Severity: SeverityWarning},
	},
	CategoryVeryUnhealthy: {
		{Icon: "AlertCircle", Title: "Stay Indoors", Description: "Avoid outdoor activities completely", Severity: SeverityDanger},
		{Icon: "Shield", Title: "Essential Protection", Description: "N95 or higher grade masks required if going outside", Severity: SeverityDanger},
		{Icon: "Wind", Title: "Use Air Purifiers", Description: "Keep windows closed and use air purifiers indoors", Severity: SeverityWarning},
		{Icon: "HeartPulse", Title: "Watch for Symptoms", Description: "Seek medical advice if you experience breathing difficulty", Severity: SeverityDanger},
	},
	CategoryHazardous: {
		{Icon: "AlertOctagon", Title: "Health Emergency", Description: "Everyone should avoid all outdoor exertion", Severity: SeverityDanger},
		{Icon: "Shield", Title: "Essential Protection", Description: "N95 or higher grade masks required if going outside", Severity: SeverityDanger},
		{Icon: "Wind", Title: "Use Air Purifiers", Description: "Keep windows closed and use air purifiers indoors", Severity: SeverityDanger},
		{Icon: "HeartPulse", Title: "Watch for Symptoms", Description: "Seek medical advice if you experience breathing difficulty", Severity: SeverityDanger},
	},
}

// HealthRecommendations returns the ordered advice for the band containing aqi.
// The returned slice is a copy and may be modified by the caller.
func HealthRecommendations(aqi int) []Recommendation {
	recs := recommendationsByCategory[CategoryFor(aqi)]
	out := make([]Recommendation, len(recs))
	copy(out, recs)
	return out
}
