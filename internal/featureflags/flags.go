// Package featureflags provides runtime switches for dashboard behaviour.
package featureflags

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagSearchSynthesizeOnMiss makes a location search with no matches
	// create a demo location named after the query. When off, the search
	// returns an empty list.
	FlagSearchSynthesizeOnMiss = "search_synthesize_on_miss"

	// FlagAlertsEnabled gates alert evaluation after new AQI readings.
	FlagAlertsEnabled = "alerts_enabled"

	// FlagCachedOnlyCurrent serves stored readings without consulting
	// upstream providers, however old they are.
	FlagCachedOnlyCurrent = "cached_only_current"
)

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (f *Flag) clone() *Flag {
	return &Flag{Key: f.Key, Value: f.Value, UpdatedAt: f.UpdatedAt}
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// StringValue returns the flag value as a string.
func (f *Flag) StringValue(defaultValue string) string {
	if f == nil {
		return defaultValue
	}
	if v, ok := f.Value.(string); ok {
		return v
	}
	return defaultValue
}

// IntValue returns the flag value as an integer.
func (f *Flag) IntValue(defaultValue int) int {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return defaultValue
	}
}

// JSONValue unmarshals the flag value into target.
func (f *Flag) JSONValue(target interface{}) error {
	if f == nil {
		return nil
	}
	data, err := json.Marshal(f.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// DefaultFlags returns the default feature flags for the application.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagSearchSynthesizeOnMiss: {Key: FlagSearchSynthesizeOnMiss, Value: true, UpdatedAt: now},
		FlagAlertsEnabled:          {Key: FlagAlertsEnabled, Value: true, UpdatedAt: now},
		FlagCachedOnlyCurrent:      {Key: FlagCachedOnlyCurrent, Value: false, UpdatedAt: now},
	}
}

// ParseOverrides parses "key=value,key=value" into flags. Values that parse
// as booleans or numbers are stored as such; anything else is kept as a
// string. Malformed pairs are skipped.
func ParseOverrides(s string) map[string]*Flag {
	out := make(map[string]*Flag)
	now := time.Now()

	for _, pair := range strings.Split(s, ",") {
		key, raw, ok := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		raw = strings.TrimSpace(raw)

		var value interface{} = raw
		if b, err := strconv.ParseBool(raw); err == nil {
			value = b
		} else if n, err := strconv.ParseFloat(raw, 64); err == nil {
			value = n
		}

		out[key] = &Flag{Key: key, Value: value, UpdatedAt: now}
	}
	return out
}

// Merge returns defaults with overrides applied on top.
func Merge(defaults, overrides map[string]*Flag) map[string]*Flag {
	out := make(map[string]*Flag, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v.clone()
	}
	for k, v := range overrides {
		out[k] = v.clone()
	}
	return out
}
