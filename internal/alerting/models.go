// Package alerting evaluates new AQI readings against the alert preference
// and publishes an event when a location crosses the threshold.
package alerting

import (
	"errors"
	"time"
)

// ErrPublishFailed wraps publisher errors.
var ErrPublishFailed = errors.New("alert publish failed")

// Alert states per location.
const (
	StatusClear    = "CLEAR"
	StatusAlerting = "ALERTING"
)

// Notification channels.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
)

// State is the alert status of one location.
type State struct {
	Status      string    `json:"status"`
	AQI         int       `json:"aqi"`
	Threshold   int       `json:"threshold"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// Event is published when a location's AQI rises above the threshold.
// ID is unique per publish attempt so consumers can drop redeliveries.
type Event struct {
	ID          string    `json:"id"`
	LocationID  int64     `json:"locationId"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	AQI         int       `json:"aqi"`
	Level       string    `json:"level"`
	Threshold   int       `json:"threshold"`
	Channels    []string  `json:"channels"`
	ReadingID   int64     `json:"readingId"`
	TriggeredAt time.Time `json:"triggeredAt"`
}
