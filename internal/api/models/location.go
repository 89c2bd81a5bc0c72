package models

import "github.com/airpulse/airpulse/internal/store"

// Location is a named place with coordinates.
type Location struct {
	ID        int64      `json:"id"`
	City      string     `json:"city"`
	State     string     `json:"state"`
	Country   string     `json:"country"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	CreatedAt *Timestamp `json:"createdAt,omitempty"`
}

// NewLocation converts a stored location.
func NewLocation(l store.Location) Location {
	return Location{
		ID:        l.ID,
		City:      l.City,
		State:     l.State,
		Country:   l.Country,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		CreatedAt: timestampPtr(l.CreatedAt),
	}
}

// NewLocations converts a list of stored locations. The result is never nil
// so that an empty list encodes as [].
func NewLocations(ls []store.Location) []Location {
	out := make([]Location, 0, len(ls))
	for _, l := range ls {
		out = append(out, NewLocation(l))
	}
	return out
}
