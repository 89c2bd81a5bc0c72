package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when no row exists for a flag key.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository persists flag overrides. Keys absent from the repository fall
// back to the service defaults, so an empty repository is valid.
type Repository interface {
	// GetFlag returns ErrFlagNotFound for keys without an override.
	GetFlag(ctx context.Context, key string) (*Flag, error)

	// GetAllFlags returns every stored override keyed by flag key.
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlag upserts one override.
	SetFlag(ctx context.Context, flag *Flag) error

	// SetFlags upserts several overrides in one write; either all are
	// stored or none are.
	SetFlags(ctx context.Context, flags []*Flag) error

	// DeleteFlag removes an override, returning the key to its default.
	DeleteFlag(ctx context.Context, key string) error
}
