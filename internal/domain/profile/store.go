package profile

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a profile id is unknown.
var ErrNotFound = errors.New("profile not found")

// Store persists profiles and the shared last-applied instant.
type Store interface {
	// ListAll never returns the ReservedID record.
	ListAll(ctx context.Context) ([]Profile, error)
	Get(ctx context.Context, id string) (Profile, bool, error)
	Create(ctx context.Context, p Profile) (Profile, error)
	UpdateProfile(ctx context.Context, p Profile) error
	UpdateRiskFields(ctx context.Context, id string, update RiskUpdate) error
	UpdateLastApplied(ctx context.Context, at time.Time) error
	ReadLastApplied(ctx context.Context) (time.Time, bool, error)
}
