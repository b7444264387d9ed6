package notify

import (
	"context"
	"time"
)

// DefaultUVThreshold is the raw intensity at or above which a reminder fires.
const DefaultUVThreshold = 10

// Kind separates the two notification families.
type Kind string

const (
	KindReminder Kind = "uv_reminder"
	KindApplied  Kind = "applied_confirmation"
)

// Notification is a fire-and-forget local alert. ID is unique per firing.
type Notification struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	UVIntensity *int      `json:"uvIntensity,omitempty"`
	FiredAt     time.Time `json:"firedAt"`
}

// Notifier delivers notifications on a best-effort basis.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LastAppliedStore persists the shared "last applied" instant.
type LastAppliedStore interface {
	UpdateLastApplied(ctx context.Context, at time.Time) error
}

// State is a snapshot of one gate.
type State struct {
	LastNotifiedUV  *int       `json:"lastNotifiedUvLevel,omitempty"`
	LastAppliedEdge bool       `json:"lastAppliedEdge"`
	LastAppliedAt   *time.Time `json:"lastAppliedAt,omitempty"`
}
