// Package sensor describes the single shared "latest" sensor reading and the feed that pushes it.
package sensor

import (
	"context"
	"time"
)

// Reading is one snapshot of the shared sensor record.
type Reading struct {
	// UVIntensity is the raw intensity (practically 0..165+); nil when the record carries none.
	UVIntensity *int       `json:"uvIntensity,omitempty"`
	Applied     bool       `json:"applied"`
	AppliedAt   *time.Time `json:"appliedAt,omitempty"`
	ReceivedAt  time.Time  `json:"receivedAt"`
	Source      string     `json:"source,omitempty"`
}

// UV returns the intensity and whether it was present.
func (r Reading) UV() (int, bool) {
	if r.UVIntensity == nil {
		return 0, false
	}
	return *r.UVIntensity, true
}

// Intensity is a helper for building readings.
func Intensity(v int) *int {
	if v < 0 {
		v = 0
	}
	return &v
}

// Handler receives readings. A subscription never invokes its handler concurrently
// with itself, and the next reading waits until the handler returns.
type Handler func(ctx context.Context, reading Reading)

// Subscription is the handle returned by Feed.Subscribe.
type Subscription interface {
	ID() string
}

// Feed pushes the latest reading to subscribers.
type Feed interface {
	Subscribe(handler Handler) (Subscription, error)
	Unsubscribe(sub Subscription)
}

// Publisher overwrites the latest reading.
type Publisher interface {
	Publish(ctx context.Context, reading Reading) error
}

// LatestReader returns the current reading, if any.
type LatestReader interface {
	Latest(ctx context.Context) (Reading, bool, error)
}
