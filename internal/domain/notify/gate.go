// Package notify turns sensor readings into de-duplicated sunscreen notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/suncare/internal/domain/sensor"
	"github.com/yanqian/suncare/pkg/metrics"
	"github.com/yanqian/suncare/pkg/util"
)

const (
	reminderTitle = "Sunscreen Reminder"
	reminderBody  = "UV intensity is %d! Please apply/re-apply sunscreen to protect your skin from harmful UV rays."
	appliedTitle  = "Sunscreen Applied!"
	appliedBody   = "Great job! You've applied sunscreen to protect your skin."
)

// Gate holds the state for one session. The UV reminder and the applied
// confirmation are independent sub-machines fed by the same reading.
type Gate struct {
	threshold int
	notifier  Notifier
	store     LastAppliedStore
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	mu    sync.Mutex
	state State
}

// NewGate builds a gate; store may be nil when the session should not persist.
func NewGate(threshold int, notifier Notifier, store LastAppliedStore, logger *slog.Logger) *Gate {
	if threshold <= 0 {
		threshold = DefaultUVThreshold
	}
	return &Gate{
		threshold: threshold,
		notifier:  notifier,
		store:     store,
		logger:    logger.With("component", "notify.gate"),
		now:       util.NowUTC,
		newID:     uuid.NewString,
	}
}

// Handle evaluates one reading and returns whatever fired. Delivery and
// persistence failures are logged and never returned.
func (g *Gate) Handle(ctx context.Context, reading sensor.Reading) []Notification {
	now := g.now()

	g.mu.Lock()
	var fired []Notification
	if uv, ok := reading.UV(); ok {
		if n, ok := g.evaluateUVLocked(uv, now); ok {
			fired = append(fired, n)
		}
	}
	var appliedAt *time.Time
	if reading.Applied {
		at := now
		if reading.AppliedAt != nil && !reading.AppliedAt.IsZero() {
			at = reading.AppliedAt.UTC()
		}
		g.state.LastAppliedAt = &at
		appliedAt = &at
		if !g.state.LastAppliedEdge {
			fired = append(fired, g.appliedLocked(now))
		}
	}
	g.state.LastAppliedEdge = reading.Applied
	g.mu.Unlock()

	if appliedAt != nil && g.store != nil {
		if err := g.store.UpdateLastApplied(ctx, *appliedAt); err != nil {
			g.logger.Warn("persist last applied failed", "error", err)
		}
	}
	for _, n := range fired {
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind)).Inc()
		if g.notifier == nil {
			continue
		}
		if err := g.notifier.Notify(ctx, n); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			g.logger.Warn("notification delivery failed", "id", n.ID, "kind", n.Kind, "error", err)
		}
	}
	return fired
}

// State returns a copy of the gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := State{LastAppliedEdge: g.state.LastAppliedEdge}
	if g.state.LastNotifiedUV != nil {
		v := *g.state.LastNotifiedUV
		st.LastNotifiedUV = &v
	}
	if g.state.LastAppliedAt != nil {
		at := *g.state.LastAppliedAt
		st.LastAppliedAt = &at
	}
	return st
}

func (g *Gate) evaluateUVLocked(uv int, now time.Time) (Notification, bool) {
	if uv < g.threshold {
		g.state.LastNotifiedUV = nil
		return Notification{}, false
	}
	if g.state.LastNotifiedUV != nil && *g.state.LastNotifiedUV == uv {
		return Notification{}, false
	}
	level := uv
	g.state.LastNotifiedUV = &level
	return Notification{
		ID:          fmt.Sprintf("sunscreen_reminder_%d_%s", uv, g.newID()),
		Kind:        KindReminder,
		Title:       reminderTitle,
		Body:        fmt.Sprintf(reminderBody, uv),
		UVIntensity: sensor.Intensity(uv),
		FiredAt:     now,
	}, true
}

func (g *Gate) appliedLocked(now time.Time) Notification {
	return Notification{
		ID:      "sunscreen_applied_" + g.newID(),
		Kind:    KindApplied,
		Title:   appliedTitle,
		Body:    appliedBody,
		FiredAt: now,
	}
}
