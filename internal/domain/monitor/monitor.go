// Package monitor recalculates live risk for every known profile as the shared UV reading changes.
package monitor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/suncare/internal/domain/profile"
	"github.com/yanqian/suncare/internal/domain/risk"
	"github.com/yanqian/suncare/internal/domain/sensor"
	apperrors "github.com/yanqian/suncare/pkg/errors"
	"github.com/yanqian/suncare/pkg/metrics"
	"github.com/yanqian/suncare/pkg/util"
)

// Monitor owns the tracking table. All mutation happens under mu; every start
// bumps generation so work started by an older subscription cannot touch a newer table.
type Monitor struct {
	cfg    Config
	store  ProfileSource
	feed   sensor.Feed
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	state         State
	generation    uint64
	entries       map[string]*Entry
	sub           sensor.Subscription
	lastReadingAt time.Time
	lastUV        *int
}

// New builds a stopped monitor.
func New(cfg Config, store ProfileSource, feed sensor.Feed, logger *slog.Logger) *Monitor {
	return &Monitor{
		cfg:    defaultConfig(cfg),
		store:  store,
		feed:   feed,
		logger: logger.With("component", "monitor"),
		now:    util.NowUTC,
	}
}

// Start loads every profile and subscribes to the feed. It is a no-op unless stopped.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateStopped {
		m.mu.Unlock()
		return nil
	}
	m.generation++
	gen := m.generation
	m.setStateLocked(StateLoading)
	m.mu.Unlock()

	profiles, err := m.store.ListAll(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		m.logger.Info("monitor stopped while loading profiles")
		return nil
	}
	if err != nil {
		m.setStateLocked(StateStopped)
		m.logger.Error("monitor start failed", "error", err)
		return apperrors.Wrap("monitor_error", "failed to load profiles", err)
	}

	now := m.now()
	entries := make(map[string]*Entry, len(profiles))
	for _, p := range profiles {
		if p.ID == profile.ReservedID {
			continue
		}
		entries[p.ID] = newEntry(p, now)
	}

	sub, err := m.feed.Subscribe(m.handler(gen))
	if err != nil {
		m.setStateLocked(StateStopped)
		return apperrors.Wrap("feed_error", "failed to subscribe to sensor feed", err)
	}
	m.entries = entries
	m.sub = sub
	m.setStateLocked(StateListening)
	metrics.TrackedProfiles.Set(float64(len(entries)))
	m.logger.Info("monitor listening", "tracked_profiles", len(entries))
	return nil
}

// Stop unsubscribes and drops the tracking table. Writes still in flight finish but
// their results are discarded.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.state == StateStopped {
		m.mu.Unlock()
		return
	}
	sub := m.sub
	m.sub = nil
	m.entries = nil
	m.lastUV = nil
	m.lastReadingAt = time.Time{}
	m.generation++
	m.setStateLocked(StateStopped)
	m.mu.Unlock()

	if sub != nil {
		m.feed.Unsubscribe(sub)
	}
	metrics.TrackedProfiles.Set(0)
	m.logger.Info("monitor stopped")
}

// Track adds a profile registered after start, or refreshes the cached attributes
// of one already tracked without resetting its gate.
func (m *Monitor) Track(p profile.Profile) {
	if p.ID == "" || p.ID == profile.ReservedID {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateListening {
		return
	}
	if e, ok := m.entries[p.ID]; ok {
		e.SkinToneIndex = risk.ClampSkinTone(p.SkinToneIndex)
		e.Age = p.Age
		e.ConditionSeverity = p.ConditionSeverity
		return
	}
	m.entries[p.ID] = newEntry(p, m.now())
	metrics.TrackedProfiles.Set(float64(len(m.entries)))
}

// State reports the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns a snapshot of the tracking table sorted by user id.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{
		State:           m.state.String(),
		TrackedProfiles: len(m.entries),
		LastReadingAt:   util.TimePtr(m.lastReadingAt),
	}
	if m.lastUV != nil {
		uv := *m.lastUV
		st.LastUV = &uv
	}
	if len(m.entries) > 0 {
		st.Entries = make([]Entry, 0, len(m.entries))
		for _, e := range m.entries {
			st.Entries = append(st.Entries, *e)
		}
		sort.Slice(st.Entries, func(i, j int) bool { return st.Entries[i].UserID < st.Entries[j].UserID })
	}
	return st
}

func (m *Monitor) handler(gen uint64) sensor.Handler {
	return func(ctx context.Context, reading sensor.Reading) {
		m.onReading(ctx, gen, reading)
	}
}

func (m *Monitor) onReading(ctx context.Context, gen uint64, reading sensor.Reading) {
	uv, ok := reading.UV()
	if !ok {
		return
	}
	now := m.now()

	m.mu.Lock()
	if m.state != StateListening || m.generation != gen {
		m.mu.Unlock()
		return
	}
	m.lastReadingAt = now
	m.lastUV = &uv
	due := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if m.shouldRecalculate(*e, uv, now) {
			due = append(due, *e)
		}
	}
	m.mu.Unlock()

	if len(due) == 0 {
		return
	}
	written := m.persist(ctx, due, uv, now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateListening || m.generation != gen {
		return
	}
	for _, id := range written {
		if e, ok := m.entries[id]; ok {
			e.PreviousUV = uv
			e.LastCalculation = now
		}
	}
	m.logger.Debug("risk recalculated", "uv", uv, "due", len(due), "written", len(written))
}

func (m *Monitor) shouldRecalculate(e Entry, uv int, now time.Time) bool {
	delta := uv - e.PreviousUV
	if delta < 0 {
		delta = -delta
	}
	return delta >= m.cfg.UVDeltaThreshold || now.Sub(e.LastCalculation) >= m.cfg.RecalcInterval
}

// persist writes every due entry concurrently and returns the ids that succeeded.
func (m *Monitor) persist(ctx context.Context, due []Entry, uv int, now time.Time) []string {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		written = make([]string, 0, len(due))
	)
	g.SetLimit(m.cfg.WriteConcurrency)
	for _, e := range due {
		e := e
		g.Go(func() error {
			update := profile.RiskUpdate{
				Final:        risk.FinalWithUV(e.SkinToneIndex, e.Age, e.ConditionSeverity, uv),
				CurrentUV:    sensor.Intensity(uv),
				LastUVUpdate: util.TimePtr(now),
			}
			wctx, cancel := context.WithTimeout(ctx, m.cfg.WriteTimeout)
			defer cancel()
			if err := m.store.UpdateRiskFields(wctx, e.UserID, update); err != nil {
				metrics.RiskRecalculationsTotal.WithLabelValues("error").Inc()
				m.logger.Warn("risk write failed, will retry on next qualifying reading", "profile_id", e.UserID, "error", err)
				return nil
			}
			metrics.RiskRecalculationsTotal.WithLabelValues("ok").Inc()
			mu.Lock()
			written = append(written, e.UserID)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return written
}

func (m *Monitor) setStateLocked(s State) {
	m.state = s
	metrics.MonitorState.Set(float64(s))
}

func newEntry(p profile.Profile, now time.Time) *Entry {
	return &Entry{
		UserID:            p.ID,
		PreviousUV:        0,
		LastCalculation:   now,
		SkinToneIndex:     risk.ClampSkinTone(p.SkinToneIndex),
		Age:               p.Age,
		ConditionSeverity: p.ConditionSeverity,
	}
}
