package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/suncare/internal/domain/profile"
	"github.com/yanqian/suncare/internal/domain/risk"
	"github.com/yanqian/suncare/internal/domain/sensor"
	apperrors "github.com/yanqian/suncare/pkg/errors"
)

func TestStartBuildsEntriesAndSkipsReserved(t *testing.T) {
	store := newStubStore(
		profile.Profile{ID: "a", Age: 30, SkinToneIndex: 1, ConditionSeverity: 0},
		profile.Profile{ID: profile.ReservedID},
		profile.Profile{ID: "b", Age: 65, SkinToneIndex: 8, ConditionSeverity: 2},
	)
	feed := &stubFeed{}
	m, clock := newMonitorUnderTest(store, feed)

	require.NoError(t, m.Start(context.Background()))
	require.Equal(t, StateListening, m.State())
	require.Equal(t, 1, feed.active())

	st := m.Status()
	require.Equal(t, "listening", st.State)
	require.Equal(t, 2, st.TrackedProfiles)
	require.Equal(t, []Entry{
		{UserID: "a", PreviousUV: 0, LastCalculation: clock.Now(), SkinToneIndex: 1, Age: 30},
		{UserID: "b", PreviousUV: 0, LastCalculation: clock.Now(), SkinToneIndex: 6, Age: 65, ConditionSeverity: 2},
	}, st.Entries)
}

func TestStartIsNoOpWhileListening(t *testing.T) {
	feed := &stubFeed{}
	m, _ := newMonitorUnderTest(newStubStore(profile.Profile{ID: "a"}), feed)

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Start(context.Background()))
	require.Equal(t, 1, feed.subscribes)
}

func TestStartLoadFailureStaysStopped(t *testing.T) {
	store := newStubStore()
	store.listErr = errors.New("unreachable")
	feed := &stubFeed{}
	m, _ := newMonitorUnderTest(store, feed)

	err := m.Start(context.Background())
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "monitor_error"))
	require.Equal(t, StateStopped, m.State())
	require.Equal(t, 0, feed.subscribes)

	store.listErr = nil
	require.NoError(t, m.Start(context.Background()))
	require.Equal(t, StateListening, m.State())
}

func TestDualGate(t *testing.T) {
	store := newStubStore(profile.Profile{ID: "a", Age: 30, SkinToneIndex: 1})
	feed := &stubFeed{}
	m, clock := newMonitorUnderTest(store, feed)
	require.NoError(t, m.Start(context.Background()))

	// delta 50 after 500s: below both thresholds.
	clock.Advance(500 * time.Second)
	feed.emit(uvReading(50))
	require.Empty(t, store.writes())

	// delta 150 after 10 more seconds: delta gate fires once.
	clock.Advance(10 * time.Second)
	feed.emit(uvReading(150))
	writes := store.writes()
	require.Len(t, writes, 1)
	require.Equal(t, "a", writes[0].id)
	require.Equal(t, 150, *writes[0].update.CurrentUV)
	require.Equal(t, risk.FinalWithUV(1, 30, 0, 150), writes[0].update.Final)
	require.Equal(t, clock.Now(), *writes[0].update.LastUVUpdate)

	entry := m.Status().Entries[0]
	require.Equal(t, 150, entry.PreviousUV)
	require.Equal(t, clock.Now(), entry.LastCalculation)
}

func TestTimeGateFiresOnStableUV(t *testing.T) {
	store := newStubStore(profile.Profile{ID: "a", Age: 30, SkinToneIndex: 1})
	feed := &stubFeed{}
	m, clock := newMonitorUnderTest(store, feed)
	require.NoError(t, m.Start(context.Background()))

	clock.Advance(899 * time.Second)
	feed.emit(uvReading(5))
	require.Empty(t, store.writes())

	clock.Advance(time.Second)
	feed.emit(uvReading(5))
	require.Len(t, store.writes(), 1)
}

func TestReadingWithoutUVIsIgnored(t *testing.T) {
	store := newStubStore(profile.Profile{ID: "a", Age: 30, SkinToneIndex: 1})
	feed := &stubFeed{}
	m, clock := newMonitorUnderTest(store, feed)
	require.NoError(t, m.Start(context.Background()))

	clock.Advance(time.Hour)
	feed.emit(sensor.Reading{Applied: true})
	require.Empty(t, store.writes())
	require.Nil(t, m.Status().LastUV)
}

func TestWriteFailureIsIsolatedAndRetried(t *testing.T) {
	store := newStubStore(
		profile.Profile{ID: "a", Age: 30, SkinToneIndex: 1},
		profile.Profile{ID: "b", Age: 30, SkinToneIndex: 2},
	)
	store.failOnce["a"] = true
	feed := &stubFeed{}
	m, clock := newMonitorUnderTest(store, feed)
	require.NoError(t, m.Start(context.Background()))

	clock.Advance(10 * time.Second)
	feed.emit(uvReading(150))
	require.Equal(t, []string{"b"}, store.writtenIDs())
	require.Equal(t, StateListening, m.State())

	entries := m.Status().Entries
	require.Equal(t, 0, entries[0].PreviousUV)
	require.Equal(t, 150, entries[1].PreviousUV)

	clock.Advance(10 * time.Second)
	feed.emit(uvReading(150))
	require.Equal(t, []string{"b", "a"}, store.writtenIDs())
	require.Equal(t, 150, m.Status().Entries[0].PreviousUV)
}

func TestStopDiscardsLateCompletions(t *testing.T) {
	store := newStubStore(profile.Profile{ID: "a", Age: 30, SkinToneIndex: 1})
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	feed := &stubFeed{}
	m, clock := newMonitorUnderTest(store, feed)
	require.NoError(t, m.Start(context.Background()))

	handler := feed.handler
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler(context.Background(), uvReading(150))
	}()
	<-store.entered

	m.Stop()
	require.Equal(t, 0, feed.active())
	close(store.block)
	<-done

	st := m.Status()
	require.Equal(t, "stopped", st.State)
	require.Empty(t, st.Entries)

	clock.Advance(time.Minute)
	store.block = nil
	require.NoError(t, m.Start(context.Background()))
	require.Equal(t, 0, m.Status().Entries[0].PreviousUV)
}

func TestRestartRebuildsSameEntries(t *testing.T) {
	store := newStubStore(
		profile.Profile{ID: "a", Age: 30, SkinToneIndex: 1},
		profile.Profile{ID: "b", Age: 50, SkinToneIndex: 4, ConditionSeverity: 1},
	)
	feed := &stubFeed{}
	m, clock := newMonitorUnderTest(store, feed)

	require.NoError(t, m.Start(context.Background()))
	first := m.Status().Entries
	clock.Advance(20 * time.Second)
	feed.emit(uvReading(120))
	require.Len(t, store.writes(), 2)

	m.Stop()
	clock.Reset()
	require.NoError(t, m.Start(context.Background()))
	require.Equal(t, first, m.Status().Entries)
	require.Equal(t, 1, feed.active())

	clock.Advance(20 * time.Second)
	feed.emit(uvReading(120))
	require.Len(t, store.writes(), 4)
}

func TestTrackAddsAndRefreshesEntries(t *testing.T) {
	store := newStubStore(profile.Profile{ID: "a", Age: 30, SkinToneIndex: 1})
	feed := &stubFeed{}
	m, _ := newMonitorUnderTest(store, feed)

	m.Track(profile.Profile{ID: "early"})
	require.NoError(t, m.Start(context.Background()))
	require.Equal(t, 1, m.Status().TrackedProfiles)

	m.Track(profile.Profile{ID: "b", Age: 40, SkinToneIndex: 3})
	m.Track(profile.Profile{ID: "a", Age: 31, SkinToneIndex: 1, ConditionSeverity: 4})
	m.Track(profile.Profile{ID: profile.ReservedID})

	entries := m.Status().Entries
	require.Len(t, entries, 2)
	require.Equal(t, 4, entries[0].ConditionSeverity)
	require.Equal(t, 31, entries[0].Age)
	require.Equal(t, "b", entries[1].UserID)
}

func TestManyProfilesFanOut(t *testing.T) {
	profiles := make([]profile.Profile, 0, 40)
	for i := 0; i < 40; i++ {
		profiles = append(profiles, profile.Profile{ID: "u" + strconv.Itoa(i), Age: 20 + i, SkinToneIndex: 1 + i%6})
	}
	store := newStubStore(profiles...)
	feed := &stubFeed{}
	m, clock := newMonitorUnderTest(store, feed)
	m.cfg.WriteConcurrency = 4
	require.NoError(t, m.Start(context.Background()))

	clock.Advance(time.Second)
	feed.emit(uvReading(160))
	require.Len(t, store.writes(), 40)
	for _, e := range m.Status().Entries {
		require.Equal(t, 160, e.PreviousUV)
	}
}

func newMonitorUnderTest(store ProfileSource, feed sensor.Feed) (*Monitor, *fakeClock) {
	clock := newFakeClock()
	m := New(Config{}, store, feed, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.now = clock.Now
	return m, clock
}

func uvReading(uv int) sensor.Reading {
	return sensor.Reading{UVIntensity: sensor.Intensity(uv)}
}

type fakeClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
}

func newFakeClock() *fakeClock {
	start := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	return &fakeClock{start: start, now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}

type stubSubscription string

func (s stubSubscription) ID() string { return string(s) }

type stubFeed struct {
	mu         sync.Mutex
	handler    sensor.Handler
	sub        sensor.Subscription
	subscribes int
}

func (f *stubFeed) Subscribe(handler sensor.Handler) (sensor.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	f.handler = handler
	f.sub = stubSubscription("sub-" + strconv.Itoa(f.subscribes))
	return f.sub, nil
}

func (f *stubFeed) Unsubscribe(sub sensor.Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sub == sub {
		f.sub = nil
		f.handler = nil
	}
}

func (f *stubFeed) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sub == nil {
		return 0
	}
	return 1
}

func (f *stubFeed) emit(reading sensor.Reading) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(context.Background(), reading)
	}
}

type write struct {
	id     string
	update profile.RiskUpdate
}

type stubStore struct {
	mu       sync.Mutex
	profiles []profile.Profile
	listErr  error
	failOnce map[string]bool
	log      []write
	block    chan struct{}
	entered  chan struct{}
}

func newStubStore(profiles ...profile.Profile) *stubStore {
	return &stubStore{profiles: profiles, failOnce: make(map[string]bool)}
}

func (s *stubStore) ListAll(context.Context) ([]profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]profile.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out, nil
}

func (s *stubStore) UpdateRiskFields(_ context.Context, id string, update profile.RiskUpdate) error {
	s.mu.Lock()
	block, entered := s.block, s.entered
	s.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOnce[id] {
		delete(s.failOnce, id)
		return errors.New("write rejected")
	}
	s.log = append(s.log, write{id: id, update: update})
	return nil
}

func (s *stubStore) writes() []write {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]write, len(s.log))
	copy(out, s.log)
	return out
}

func (s *stubStore) writtenIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.log))
	for _, w := range s.log {
		ids = append(ids, w.id)
	}
	return ids
}
