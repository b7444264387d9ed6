package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/suncare/internal/domain/risk"
	apperrors "github.com/yanqian/suncare/pkg/errors"
)

func TestRegisterComputesRisk(t *testing.T) {
	store := newStubStore()
	tracker := &stubTracker{}
	svc := newTestService(store, &stubClassifier{severity: 3}, tracker)

	p, err := svc.Register(context.Background(), "user-1", RegisterRequest{Age: 45, SkinToneIndex: 2, SkinConditions: " rosacea "})
	require.NoError(t, err)
	require.Equal(t, "rosacea", p.SkinConditions)
	require.Equal(t, 3, p.ConditionSeverity)
	require.InDelta(t, 0.96, p.Baseline.Score, 1e-9)
	require.Equal(t, risk.CategoryLow, p.Baseline.Category)
	require.InDelta(t, 1.344, p.Final.Score, 1e-9)
	require.Equal(t, risk.CategoryLow, p.Final.Category)
	require.Equal(t, []string{"user-1"}, tracker.ids)

	stored, found, err := store.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, p, stored)
}

func TestRegisterClampsSkinTone(t *testing.T) {
	svc := newTestService(newStubStore(), &stubClassifier{}, nil)

	p, err := svc.Register(context.Background(), "user-1", RegisterRequest{Age: 30, SkinToneIndex: 11})
	require.NoError(t, err)
	require.Equal(t, 6, p.SkinToneIndex)
	require.InDelta(t, 0.1, p.Baseline.Score, 1e-9)
}

func TestRegisterClassifierFailureUsesDefault(t *testing.T) {
	svc := newTestService(newStubStore(), &stubClassifier{err: errors.New("timeout")}, nil)

	p, err := svc.Register(context.Background(), "user-1", RegisterRequest{Age: 30, SkinToneIndex: 1, SkinConditions: "eczema"})
	require.NoError(t, err)
	require.Equal(t, DefaultSeverity, p.ConditionSeverity)
	require.InDelta(t, 1.1, p.Final.Score, 1e-9)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc := newTestService(newStubStore(), &stubClassifier{}, nil)

	_, err := svc.Register(context.Background(), ReservedID, RegisterRequest{Age: 30, SkinToneIndex: 1})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.Register(context.Background(), "user-1", RegisterRequest{Age: -1, SkinToneIndex: 1})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestGetMissingProfile(t *testing.T) {
	svc := newTestService(newStubStore(), &stubClassifier{}, nil)

	_, err := svc.Get(context.Background(), "ghost")
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestUpdateConditionsReclassifies(t *testing.T) {
	store := newStubStore()
	classifier := &stubClassifier{severity: 0}
	tracker := &stubTracker{}
	svc := newTestService(store, classifier, tracker)

	_, err := svc.Register(context.Background(), "user-1", RegisterRequest{Age: 72, SkinToneIndex: 1, SkinConditions: "none"})
	require.NoError(t, err)

	classifier.severity = 5
	p, err := svc.UpdateConditions(context.Background(), "user-1", UpdateConditionsRequest{SkinConditions: "lupus"})
	require.NoError(t, err)
	require.Equal(t, 5, p.ConditionSeverity)
	require.InDelta(t, 2.88, p.Final.Score, 1e-9)
	require.Equal(t, risk.CategoryMedium, p.Final.Category)
	require.Equal(t, []string{"user-1", "user-1"}, tracker.ids)
}

func TestRecalculateAllContinuesPastFailures(t *testing.T) {
	store := newStubStore()
	store.profiles["a"] = Profile{ID: "a", Age: 30, SkinToneIndex: 1}
	store.profiles["b"] = Profile{ID: "b", Age: 65, SkinToneIndex: 9, ConditionSeverity: 2}
	store.profiles["c"] = Profile{ID: "c", Age: 10, SkinToneIndex: 3}
	store.failUpdate["c"] = true
	svc := newTestService(store, &stubClassifier{}, nil)

	res, err := svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, RecalculateResult{Total: 3, Updated: 2, Failed: 1}, res)

	b := store.profiles["b"]
	require.Equal(t, 6, b.SkinToneIndex)
	require.InDelta(t, 0.14, b.Baseline.Score, 1e-9)
	require.InDelta(t, 0.168, b.Final.Score, 1e-9)
}

func TestLastApplied(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, &stubClassifier{}, nil)

	at, err := svc.LastApplied(context.Background())
	require.NoError(t, err)
	require.Nil(t, at)

	want := time.Date(2025, 9, 20, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateLastApplied(context.Background(), want))
	at, err = svc.LastApplied(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, *at)
}

func newTestService(store Store, classifier SeverityClassifier, tracker Tracker) *service {
	fixed := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc := &service{
		store:      store,
		classifier: classifier,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        func() time.Time { return fixed },
	}
	if tracker != nil {
		svc.tracker = tracker
	}
	return svc
}

type stubClassifier struct {
	severity int
	err      error
}

func (s *stubClassifier) Severity(context.Context, string) (int, error) {
	return s.severity, s.err
}

type stubTracker struct {
	ids []string
}

func (s *stubTracker) Track(p Profile) {
	s.ids = append(s.ids, p.ID)
}

type stubStore struct {
	mu          sync.Mutex
	profiles    map[string]Profile
	failUpdate  map[string]bool
	lastApplied *time.Time
}

func newStubStore() *stubStore {
	return &stubStore{profiles: make(map[string]Profile), failUpdate: make(map[string]bool)}
}

func (s *stubStore) ListAll(context.Context) ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubStore) Get(_ context.Context, id string) (Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	return p, ok, nil
}

func (s *stubStore) Create(_ context.Context, p Profile) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return p, nil
}

func (s *stubStore) UpdateProfile(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate[p.ID] {
		return errors.New("write failed")
	}
	if _, ok := s.profiles[p.ID]; !ok {
		return ErrNotFound
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *stubStore) UpdateRiskFields(_ context.Context, id string, update RiskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return ErrNotFound
	}
	p.Final = update.Final
	p.CurrentUV = update.CurrentUV
	p.LastUVUpdate = update.LastUVUpdate
	s.profiles[id] = p
	return nil
}

func (s *stubStore) UpdateLastApplied(_ context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastApplied = &at
	return nil
}

func (s *stubStore) ReadLastApplied(context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastApplied == nil {
		return time.Time{}, false, nil
	}
	return *s.lastApplied, true, nil
}
