package profilerepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/suncare/internal/domain/profile"
	"github.com/yanqian/suncare/pkg/util"
)

// MemoryRepository keeps profiles in process memory for tests/dev.
type MemoryRepository struct {
	mu          sync.RWMutex
	profiles    map[string]profile.Profile
	lastApplied *time.Time
	now         func() time.Time
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		profiles: make(map[string]profile.Profile),
		now:      util.NowUTC,
	}
}

// ListAll returns every profile ordered by id.
func (r *MemoryRepository) ListAll(_ context.Context) ([]profile.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]profile.Profile, 0, len(r.profiles))
	for id, p := range r.profiles {
		if id == profile.ReservedID {
			continue
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get fetches one profile.
func (r *MemoryRepository) Get(_ context.Context, id string) (profile.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return profile.Profile{}, false, nil
	}
	return clone(p), true, nil
}

// Create stores a new profile, replacing any previous record with the same id.
func (r *MemoryRepository) Create(_ context.Context, p profile.Profile) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.profiles[p.ID] = clone(p)
	return clone(p), nil
}

// UpdateProfile overwrites attributes and assessments of an existing profile.
func (r *MemoryRepository) UpdateProfile(_ context.Context, p profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.profiles[p.ID]
	if !ok {
		return profile.ErrNotFound
	}
	existing.Age = p.Age
	existing.SkinToneIndex = p.SkinToneIndex
	existing.SkinConditions = p.SkinConditions
	existing.ConditionSeverity = p.ConditionSeverity
	existing.Baseline = p.Baseline
	existing.Final = p.Final
	existing.UpdatedAt = r.now()
	r.profiles[p.ID] = existing
	return nil
}

// UpdateRiskFields writes the monitor owned fields.
func (r *MemoryRepository) UpdateRiskFields(_ context.Context, id string, update profile.RiskUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.profiles[id]
	if !ok {
		return profile.ErrNotFound
	}
	existing.Final = update.Final
	existing.CurrentUV = cloneInt(update.CurrentUV)
	existing.LastUVUpdate = cloneTime(update.LastUVUpdate)
	existing.UpdatedAt = r.now()
	r.profiles[id] = existing
	return nil
}

// UpdateLastApplied records the most recent applied=true instant.
func (r *MemoryRepository) UpdateLastApplied(_ context.Context, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastApplied = util.TimePtr(at)
	return nil
}

// ReadLastApplied returns the stored instant if any.
func (r *MemoryRepository) ReadLastApplied(_ context.Context) (time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastApplied == nil {
		return time.Time{}, false, nil
	}
	return *r.lastApplied, true, nil
}

func clone(p profile.Profile) profile.Profile {
	p.CurrentUV = cloneInt(p.CurrentUV)
	p.LastUVUpdate = cloneTime(p.LastUVUpdate)
	return p
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

var _ profile.Store = (*MemoryRepository)(nil)
