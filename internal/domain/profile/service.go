package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/suncare/internal/domain/risk"
	apperrors "github.com/yanqian/suncare/pkg/errors"
	"github.com/yanqian/suncare/pkg/util"
)

const maxAge = 130

// Service exposes profile registration and risk maintenance.
type Service interface {
	Register(ctx context.Context, id string, req RegisterRequest) (Profile, error)
	Get(ctx context.Context, id string) (Profile, error)
	UpdateConditions(ctx context.Context, id string, req UpdateConditionsRequest) (Profile, error)
	RecalculateAll(ctx context.Context) (RecalculateResult, error)
	LastApplied(ctx context.Context) (*time.Time, error)
}

// SeverityClassifier rates free-text skin conditions on 0..5.
type SeverityClassifier interface {
	Severity(ctx context.Context, conditions string) (int, error)
}

// Tracker is told about new or changed profiles so live monitoring picks them up.
type Tracker interface {
	Track(p Profile)
}

type service struct {
	store      Store
	classifier SeverityClassifier
	tracker    Tracker
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires the profile domain.
func NewService(store Store, classifier SeverityClassifier, tracker Tracker, logger *slog.Logger) Service {
	return &service{
		store:      store,
		classifier: classifier,
		tracker:    tracker,
		logger:     logger.With("component", "profile.service"),
		now:        util.NowUTC,
	}
}

func (s *service) Register(ctx context.Context, id string, req RegisterRequest) (Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == ReservedID {
		return Profile{}, apperrors.Wrap("invalid_input", "profile id is invalid", nil)
	}
	if req.Age < 0 || req.Age > maxAge {
		return Profile{}, apperrors.Wrap("invalid_input", "age must be between 0 and 130", nil)
	}
	conditions := strings.TrimSpace(req.SkinConditions)
	now := s.now()
	p := Profile{
		ID:                id,
		Age:               req.Age,
		SkinToneIndex:     risk.ClampSkinTone(req.SkinToneIndex),
		SkinConditions:    conditions,
		ConditionSeverity: s.classify(ctx, conditions),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	applyAssessments(&p)

	created, err := s.store.Create(ctx, p)
	if err != nil {
		return Profile{}, apperrors.Wrap("store_error", "failed to create profile", err)
	}
	s.logger.Info("profile registered", "profile_id", created.ID, "severity", created.ConditionSeverity, "final_category", created.Final.Category)
	s.track(created)
	return created, nil
}

func (s *service) Get(ctx context.Context, id string) (Profile, error) {
	p, found, err := s.store.Get(ctx, id)
	if err != nil {
		return Profile{}, apperrors.Wrap("store_error", "failed to load profile", err)
	}
	if !found {
		return Profile{}, apperrors.Wrap("not_found", "profile not found", nil)
	}
	return p, nil
}

func (s *service) UpdateConditions(ctx context.Context, id string, req UpdateConditionsRequest) (Profile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	p.SkinConditions = strings.TrimSpace(req.SkinConditions)
	p.ConditionSeverity = s.classify(ctx, p.SkinConditions)
	p.UpdatedAt = s.now()
	applyAssessments(&p)

	if err := s.store.UpdateProfile(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, apperrors.Wrap("not_found", "profile not found", err)
		}
		return Profile{}, apperrors.Wrap("store_error", "failed to update profile", err)
	}
	s.track(p)
	return p, nil
}

// RecalculateAll recomputes baseline and final (without live UV) for every profile.
// Individual failures are counted and skipped.
func (s *service) RecalculateAll(ctx context.Context) (RecalculateResult, error) {
	profiles, err := s.store.ListAll(ctx)
	if err != nil {
		return RecalculateResult{}, apperrors.Wrap("store_error", "failed to list profiles", err)
	}
	res := RecalculateResult{Total: len(profiles)}
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return res, apperrors.Wrap("store_error", "recalculation interrupted", err)
		}
		p.SkinToneIndex = risk.ClampSkinTone(p.SkinToneIndex)
		p.UpdatedAt = s.now()
		applyAssessments(&p)
		if err := s.store.UpdateProfile(ctx, p); err != nil {
			res.Failed++
			s.logger.Warn("profile recalculation failed", "profile_id", p.ID, "error", err)
			continue
		}
		res.Updated++
	}
	s.logger.Info("profiles recalculated", "total", res.Total, "updated", res.Updated, "failed", res.Failed)
	return res, nil
}

func (s *service) LastApplied(ctx context.Context) (*time.Time, error) {
	at, found, err := s.store.ReadLastApplied(ctx)
	if err != nil {
		return nil, apperrors.Wrap("store_error", "failed to read last applied", err)
	}
	if !found {
		return nil, nil
	}
	return util.TimePtr(at), nil
}

func (s *service) classify(ctx context.Context, conditions string) int {
	if s.classifier == nil {
		return DefaultSeverity
	}
	severity, err := s.classifier.Severity(ctx, conditions)
	if err != nil || severity < 0 || severity > 5 {
		s.logger.Warn("severity classification failed, using default", "default", DefaultSeverity, "error", err)
		return DefaultSeverity
	}
	return severity
}

func (s *service) track(p Profile) {
	if s.tracker != nil {
		s.tracker.Track(p)
	}
}

func applyAssessments(p *Profile) {
	p.Baseline = risk.Baseline(p.SkinToneIndex, p.Age)
	p.Final = risk.Final(p.SkinToneIndex, p.Age, p.ConditionSeverity)
}
