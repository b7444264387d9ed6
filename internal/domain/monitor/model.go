package monitor

import (
	"context"
	"time"

	"github.com/yanqian/suncare/internal/domain/profile"
)

// State is the monitor lifecycle position.
type State int

const (
	StateStopped State = iota
	StateLoading
	StateListening
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateListening:
		return "listening"
	default:
		return "stopped"
	}
}

// Config tunes the recalculation gate and the write fan-out.
type Config struct {
	UVDeltaThreshold int
	RecalcInterval   time.Duration
	WriteConcurrency int
	WriteTimeout     time.Duration
}

// ProfileSource is the part of the profile store the monitor needs.
type ProfileSource interface {
	ListAll(ctx context.Context) ([]profile.Profile, error)
	UpdateRiskFields(ctx context.Context, id string, update profile.RiskUpdate) error
}

// Entry is the tracking row kept per known profile while listening.
// UserID doubles as the handle back to the stored record.
type Entry struct {
	UserID            string    `json:"userId"`
	PreviousUV        int       `json:"previousUvIntensity"`
	LastCalculation   time.Time `json:"lastCalculationTime"`
	SkinToneIndex     int       `json:"skinToneIndex"`
	Age               int       `json:"age"`
	ConditionSeverity int       `json:"conditionSeverity"`
}

// Status is a copy-on-read snapshot safe to hand to callers.
type Status struct {
	State           string     `json:"state"`
	TrackedProfiles int        `json:"trackedProfiles"`
	LastReadingAt   *time.Time `json:"lastReadingAt,omitempty"`
	LastUV          *int       `json:"lastUvIntensity,omitempty"`
	Entries         []Entry    `json:"entries,omitempty"`
}

func defaultConfig(cfg Config) Config {
	if cfg.UVDeltaThreshold <= 0 {
		cfg.UVDeltaThreshold = 100
	}
	if cfg.RecalcInterval <= 0 {
		cfg.RecalcInterval = 900 * time.Second
	}
	if cfg.WriteConcurrency <= 0 {
		cfg.WriteConcurrency = 8
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return cfg
}
