package profile

import (
	"time"

	"github.com/yanqian/suncare/internal/domain/risk"
)

// ReservedID is the record that holds the shared sensor reading; it is never a profile.
const ReservedID = "latest"

// DefaultSeverity is used whenever the condition classifier fails.
const DefaultSeverity = 1

// Profile is the durable per-user record.
type Profile struct {
	ID                string          `json:"id"`
	Age               int             `json:"age"`
	SkinToneIndex     int             `json:"skinToneIndex"`
	SkinConditions    string          `json:"skinConditions"`
	ConditionSeverity int             `json:"conditionSeverity"`
	Baseline          risk.Assessment `json:"baselineRisk"`
	Final             risk.Assessment `json:"finalRisk"`
	CurrentUV         *int            `json:"currentUvIntensity,omitempty"`
	LastUVUpdate      *time.Time      `json:"lastUvUpdate,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// RiskUpdate is the set of fields the monitor writes after a recalculation.
type RiskUpdate struct {
	Final        risk.Assessment
	CurrentUV    *int
	LastUVUpdate *time.Time
}

// RegisterRequest carries the user supplied attributes.
type RegisterRequest struct {
	Age            int    `json:"age"`
	SkinToneIndex  int    `json:"skinToneIndex"`
	SkinConditions string `json:"skinConditions"`
}

// UpdateConditionsRequest replaces the free-text condition description.
type UpdateConditionsRequest struct {
	SkinConditions string `json:"skinConditions"`
}

// RecalculateResult summarizes a batch baseline/final recomputation.
type RecalculateResult struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}
