// Package risk holds the UV risk model. Everything here is pure and deterministic.
package risk

import "math"

// Category is a five-bucket label plus Unknown for scores outside every bucket.
type Category string

const (
	CategoryVeryLow  Category = "Very Low"
	CategoryLow      Category = "Low"
	CategoryMedium   Category = "Medium"
	CategoryHigh     Category = "High"
	CategoryVeryHigh Category = "Very High"
	CategoryUnknown  Category = "Unknown"
)

const (
	MinSkinTone = 1
	MaxSkinTone = 6

	// MaxUVReference is the raw intensity mapped to the full UV modifier.
	MaxUVReference = 165.0
	uvModifierSpan = 2.88
)

var phototypeRef = [MaxSkinTone]float64{1.0, 0.8, 0.6, 0.4, 0.2, 0.1}

var conditionModifiers = [...]float64{1.0, 1.1, 1.2, 1.4, 1.6, 1.8}

// Assessment pairs a score with the category its scale derives from it.
// Build it through a Scale so the two never drift apart.
type Assessment struct {
	Score    float64  `json:"score"`
	Category Category `json:"category"`
}

// ClampSkinTone forces a skin tone index into [1,6].
func ClampSkinTone(skinTone int) int {
	if skinTone < MinSkinTone {
		return MinSkinTone
	}
	if skinTone > MaxSkinTone {
		return MaxSkinTone
	}
	return skinTone
}

// PhototypeRef returns the intrinsic reference risk for the clamped skin tone.
func PhototypeRef(skinTone int) float64 {
	return phototypeRef[ClampSkinTone(skinTone)-1]
}

// AgeModifier is a step function over age in years.
func AgeModifier(age int) float64 {
	switch {
	case age < 20:
		return 0.8
	case age < 40:
		return 1.0
	case age < 60:
		return 1.2
	case age < 70:
		return 1.4
	default:
		return 1.6
	}
}

// ConditionModifier maps severity 0..5; anything else is neutral.
func ConditionModifier(severity int) float64 {
	if severity < 0 || severity >= len(conditionModifiers) {
		return 1.0
	}
	return conditionModifiers[severity]
}

// UVModifier is additive: no sun reduces risk, otherwise it scales linearly to MaxUVReference.
func UVModifier(uvIntensity int) float64 {
	if uvIntensity == 0 {
		return -uvModifierSpan
	}
	return float64(uvIntensity) / MaxUVReference * uvModifierSpan
}

// BaselineScore depends on skin tone and age only.
func BaselineScore(skinTone, age int) float64 {
	return PhototypeRef(skinTone) * AgeModifier(age)
}

// FinalScore adds the condition severity multiplier.
func FinalScore(skinTone, age, severity int) float64 {
	return BaselineScore(skinTone, age) * ConditionModifier(severity)
}

// FinalScoreWithUV overlays the live UV term on the final score.
func FinalScoreWithUV(skinTone, age, severity, uvIntensity int) float64 {
	return FinalScore(skinTone, age, severity) + UVModifier(uvIntensity)
}

// Baseline assesses a profile on the baseline scale.
func Baseline(skinTone, age int) Assessment {
	return BaselineScale.Assess(BaselineScore(skinTone, age))
}

// Final assesses a profile on the final scale without live UV.
func Final(skinTone, age, severity int) Assessment {
	return FinalScale.Assess(FinalScore(skinTone, age, severity))
}

// FinalWithUV assesses a profile on the final scale with the live UV overlay.
func FinalWithUV(skinTone, age, severity, uvIntensity int) Assessment {
	return FinalScale.Assess(FinalScoreWithUV(skinTone, age, severity, uvIntensity))
}

type bucket struct {
	min, max float64
	category Category
}

// Scale is one calibrated set of closed buckets plus an open top bucket.
// Scores in the gaps between buckets, below zero, or NaN classify as Unknown.
type Scale struct {
	name     string
	buckets  []bucket
	openFrom float64
	open     Category
}

// BaselineScale classifies scores that ignore conditions and live UV.
var BaselineScale = Scale{
	name: "baseline",
	buckets: []bucket{
		{0, 0.58, CategoryVeryLow},
		{0.59, 1.16, CategoryLow},
		{1.17, 1.75, CategoryMedium},
		{1.76, 2.34, CategoryHigh},
	},
	openFrom: 2.35,
	open:     CategoryVeryHigh,
}

// FinalScale is the wider scale used for condition-adjusted scores.
var FinalScale = Scale{
	name: "final",
	buckets: []bucket{
		{0, 1.15, CategoryVeryLow},
		{1.16, 2.30, CategoryLow},
		{2.31, 3.45, CategoryMedium},
		{3.46, 4.60, CategoryHigh},
	},
	openFrom: 4.61,
	open:     CategoryVeryHigh,
}

// Name identifies the scale in logs.
func (s Scale) Name() string { return s.name }

// Classify maps a score to its category on this scale.
func (s Scale) Classify(score float64) Category {
	if math.IsNaN(score) {
		return CategoryUnknown
	}
	for _, b := range s.buckets {
		if score >= b.min && score <= b.max {
			return b.category
		}
	}
	if score > s.openFrom {
		return s.open
	}
	return CategoryUnknown
}

// Assess builds the score/category pair for this scale.
func (s Scale) Assess(score float64) Assessment {
	return Assessment{Score: score, Category: s.Classify(score)}
}
