package advice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/suncare/internal/domain/risk"
)

func TestFallbackSummaryDeterministic(t *testing.T) {
	req := Request{Age: 45, SkinConditions: "Rosacea and dry patches", Severity: 3, BaselineCategory: risk.CategoryMedium}
	first := FallbackSummary(req)
	require.Equal(t, first, FallbackSummary(req))
	require.Contains(t, first, "45-year-old adult")
	require.Contains(t, first, "UV Risk Level: 3/5")
	require.Contains(t, first, "Baseline Risk: Medium")
	require.Contains(t, first, "rosacea trigger")
	require.Contains(t, first, "Dry skin")
	require.Contains(t, first, spfTiers[3])
}

func TestFallbackSummaryEdges(t *testing.T) {
	unknown := FallbackSummary(Request{Age: 70, SkinConditions: "keratosis", Severity: 9})
	require.Contains(t, unknown, referralNote)
	require.Contains(t, unknown, defaultSPFTier)
	require.Contains(t, unknown, "mature adult")
	require.NotContains(t, unknown, "Baseline Risk")

	healthy := FallbackSummary(Request{Age: 15, SkinConditions: "None"})
	require.Contains(t, healthy, healthyNote)
	require.Contains(t, healthy, "teenager")
}

func TestFallbackSeverity(t *testing.T) {
	cases := map[string]int{
		"":                     0,
		"NONE":                 0,
		"systemic lupus":       5,
		"photosensitivity":     5,
		"vitiligo":             4,
		"psoriasis on elbows":  3,
		"atopic dermatitis":    2,
		"Sensitive skin":       1,
		"something unexpected": 1,
	}
	for input, want := range cases {
		require.Equal(t, want, FallbackSeverity(input), input)
	}
}
