package advice

import (
	"fmt"
	"strings"
)

type conditionRule struct {
	keywords []string
	note     string
}

var conditionRules = []conditionRule{
	{[]string{"acne"}, "Acne-prone skin does best with non-comedogenic, oil-free sunscreens. Avoid heavy formulas that clog pores."},
	{[]string{"eczema", "dermatitis"}, "For eczema or dermatitis, use a fragrance-free mineral sunscreen over a barrier moisturizer. Heat and sweat can trigger flares, so rinse and reapply after activity."},
	{[]string{"rosacea"}, "Sun is a common rosacea trigger. Choose a zinc oxide sunscreen without alcohol or fragrance and keep to the shade at midday."},
	{[]string{"sensitive"}, "For sensitive skin, choose mineral sunscreens with zinc oxide or titanium dioxide and patch test new products."},
	{[]string{"dry"}, "Dry skin needs extra hydration. Apply moisturizer first and pick a sunscreen with hydrating ingredients."},
	{[]string{"oily"}, "For oily skin, choose lightweight, matte-finish sunscreens labelled oil-free."},
	{[]string{"lupus"}, "Lupus can make skin highly photosensitive. Wear SPF 50+ every day, including near windows, and follow your doctor's guidance on sun exposure."},
	{[]string{"melasma"}, "UV and visible light darken melasma. A tinted mineral SPF 50+ with iron oxides, reapplied every 2 hours, gives the best coverage."},
}

const (
	healthyNote  = "Your skin appears to be in good condition. Continue with gentle care and consistent UV protection."
	referralNote = "With your specific skin conditions, consult a dermatologist for personalized sunscreen recommendations."
)

var spfTiers = []string{
	"Your UV risk is minimal. Standard SPF 30+ sunscreen is sufficient for daily protection.",
	"You have a low UV risk. SPF 30+ sunscreen with broad-spectrum protection is recommended.",
	"You have a moderate UV risk. Use SPF 30-50+ sunscreen and reapply every 2 hours when outdoors.",
	"You have an elevated UV risk. Use SPF 50+ sunscreen, wear protective clothing, and seek shade during peak hours (10 AM - 4 PM).",
	"You have a high UV risk. Use SPF 50+ sunscreen, wear UPF clothing and a wide-brimmed hat, and avoid peak sun hours when possible.",
	"You have a very high UV risk. Use SPF 50+ sunscreen, UPF clothing, a hat and sunglasses, and minimize time in the sun during peak hours.",
}

const defaultSPFTier = "Use standard SPF 30+ sunscreen for daily protection."

// FallbackSummary builds deterministic guidance from the request alone.
func FallbackSummary(req Request) string {
	group, ageNote := ageBracket(req.Age)

	var b strings.Builder
	b.WriteString("Your Personalized Skin Care Summary\n\n")
	fmt.Fprintf(&b, "Profile: %d-year-old %s\n", req.Age, group)
	fmt.Fprintf(&b, "UV Risk Level: %d/5\n", req.Severity)
	if req.BaselineCategory != "" {
		fmt.Fprintf(&b, "Baseline Risk: %s\n", req.BaselineCategory)
	}
	fmt.Fprintf(&b, "Skin Condition: %s\n\n", conditionNote(req.SkinConditions))
	fmt.Fprintf(&b, "UV Protection Recommendations:\n%s\n\n", spfTier(req.Severity))
	fmt.Fprintf(&b, "Age-Specific Advice:\n%s", ageNote)
	return b.String()
}

func spfTier(severity int) string {
	if severity < 0 || severity >= len(spfTiers) {
		return defaultSPFTier
	}
	return spfTiers[severity]
}

func ageBracket(age int) (string, string) {
	switch {
	case age < 18:
		return "teenager", "Your skin is still developing. Consistent sunscreen use now prevents long-term damage."
	case age < 30:
		return "young adult", "Your skin is in its prime. Good habits now keep it healthy as you age."
	case age < 50:
		return "adult", "Prevention is key at this stage. Consistent protection helps prevent premature aging."
	default:
		return "mature adult", "Your skin may be more sensitive now. Gentle care with steady UV protection is essential."
	}
}

func conditionNote(conditions string) string {
	lower := strings.ToLower(strings.TrimSpace(conditions))
	if isNoCondition(lower) {
		return healthyNote
	}
	notes := make([]string, 0, 2)
	for _, rule := range conditionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				notes = append(notes, rule.note)
				break
			}
		}
	}
	if len(notes) == 0 {
		return referralNote
	}
	return strings.Join(notes, " ")
}

var noConditionValues = map[string]struct{}{
	"":        {},
	"none":    {},
	"no":      {},
	"n/a":     {},
	"na":      {},
	"nothing": {},
	"normal":  {},
}

func isNoCondition(lower string) bool {
	_, ok := noConditionValues[strings.Trim(lower, " .!,;")]
	return ok
}

type severityRule struct {
	keywords []string
	severity int
}

var severityRules = []severityRule{
	{[]string{"lupus", "photosensitiv"}, 5},
	{[]string{"melasma", "vitiligo"}, 4},
	{[]string{"rosacea", "psoriasis"}, 3},
	{[]string{"eczema", "dermatitis"}, 2},
	{[]string{"acne", "sensitive"}, 1},
}

// FallbackSeverity rates conditions by keyword; unknown conditions rate 1.
func FallbackSeverity(conditions string) int {
	lower := strings.ToLower(strings.TrimSpace(conditions))
	if isNoCondition(lower) {
		return 0
	}
	for _, rule := range severityRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.severity
			}
		}
	}
	return 1
}
