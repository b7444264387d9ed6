package advice

import (
	"time"

	"github.com/yanqian/suncare/internal/domain/risk"
)

// Source values reported on a Response.
const (
	SourceLLM      = "llm"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Request captures what advice is generated from.
type Request struct {
	Age              int           `json:"age"`
	SkinConditions   string        `json:"skinConditions"`
	Severity         int           `json:"severity"`
	SkinToneIndex    int           `json:"skinToneIndex,omitempty"`
	BaselineCategory risk.Category `json:"baselineCategory,omitempty"`
}

// Response is the advice text and where it came from.
type Response struct {
	Text        string    `json:"text"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Config wires runtime dependencies for the advice domain.
type Config struct {
	Model          string
	Temperature    float32
	MaxTokens      int
	Timeout        time.Duration
	CacheTTL       time.Duration
	SummaryPrompt  string
	SeverityPrompt string
}
