package advice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/yanqian/suncare/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/suncare/pkg/errors"
	"github.com/yanqian/suncare/pkg/metrics"
)

const (
	defaultTimeout = 20 * time.Second
	minTimeout     = 10 * time.Second
	maxTimeout     = 30 * time.Second

	defaultSummaryPrompt  = "You are a dermatology assistant. Write short, practical sun protection and skincare advice for the user described below. Use plain text with a heading and short bullet lists."
	defaultSeverityPrompt = "Rate how much the following skin conditions increase sensitivity to UV exposure on a scale from 0 (none) to 5 (severe). Respond with a single digit only."
)

// Service produces severity ratings and advice text.
type Service interface {
	Severity(ctx context.Context, conditions string) (int, error)
	Summary(ctx context.Context, req Request) Response
}

// ChatClient is the remote text generation collaborator.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// Cache stores generated advice keyed by request fingerprint.
type Cache interface {
	Get(ctx context.Context, key string) (Response, bool, error)
	Set(ctx context.Context, key string, resp Response, ttl time.Duration) error
}

type service struct {
	cfg    Config
	client ChatClient
	cache  Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the advice domain. client and cache may be nil.
func NewService(cfg Config, client ChatClient, cache Cache, logger *slog.Logger) Service {
	cfg.Timeout = clampTimeout(cfg.Timeout)
	return &service{
		cfg:    cfg,
		client: client,
		cache:  cache,
		logger: logger.With("component", "advice.service"),
		now:    time.Now,
	}
}

func clampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return defaultTimeout
	case d < minTimeout:
		return minTimeout
	case d > maxTimeout:
		return maxTimeout
	default:
		return d
	}
}

func (s *service) Severity(ctx context.Context, conditions string) (int, error) {
	if isNoCondition(strings.ToLower(strings.TrimSpace(conditions))) {
		return 0, nil
	}
	if s.client == nil {
		return FallbackSeverity(conditions), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	completion, err := s.client.CreateChatCompletion(callCtx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: firstNonEmpty(s.cfg.SeverityPrompt, defaultSeverityPrompt)},
			{Role: "user", Content: strings.TrimSpace(conditions)},
		},
		MaxTokens: 4,
	})
	if err != nil {
		return 0, apperrors.Wrap("llm_error", "severity request failed", err)
	}
	content, ok := completion.FirstContent()
	if !ok {
		return 0, apperrors.Wrap("llm_error", "severity response empty", nil)
	}
	severity, err := parseSeverity(content)
	if err != nil {
		return 0, apperrors.Wrap("llm_error", "severity response malformed", err)
	}
	s.logger.Debug("severity classified", "severity", severity, "tokens", completion.Usage.TotalTokens)
	return severity, nil
}

// parseSeverity accepts the first digit in the answer when it is within 0..5.
func parseSeverity(raw string) (int, error) {
	for _, r := range raw {
		if !unicode.IsDigit(r) {
			continue
		}
		v, _ := strconv.Atoi(string(r))
		if v > 5 {
			return 0, fmt.Errorf("severity %d out of range", v)
		}
		return v, nil
	}
	return 0, fmt.Errorf("no severity digit in %q", raw)
}

func (s *service) Summary(ctx context.Context, req Request) Response {
	key := cacheKey(req)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("advice cache lookup failed", "error", err)
		} else if ok {
			cached.Source = SourceCache
			metrics.AdviceTotal.WithLabelValues(SourceCache).Inc()
			return cached
		}
	}

	if s.client != nil {
		text, err := s.remoteSummary(ctx, req)
		if err == nil {
			resp := Response{Text: text, Source: SourceLLM, GeneratedAt: s.now().UTC()}
			if s.cache != nil {
				if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
					s.logger.Warn("advice cache store failed", "error", err)
				}
			}
			metrics.AdviceTotal.WithLabelValues(SourceLLM).Inc()
			return resp
		}
		s.logger.Warn("advice generation failed, using fallback", "error", err)
	}

	metrics.AdviceTotal.WithLabelValues(SourceFallback).Inc()
	return Response{
		Text:        FallbackSummary(req),
		Source:      SourceFallback,
		GeneratedAt: s.now().UTC(),
	}
}

func (s *service) remoteSummary(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	completion, err := s.client.CreateChatCompletion(callCtx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: firstNonEmpty(s.cfg.SummaryPrompt, defaultSummaryPrompt)},
			{Role: "user", Content: buildSummaryPrompt(req)},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	content, _ := completion.FirstContent()
	text := cleanCompletion(content)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

func buildSummaryPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Age: %d\n", req.Age)
	fmt.Fprintf(&b, "Skin conditions: %s\n", firstNonEmpty(strings.TrimSpace(req.SkinConditions), "none"))
	fmt.Fprintf(&b, "UV sensitivity severity: %d/5\n", req.Severity)
	if req.SkinToneIndex > 0 {
		fmt.Fprintf(&b, "Fitzpatrick skin type: %d\n", req.SkinToneIndex)
	}
	if req.BaselineCategory != "" {
		fmt.Fprintf(&b, "Baseline UV risk: %s\n", req.BaselineCategory)
	}
	return b.String()
}

// cleanCompletion strips markdown fences some models wrap plain answers in.
func cleanCompletion(raw string) string {
	out := strings.TrimSpace(raw)
	out = strings.TrimPrefix(out, "```text")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}

func cacheKey(req Request) string {
	fingerprint := fmt.Sprintf("%d|%s|%d|%d|%s",
		req.Age, normalizeConditions(req.SkinConditions), req.Severity, req.SkinToneIndex, req.BaselineCategory)
	sum := sha256.Sum256([]byte(fingerprint))
	return "advice:" + hex.EncodeToString(sum[:16])
}

func normalizeConditions(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
