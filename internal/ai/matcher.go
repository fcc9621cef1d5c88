package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/laborer"
	"github.com/spigell/laborconnect/internal/metrics"
	"github.com/spigell/laborconnect/internal/utils"
)

// Generator sends a prompt to a model constrained to the match schema and
// returns the raw answer.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Matcher implements Advisor on top of any Generator.
type Matcher struct {
	generator Generator
	provider  string
	logger    *zap.Logger
	maxLogLen int
}

var _ Advisor = (*Matcher)(nil)

func NewMatcher(generator Generator, provider string, maxLogLength int, logger *zap.Logger) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Matcher{
		generator: generator,
		provider:  provider,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// SmartMatch makes exactly one provider call unless the generator was configured
// with retries. Malformed answers fall back to the first laborer; transport
// errors are returned.
func (m *Matcher) SmartMatch(ctx context.Context, query string, laborers *laborer.Laborers) (*Match, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}
	if laborers.Len() == 0 {
		return nil, ErrNoCandidates
	}

	candidatesJSON, err := json.Marshal(Candidates(laborers))
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}

	prompt := BuildPrompt(query, string(candidatesJSON))
	model := m.generator.Model()

	m.logger.Debug("smart match request",
		zap.Int("candidates", laborers.Len()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.maxLogLen)),
	)

	start := time.Now()
	raw, err := m.generator.GenerateJSON(ctx, prompt)
	duration := time.Since(start)
	metrics.AdvisorRequestDuration.WithLabelValues(m.provider, model).Observe(duration.Seconds())
	if err != nil {
		metrics.AdvisorRequestsTotal.WithLabelValues(m.provider, model, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%s smart match: %w", m.provider, err)
	}

	m.logger.Debug("smart match response",
		zap.Duration("took", duration),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	match, err := DecodeMatch(raw)
	if err != nil {
		metrics.AdvisorRequestsTotal.WithLabelValues(m.provider, model, metrics.OutcomeFallback).Inc()
		m.logger.Warn("failed to parse ai response, falling back to the first laborer",
			zap.Error(err),
			zap.String("fallback_id", laborers.Items[0].ID),
			zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
		)
		return fallbackMatch(raw, laborers), nil
	}

	metrics.AdvisorRequestsTotal.WithLabelValues(m.provider, model, metrics.OutcomeOK).Inc()
	return match, nil
}

// BuildPrompt fills the prompt template in a single pass so user text can not
// inject template placeholders.
func BuildPrompt(query, laborersJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Request: \"{{QUERY}}\"\n\nLaborers: {{LABORERS_JSON}}\n\nJSON Response:"
	}
	return strings.NewReplacer(
		"{{QUERY}}", query,
		"{{LABORERS_JSON}}", laborersJSON,
	).Replace(template)
}
