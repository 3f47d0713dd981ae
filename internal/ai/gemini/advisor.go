package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	systemInstruction     = "You are a concise career coach. Reply with JSON only."
	defaultMaxLogLength   = 200
	defaultMaxSuggestions = 5
	maxExcerptRunes       = 3000
)

type Advisor struct {
	generator      contentGenerator
	logger         *zap.Logger
	maxLogLen      int
	maxSuggestions int
}

func NewAdvisor(generator contentGenerator, maxSuggestions, maxLogLength int, logger *zap.Logger) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if maxSuggestions <= 0 {
		maxSuggestions = defaultMaxSuggestions
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Advisor{
		generator:      generator,
		logger:         logger,
		maxLogLen:      maxLogLength,
		maxSuggestions: maxSuggestions,
	}
}

func (a *Advisor) Advise(ctx context.Context, req ai.AdviceRequest) (*ai.Advice, error) {
	if req.View == nil {
		return nil, errors.New("analysis view is required")
	}

	prompt := a.buildPrompt(req)

	a.logger.Debug("gemini advice request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini advice response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	advice, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if len(advice.Suggestions) > a.maxSuggestions {
		advice.Suggestions = advice.Suggestions[:a.maxSuggestions]
	}
	advice.Raw = raw

	return advice, nil
}

func (a *Advisor) buildPrompt(req ai.AdviceRequest) string {
	missing := "none"
	if names := req.View.MissingSkillNames(); len(names) > 0 {
		missing = strings.Join(names, ", ")
	}

	jd := strings.TrimSpace(req.JobDescription)
	if jd == "" {
		jd = "(not provided)"
	}

	resume := utils.TruncateForLog(req.Resume, maxExcerptRunes)
	if resume == "" {
		resume = "(not provided)"
	}

	return strings.NewReplacer(
		"{{SCORE}}", strconv.Itoa(req.View.Score),
		"{{STATUS}}", req.View.Status,
		"{{REQUIRED}}", req.View.RequiredSkills,
		"{{MISSING}}", missing,
		"{{JOB_DESCRIPTION}}", jd,
		"{{RESUME}}", resume,
		"{{LIMIT}}", strconv.Itoa(a.maxSuggestions),
	).Replace(promptTemplate)
}

func parseResponse(raw string) (*ai.Advice, error) {
	cleaned := extractJSON(raw)

	var data struct {
		Summary     string `json:"summary"`
		Suggestions []any  `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	advice := &ai.Advice{Summary: strings.TrimSpace(data.Summary)}
	for _, item := range data.Suggestions {
		if text := coerceString(item); text != "" {
			advice.Suggestions = append(advice.Suggestions, text)
		}
	}

	if advice.Summary == "" && len(advice.Suggestions) == 0 {
		return nil, errors.New("gemini response contains no advice")
	}

	return advice, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
