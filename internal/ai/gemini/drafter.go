package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/pfe-aggregator/internal/ai"
	"github.com/spigell/pfe-aggregator/internal/applicant"
	"github.com/spigell/pfe-aggregator/internal/logger"
	"github.com/spigell/pfe-aggregator/internal/posting"
	"github.com/spigell/pfe-aggregator/internal/utils"
)

const providerName = "gemini"

var _ ai.Drafter = (*Drafter)(nil)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Drafter asks Gemini for a motivation paragraph tailored to one posting.
type Drafter struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewDrafter(generator contentGenerator, log *zap.Logger, maxLogLength int) *Drafter {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Drafter{
		generator: generator,
		logger:    logger.WithCommonFields(log, providerName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (d *Drafter) Draft(ctx context.Context, contact applicant.Contact, p *posting.Posting) (*ai.Motivation, error) {
	if p == nil {
		return nil, errors.New("posting is required")
	}

	applicantJSON, err := json.MarshalIndent(contact, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal applicant payload: %w", err)
	}

	postingJSON, err := json.MarshalIndent(map[string]any{
		"title":       p.Title,
		"company":     p.Company,
		"description": p.Description,
		"link":        p.DisplayLink(),
		"fitness":     p.Fitness,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal posting payload: %w", err)
	}

	prompt := buildPrompt(string(applicantJSON), string(postingJSON))

	d.logger.Debug("gemini generate content request",
		zap.String("project_id", p.ProjectID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, d.maxLogLen)),
	)

	raw, err := d.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("gemini generate content response",
		zap.String("project_id", p.ProjectID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, d.maxLogLen)),
	)

	motivation, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	motivation.Raw = raw
	return motivation, nil
}

func buildPrompt(applicantJSON, postingJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Student:\n{{APPLICANT_JSON}}\n\nPosting:\n{{POSTING_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{APPLICANT_JSON}}", applicantJSON)
	prompt = strings.ReplaceAll(prompt, "{{POSTING_JSON}}", postingJSON)
	return prompt
}

func parseResponse(raw string) (*ai.Motivation, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	paragraph := coerceString(data["paragraph"])
	if paragraph == "" {
		return nil, errors.New("gemini response has no paragraph")
	}

	return &ai.Motivation{
		Subject:   coerceString(data["subject"]),
		Paragraph: paragraph,
	}, nil
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
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
