package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/pfe-aggregator/internal/applicant"
	"github.com/spigell/pfe-aggregator/internal/logger"
	"github.com/spigell/pfe-aggregator/internal/posting"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func samplePosting() *posting.Posting {
	return &posting.Posting{
		RawPosting: posting.RawPosting{
			Title:       "Plateforme IoT",
			Company:     "acme",
			Description: "Build a device registry in Go",
			SourceURL:   "https://pfebook.com",
		},
		ProjectID: "plateforme-iot-acme",
		Fitness:   "High",
	}
}

func TestDrafterDraft(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: "```json\n{\"subject\": \"Candidature PFE\", \"paragraph\": \" I enjoy building IoT backends. \"}\n```"}
	drafter := NewDrafter(stub, zap.NewNop(), 0)

	contact := applicant.Contact{Name: "Jane Doe", Email: "jane@mail.com"}
	got, err := drafter.Draft(context.Background(), contact, samplePosting())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Subject != "Candidature PFE" || got.Paragraph != "I enjoy building IoT backends." {
		t.Fatalf("unexpected motivation: %+v", got)
	}
	if got.Raw != stub.response {
		t.Fatalf("expected raw response to be kept")
	}

	for _, want := range []string{`"name": "Jane Doe"`, `"title": "Plateforme IoT"`, `"link": "https://pfebook.com"`} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("prompt is missing %s:\n%s", want, stub.lastPrompt)
		}
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatalf("prompt has unreplaced placeholders:\n%s", stub.lastPrompt)
	}
}

func TestDrafterErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stub    *stubGenerator
		posting *posting.Posting
	}{
		{name: "nil posting", stub: &stubGenerator{}, posting: nil},
		{name: "generator error", stub: &stubGenerator{err: errors.New("quota")}, posting: samplePosting()},
		{name: "not json", stub: &stubGenerator{response: "Sure! Here it is"}, posting: samplePosting()},
		{name: "no paragraph", stub: &stubGenerator{response: `{"subject": "x"}`}, posting: samplePosting()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewDrafter(tt.stub, zap.NewNop(), 0).Draft(context.Background(), applicant.Contact{}, tt.posting); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDrafterLogsWithModelFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	stub := &stubGenerator{response: `{"paragraph": "ok"}`}

	if _, err := NewDrafter(stub, zap.New(core), 10).Draft(context.Background(), applicant.Contact{}, samplePosting()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("gemini generate content request").All()
	if len(entries) != 1 {
		t.Fatalf("expected request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields[logger.FieldProvider] != "gemini" || fields[logger.FieldModel] != "stub-model" {
		t.Fatalf("expected provider fields, got %+v", fields)
	}
	if preview, _ := fields["prompt_preview"].(string); len([]rune(preview)) != 13 {
		t.Fatalf("expected truncated preview, got %q", preview)
	}
}

func TestGeneratorNotInitialized(t *testing.T) {
	t.Parallel()

	var g *Generator
	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error for nil generator")
	}
	if g.Model() != "" {
		t.Fatalf("expected empty model for nil generator")
	}
	if _, err := NewGenerator(context.Background(), "  ", ""); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}
