package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/spigell/pfe-aggregator/internal/ai"
	"github.com/spigell/pfe-aggregator/internal/applicant"
	"github.com/spigell/pfe-aggregator/internal/logger"
	"github.com/spigell/pfe-aggregator/internal/posting"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// DefaultEmailDir is where drafts land when no directory is configured.
const DefaultEmailDir = "emails"

type templateData struct {
	Posting    *posting.Posting
	Contact    applicant.Contact
	Link       string
	Date       string
	Subject    string
	Motivation string
}

// EmailDrafts writes bilingual application drafts, one file per posting.
type EmailDrafts struct {
	dir     string
	contact applicant.Contact
	drafter ai.Drafter
	now     func() time.Time
	logger  *zap.Logger
}

// NewEmailDrafts builds the writer. drafter may be nil.
func NewEmailDrafts(dir string, contact applicant.Contact, drafter ai.Drafter, now func() time.Time, log *zap.Logger) *EmailDrafts {
	if dir == "" {
		dir = DefaultEmailDir
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EmailDrafts{dir: dir, contact: contact, drafter: drafter, now: now, logger: log}
}

// Write renders the French and English drafts into <dir>/<date>_<project_id>.txt and
// returns the file path.
func (e *EmailDrafts) Write(ctx context.Context, p *posting.Posting) (string, error) {
	if p == nil || p.ProjectID == "" {
		return "", errors.New("posting with project id is required")
	}

	date := posting.FormatDate(posting.Day(e.now()))
	data := templateData{
		Posting: p,
		Contact: e.contact,
		Link:    p.DisplayLink(),
		Date:    date,
	}

	if e.drafter != nil {
		motivation, err := e.drafter.Draft(ctx, e.contact, p)
		if err != nil {
			e.logger.Warn("motivation paragraph not generated", append(logger.PostingFields(p), zap.Error(err))...)
		} else {
			data.Subject = motivation.Subject
			data.Motivation = motivation.Paragraph
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# French version\n\n")
	if err := templates.ExecuteTemplate(&buf, "email_fr.tmpl", data); err != nil {
		return "", fmt.Errorf("render french draft: %w", err)
	}
	buf.WriteString("\n\n# English version\n\n")
	if err := templates.ExecuteTemplate(&buf, "email_en.tmpl", data); err != nil {
		return "", fmt.Errorf("render english draft: %w", err)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", e.dir, err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.txt", date, p.ProjectID))
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write draft %s: %w", path, err)
	}

	e.logger.Debug("email draft written", append(logger.PostingFields(p), zap.String("path", path))...)
	return path, nil
}

// RenderIssue renders the GitHub issue body for p.
func RenderIssue(p *posting.Posting) (string, error) {
	var buf bytes.Buffer
	data := templateData{
		Posting: p,
		Link:    p.DisplayLink(),
		Date:    posting.FormatDate(p.DateScraped),
	}
	if err := templates.ExecuteTemplate(&buf, "issue.tmpl", data); err != nil {
		return "", fmt.Errorf("render issue: %w", err)
	}
	return buf.String(), nil
}
