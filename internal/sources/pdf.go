package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/spigell/pfe-aggregator/internal/posting"
)

const (
	maxBlockTitle   = 150
	defaultPDFTitle = "Projet PFE"
)

var blockKeywords = []string{"pfe", "projet", "stage"}

// TextExtractor returns the plain text of a document.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// PlainText extracts text with github.com/ledongthuc/pdf.
type PlainText struct{}

func (PlainText) Extract(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					buf.WriteByte(' ')
				}
				buf.WriteString(word.S)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

// PDF turns a project catalogue document into postings.
type PDF struct {
	name      string
	path      string
	extractor TextExtractor
	now       func() time.Time
}

func NewPDF(name, path string, extractor TextExtractor, now func() time.Time) *PDF {
	if extractor == nil {
		extractor = PlainText{}
	}
	return &PDF{name: nameOr(name, path), path: path, extractor: extractor, now: now}
}

func (p *PDF) Name() string { return p.name }

func (p *PDF) Fetch(_ context.Context) ([]posting.RawPosting, error) {
	if _, err := os.Stat(p.path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("pdf not found: %s", p.path)
	}

	text, err := p.extractor.Extract(p.path)
	if err != nil {
		return nil, err
	}
	return ExtractBlocks(text, p.path, today(p.now)), nil
}

// ExtractBlocks groups consecutive lines mentioning a keyword into one posting each.
func ExtractBlocks(text, sourcePath string, scraped time.Time) []posting.RawPosting {
	var (
		items []posting.RawPosting
		buf   []string
	)

	flush := func() {
		if len(buf) == 0 {
			return
		}
		block := strings.Join(buf, " ")
		buf = buf[:0]

		title, _, _ := strings.Cut(block, ".")
		title = truncateRunes(strings.TrimSpace(title), maxBlockTitle)
		if title == "" {
			title = defaultPDFTitle
		}

		items = append(items, posting.RawPosting{
			Title:       title,
			Description: block,
			SourceURL:   sourcePath,
			DateScraped: scraped,
		})
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if hasBlockKeyword(line) {
			buf = append(buf, line)
			continue
		}
		flush()
	}
	flush()

	return items
}

func hasBlockKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range blockKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
