package posting

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	PostingIDField      = "ProjectID"
	PostingFitnessField = "Fitness"
	PostingCompanyField = "Company"

	// DateLayout is the calendar-date layout used for date_scraped everywhere.
	DateLayout = "2006-01-02"
)

// RawPosting is a single opportunity as produced by a scraper or the PDF adapter.
type RawPosting struct {
	Title        string    `json:"title" mapstructure:"title"`
	Company      string    `json:"company" mapstructure:"company"`
	Link         string    `json:"link" mapstructure:"link"`
	Description  string    `json:"description" mapstructure:"description"`
	ContactEmail string    `json:"contact_email" mapstructure:"contact_email"`
	SourceURL    string    `json:"source_url" mapstructure:"source_url"`
	DateScraped  time.Time `json:"date_scraped" mapstructure:"-"`
}

// Posting is a normalized RawPosting enriched with fitness information.
type Posting struct {
	RawPosting

	ProjectID          string  `json:"project_id"`
	Fitness            string  `json:"fitness,omitempty"`
	CSVCompanyMatch    string  `json:"csv_company_match,omitempty"`
	FitnessMatchScore  float64 `json:"fitness_match_score"`
	FitnessMatchApprox bool    `json:"fitness_match_approx"`
}

type Postings struct {
	Items []*Posting
}

// Today returns the current UTC calendar date.
func Today() time.Time {
	return Day(time.Now())
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// HasFitness reports whether a roster match was attached.
func (p *Posting) HasFitness() bool {
	return p.CSVCompanyMatch != ""
}

// DisplayLink prefers the posting link and falls back to the page it was scraped from.
func (p *Posting) DisplayLink() string {
	if p.Link != "" {
		return p.Link
	}
	return p.SourceURL
}

func (p *Posting) GetStringField(name string) string {
	switch name {
	case PostingIDField:
		return p.ProjectID
	case PostingFitnessField:
		return p.Fitness
	case PostingCompanyField:
		return p.Company
	default:
		return ""
	}
}

func (v *Postings) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Items)
}

func (v *Postings) FindByID(id string) *Posting {
	for _, p := range v.Items {
		if p.ProjectID == id {
			return p
		}
	}
	return nil
}

func (v *Postings) ProjectIDs() []string {
	ids := make([]string, 0, len(v.Items))
	for _, p := range v.Items {
		ids = append(ids, p.ProjectID)
	}
	return ids
}

func (v *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByFitness groups postings under their fitness label; unmatched ones go under "unknown".
func (v *Postings) ReportByFitness() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, p := range v.Items {
		key := p.Fitness
		if key == "" {
			key = "unknown"
		}

		entry := map[string]string{
			"project_id":   p.ProjectID,
			"title":        p.Title,
			"company":      p.Company,
			"link":         p.DisplayLink(),
			"date_scraped": FormatDate(p.DateScraped),
		}
		if p.HasFitness() {
			entry["csv_company_match"] = p.CSVCompanyMatch
			entry["match_score"] = fmt.Sprintf("%.2f", p.FitnessMatchScore)
			if p.FitnessMatchApprox {
				entry["approx"] = "true"
			}
		}

		report[key] = append(report[key], entry)
	}
	return report
}

// FormatDate renders a calendar date, or an empty string for the zero date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// ParseDate accepts a plain calendar date or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Day(t), nil
}
