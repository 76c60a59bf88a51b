package filtering

import (
	"context"
	"strconv"
	"time"

	"github.com/spigell/pfe-aggregator/internal/posting"
)

type sinceFilter struct {
	days int
	now  func() time.Time
}

// NewSince creates a step that keeps postings scraped within the last days calendar days.
// Non-positive values disable the step.
func NewSince(days int, now func() time.Time) Filter {
	if now == nil {
		now = time.Now
	}
	return &sinceFilter{days: days, now: now}
}

func (f *sinceFilter) Name() string { return "since_days" }

func (f *sinceFilter) Disable(string) { f.days = 0 }

func (f *sinceFilter) IsEnabled() bool { return f.days > 0 }

func (f *sinceFilter) Validate() error { return nil }

func (f *sinceFilter) Apply(_ context.Context, v *posting.Postings) (*posting.Postings, Step, error) {
	out, step := Since(v, f.days, posting.Day(f.now()))
	return out, step, nil
}

func (f *sinceFilter) Status() Status {
	details := map[string]string{}
	if f.days > 0 {
		details["days"] = strconv.Itoa(f.days)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: details}
}

// Since keeps postings with date_scraped >= today - days (inclusive, calendar dates).
// Undated postings are kept.
func Since(v *posting.Postings, days int, today time.Time) (*posting.Postings, Step) {
	if days <= 0 {
		return v, Step{Initial: v.Len(), Left: v.Len()}
	}

	cutoff := posting.Day(today).AddDate(0, 0, -days)
	return keep(v, func(p *posting.Posting) bool {
		if p.DateScraped.IsZero() {
			return true
		}
		return !posting.Day(p.DateScraped).Before(cutoff)
	})
}
