package filtering

import (
	"context"
	"strconv"

	"github.com/spigell/pfe-aggregator/internal/posting"
)

type topFilter struct {
	limit int
}

// NewTop creates a step that truncates the list to its first limit postings.
func NewTop(limit int) Filter {
	return &topFilter{limit: limit}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Disable(string) { f.limit = 0 }

func (f *topFilter) IsEnabled() bool { return f.limit > 0 }

func (f *topFilter) Validate() error { return nil }

func (f *topFilter) Apply(_ context.Context, v *posting.Postings) (*posting.Postings, Step, error) {
	initial := v.Len()
	if initial <= f.limit {
		return v, Step{Initial: initial, Left: initial}, nil
	}

	out := &posting.Postings{Items: append([]*posting.Posting(nil), v.Items[:f.limit]...)}
	return out, Step{Initial: initial, Dropped: initial - f.limit, Left: f.limit}, nil
}

func (f *topFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: map[string]string{"limit": strconv.Itoa(f.limit)}}
}
