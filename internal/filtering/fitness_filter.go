package filtering

import (
	"context"
	"sort"
	"strings"

	"github.com/spigell/pfe-aggregator/internal/posting"
)

type fitnessFilter struct {
	allowed map[string]struct{}
}

// NewFitness creates a step that keeps postings whose fitness is in the given set.
// An empty set disables the step.
func NewFitness(levels []string) Filter {
	allowed := make(map[string]struct{}, len(levels))
	for _, level := range levels {
		if level = strings.TrimSpace(level); level != "" {
			allowed[level] = struct{}{}
		}
	}
	return &fitnessFilter{allowed: allowed}
}

func (f *fitnessFilter) Name() string { return "fitness" }

func (f *fitnessFilter) Disable(string) { f.allowed = nil }

func (f *fitnessFilter) IsEnabled() bool { return len(f.allowed) > 0 }

func (f *fitnessFilter) Validate() error { return nil }

func (f *fitnessFilter) Apply(_ context.Context, v *posting.Postings) (*posting.Postings, Step, error) {
	out, step := ByFitness(v, f.allowed)
	return out, step, nil
}

func (f *fitnessFilter) Status() Status {
	levels := make([]string, 0, len(f.allowed))
	for level := range f.allowed {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	details := map[string]string{}
	if len(levels) > 0 {
		details["levels"] = strings.Join(levels, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: details}
}

// ByFitness keeps postings whose fitness is a member of allowed. Postings without a
// fitness label never pass an active filter. An empty set passes everything through.
func ByFitness(v *posting.Postings, allowed map[string]struct{}) (*posting.Postings, Step) {
	if len(allowed) == 0 {
		return v, Step{Initial: v.Len(), Left: v.Len()}
	}
	return keep(v, func(p *posting.Posting) bool {
		if p.Fitness == "" {
			return false
		}
		_, ok := allowed[p.Fitness]
		return ok
	})
}

// ParseLevels splits a comma-separated fitness list such as "High,Medium".
func ParseLevels(s string) []string {
	var levels []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			levels = append(levels, part)
		}
	}
	return levels
}
