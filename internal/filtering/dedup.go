package filtering

import (
	"context"
	"sort"

	"github.com/spigell/pfe-aggregator/internal/posting"
)

type dedupFilter struct {
	disabled bool
}

// NewDedup creates a step that keeps one posting per project id.
func NewDedup() Filter {
	return &dedupFilter{}
}

func (f *dedupFilter) Name() string { return "dedup" }

func (f *dedupFilter) Disable(string) { f.disabled = true }

func (f *dedupFilter) IsEnabled() bool { return !f.disabled }

func (f *dedupFilter) Validate() error { return nil }

func (f *dedupFilter) Apply(_ context.Context, v *posting.Postings) (*posting.Postings, Step, error) {
	initial := v.Len()
	out := &posting.Postings{Items: Deduplicate(v.Items)}
	return out, Step{Initial: initial, Dropped: initial - out.Len(), Left: out.Len()}, nil
}

// Deduplicate keeps the highest-scoring posting of every project id; earlier postings
// win ties. Groups are emitted in order of their first appearance.
func Deduplicate(items []*posting.Posting) []*posting.Posting {
	order := make([]string, 0, len(items))
	groups := make(map[string][]*posting.Posting, len(items))
	for _, p := range items {
		if _, ok := groups[p.ProjectID]; !ok {
			order = append(order, p.ProjectID)
		}
		groups[p.ProjectID] = append(groups[p.ProjectID], p)
	}

	out := make([]*posting.Posting, 0, len(order))
	for _, id := range order {
		group := groups[id]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].FitnessMatchScore > group[j].FitnessMatchScore
		})
		out = append(out, group[0])
	}
	return out
}
