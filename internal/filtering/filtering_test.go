package filtering

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/pfe-aggregator/internal/posting"
	"github.com/spigell/pfe-aggregator/internal/roster"
)

func mk(id string, score float64, source string) *posting.Posting {
	return &posting.Posting{
		RawPosting:        posting.RawPosting{Title: id, SourceURL: source},
		ProjectID:         id,
		FitnessMatchScore: score,
	}
}

func sources(items []*posting.Posting) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.ProjectID+"@"+p.SourceURL)
	}
	return out
}

func TestDeduplicateKeepsBestAndFirstAppearanceOrder(t *testing.T) {
	t.Parallel()

	input := []*posting.Posting{
		mk("b", 0.2, "s1"),
		mk("a", 0.5, "s1"),
		mk("b", 0.9, "s2"),
		mk("a", 0.5, "s2"),
		mk("c", 0, "s1"),
		mk("b", 0.9, "s3"),
	}

	got := sources(Deduplicate(input))
	expect := []string{"b@s2", "a@s1", "c@s1"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("expected %v, got %v", expect, got)
	}
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	t.Parallel()

	input := []*posting.Posting{
		mk("x", 0.1, "s1"), mk("y", 0.3, "s1"), mk("x", 0.4, "s2"), mk("z", 1, "s1"), mk("y", 0.3, "s2"),
	}

	once := Deduplicate(input)
	twice := Deduplicate(once)
	if !reflect.DeepEqual(sources(once), sources(twice)) {
		t.Fatalf("expected idempotent dedup, got %v then %v", sources(once), sources(twice))
	}

	seen := map[string]bool{}
	for _, p := range once {
		if seen[p.ProjectID] {
			t.Fatalf("duplicate id %q in output", p.ProjectID)
		}
		seen[p.ProjectID] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct ids, got %d", len(seen))
	}
}

func TestDeduplicateDoesNotReorderInput(t *testing.T) {
	t.Parallel()

	input := []*posting.Posting{mk("a", 0.1, "s1"), mk("a", 0.9, "s2")}
	Deduplicate(input)
	if input[0].SourceURL != "s1" || input[1].SourceURL != "s2" {
		t.Fatalf("input slice must not be reordered: %v", sources(input))
	}
}

func TestByFitness(t *testing.T) {
	t.Parallel()

	high := &posting.Posting{ProjectID: "h", Fitness: "High", CSVCompanyMatch: "A"}
	medium := &posting.Posting{ProjectID: "m", Fitness: "Medium", CSVCompanyMatch: "B"}
	none := &posting.Posting{ProjectID: "n"}
	v := &posting.Postings{Items: []*posting.Posting{high, medium, none}}

	out, step := ByFitness(v, map[string]struct{}{"High": {}})
	if out.Len() != 1 || out.Items[0] != high {
		t.Fatalf("expected only high posting, got %v", out.ProjectIDs())
	}
	if step.Dropped != 2 || step.Left != 1 || step.Initial != 3 {
		t.Fatalf("unexpected step: %+v", step)
	}

	out, _ = ByFitness(v, nil)
	if out.Len() != 3 {
		t.Fatalf("expected pass-through without filter, got %d", out.Len())
	}
}

func TestSince(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	at := func(id string, daysAgo int) *posting.Posting {
		return &posting.Posting{ProjectID: id, RawPosting: posting.RawPosting{DateScraped: today.AddDate(0, 0, -daysAgo)}}
	}

	v := &posting.Postings{Items: []*posting.Posting{
		at("today", 0),
		at("boundary", 7),
		at("old", 8),
		{ProjectID: "undated"},
	}}

	out, step := Since(v, 7, today.Add(23*time.Hour))
	expect := []string{"today", "boundary", "undated"}
	if !reflect.DeepEqual(out.ProjectIDs(), expect) {
		t.Fatalf("expected %v, got %v", expect, out.ProjectIDs())
	}
	if step.Dropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", step.Dropped)
	}

	out, _ = Since(v, 0, today)
	if out.Len() != 4 {
		t.Fatalf("expected pass-through for zero days, got %d", out.Len())
	}
}

func TestRunFiltersComposesWithAnd(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	today := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	oldHigh := &posting.Posting{ProjectID: "old-high", Fitness: "High", CSVCompanyMatch: "A",
		RawPosting: posting.RawPosting{DateScraped: today.AddDate(0, 0, -10)}}
	freshMedium := &posting.Posting{ProjectID: "fresh-medium", Fitness: "Medium", CSVCompanyMatch: "B",
		RawPosting: posting.RawPosting{DateScraped: today}}
	freshHigh := &posting.Posting{ProjectID: "fresh-high", Fitness: "High", CSVCompanyMatch: "A",
		RawPosting: posting.RawPosting{DateScraped: today.AddDate(0, 0, -1)}}

	f := New([]Filter{NewFitness([]string{"High"}), NewSince(7, now)}, zap.NewNop())
	out, reports, err := f.RunFilters(context.Background(), &posting.Postings{Items: []*posting.Posting{oldHigh, freshMedium, freshHigh}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(out.ProjectIDs(), []string{"fresh-high"}) {
		t.Fatalf("unexpected result: %v", out.ProjectIDs())
	}
	if len(reports) != 2 || reports[0].Name != "fitness" || reports[1].Name != "since_days" {
		t.Fatalf("unexpected reports: %+v", reports)
	}
}

func TestRunFiltersSkipsDisabledAndLogs(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.DebugLevel)
	f := New([]Filter{NewFitness(nil), NewTop(1), NewDedup()}, zap.New(core))

	v := &posting.Postings{Items: []*posting.Posting{mk("a", 0, "s"), mk("b", 0, "s"), mk("a", 1, "s2")}}
	out, reports, err := f.RunFilters(context.Background(), v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 1 || out.Items[0].ProjectID != "a" {
		t.Fatalf("unexpected postings: %v", out.ProjectIDs())
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}

	if got := observed.FilterMessage("filter disabled").Len(); got != 1 {
		t.Fatalf("expected 1 disabled log, got %d", got)
	}
	steps := observed.FilterMessage("filter step").All()
	if len(steps) != 2 {
		t.Fatalf("expected 2 step logs, got %d", len(steps))
	}
	if steps[0].ContextMap()["name"] != "top" || steps[0].ContextMap()["dropped"] != int64(2) {
		t.Fatalf("unexpected top step log: %v", steps[0].ContextMap())
	}
}

type failingFilter struct{}

func (failingFilter) Name() string    { return "failing" }
func (failingFilter) Disable(string)  {}
func (failingFilter) IsEnabled() bool { return true }
func (failingFilter) Validate() error { return errors.New("bad config") }
func (failingFilter) Apply(_ context.Context, v *posting.Postings) (*posting.Postings, Step, error) {
	return v, Step{}, nil
}

func TestRunFiltersValidatesFirst(t *testing.T) {
	t.Parallel()

	f := New([]Filter{NewTop(1), failingFilter{}}, nil)
	if _, _, err := f.RunFilters(context.Background(), &posting.Postings{}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestFitnessMatchFilterAnnotates(t *testing.T) {
	t.Parallel()

	companies := []roster.CompanyRecord{{Name: "Acme Corp", FitnessCategory: "High"}}
	p := posting.Normalize(posting.RawPosting{Title: "Go Intern", Company: "Acme Corp Tunisia"})
	v := &posting.Postings{Items: []*posting.Posting{&p}}

	out, step, err := NewFitnessMatch(companies, nil).Apply(context.Background(), v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Dropped != 0 || out.Len() != 1 {
		t.Fatalf("matching must not drop postings: %+v", step)
	}
	if out.Items[0].Fitness != "High" {
		t.Fatalf("expected High fitness, got %q", out.Items[0].Fitness)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	f := New([]Filter{NewFitness([]string{"Medium", " High "}), NewSince(0, nil), NewTop(5)}, nil)
	statuses := f.Describe()
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0].Details["levels"] != "High,Medium" {
		t.Fatalf("unexpected levels: %q", statuses[0].Details["levels"])
	}
	if statuses[1].Enabled {
		t.Fatalf("expected since filter disabled")
	}
	if statuses[2].Details["limit"] != "5" {
		t.Fatalf("unexpected limit detail: %v", statuses[2].Details)
	}
}

func TestParseLevels(t *testing.T) {
	t.Parallel()

	if got := ParseLevels(" High, ,Medium "); !reflect.DeepEqual(got, []string{"High", "Medium"}) {
		t.Fatalf("unexpected levels: %v", got)
	}
	if got := ParseLevels(""); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
