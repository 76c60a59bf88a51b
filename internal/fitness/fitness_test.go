package fitness

import (
	"math"
	"testing"

	"github.com/spigell/pfe-aggregator/internal/posting"
	"github.com/spigell/pfe-aggregator/internal/roster"
)

var testRoster = []roster.CompanyRecord{
	{Name: "Acme Corp", FitnessCategory: "High"},
	{Name: "Beta SA", FitnessCategory: "Low"},
}

func TestMatchApproximate(t *testing.T) {
	t.Parallel()

	res := Match("acme corp tunisia", testRoster)

	if res.MatchedName != "Acme Corp" {
		t.Fatalf("expected Acme Corp, got %q", res.MatchedName)
	}
	if res.Fitness != "High" {
		t.Fatalf("expected High, got %q", res.Fitness)
	}
	if math.Abs(res.Score-2.0/3.0) > 1e-9 {
		t.Fatalf("expected score 2/3, got %v", res.Score)
	}
	if !res.Approx {
		t.Fatalf("expected approximate match")
	}
}

func TestMatchExact(t *testing.T) {
	t.Parallel()

	res := Match("Acme Corp", testRoster)
	if res.Score != 1 {
		t.Fatalf("expected score 1, got %v", res.Score)
	}
	if res.Approx {
		t.Fatalf("expected exact match")
	}
}

func TestMatchApproxIsLiteral(t *testing.T) {
	t.Parallel()

	res := Match("Acme, Corp", testRoster)
	if res.Score != 1 {
		t.Fatalf("expected token-set equality to score 1, got %v", res.Score)
	}
	if !res.Approx {
		t.Fatalf("expected approx when strings differ literally")
	}
}

func TestMatchNoResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		company   string
		companies []roster.CompanyRecord
	}{
		{name: "empty roster", company: "Acme Corp", companies: nil},
		{name: "empty company", company: "   ", companies: testRoster},
		{name: "zero overlap", company: "Gamma Labs", companies: testRoster},
		{name: "punctuation only", company: "***", companies: testRoster},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Match(tt.company, tt.companies)
			if res.Found() || res.Fitness != "" || res.Score != 0 || res.Approx {
				t.Fatalf("expected no match, got %+v", res)
			}
		})
	}
}

func TestMatchExactShortcutWithoutTokens(t *testing.T) {
	t.Parallel()

	res := Match("***", []roster.CompanyRecord{{Name: "***", FitnessCategory: "Medium"}})
	if res.Score != 1 || res.Fitness != "Medium" || res.Approx {
		t.Fatalf("expected exact shortcut match, got %+v", res)
	}
}

func TestMatchTieKeepsFirstRosterEntry(t *testing.T) {
	t.Parallel()

	companies := []roster.CompanyRecord{
		{Name: "Acme Labs", FitnessCategory: "Medium"},
		{Name: "Acme Group", FitnessCategory: "High"},
	}

	for i := 0; i < 10; i++ {
		res := Match("acme", companies)
		if res.MatchedName != "Acme Labs" || res.Fitness != "Medium" {
			t.Fatalf("expected first roster entry on tie, got %+v", res)
		}
	}
}

func TestMatchWeakScoreStillMatches(t *testing.T) {
	t.Parallel()

	res := Match("beta consulting group international", testRoster)
	if res.MatchedName != "Beta SA" {
		t.Fatalf("expected weak best-effort match, got %+v", res)
	}
	if res.Score != 0.2 {
		t.Fatalf("expected score 0.2, got %v", res.Score)
	}
}

func TestApplySetsPostingFields(t *testing.T) {
	t.Parallel()

	p := posting.Normalize(posting.RawPosting{Title: "Go Intern", Company: "Acme Corp Tunisia"})
	Apply(&p, testRoster)

	if p.Fitness != "High" || p.CSVCompanyMatch != "Acme Corp" || !p.FitnessMatchApprox {
		t.Fatalf("unexpected posting fields: %+v", p)
	}
	if !p.HasFitness() {
		t.Fatalf("expected posting to carry fitness")
	}
}

func TestJaccard(t *testing.T) {
	t.Parallel()

	if got := Jaccard(Tokenize("a b c"), Tokenize("b c d")); got != 0.5 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	if got := Jaccard(Tokenize(""), Tokenize("a")); got != 0 {
		t.Fatalf("expected 0 for empty set, got %v", got)
	}
}
