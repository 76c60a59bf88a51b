// Package fitness matches posting companies against the reference roster.
package fitness

import (
	"strings"
	"unicode"

	"github.com/spigell/pfe-aggregator/internal/posting"
	"github.com/spigell/pfe-aggregator/internal/roster"
)

// Result is the best roster match for a company. A zero Result means no match.
type Result struct {
	Fitness     string
	MatchedName string
	Score       float64
	Approx      bool
}

// Found reports whether a roster entry was matched.
func (r Result) Found() bool {
	return r.MatchedName != ""
}

// Match returns the roster entry whose name has the highest Jaccard token similarity
// with company. Ties keep the earliest roster entry; a best score of 0 yields no match.
func Match(company string, companies []roster.CompanyRecord) Result {
	norm := posting.CanonicalCompany(company)
	if norm == "" || len(companies) == 0 {
		return Result{}
	}

	tokens := Tokenize(norm)

	best := -1
	bestScore := 0.0
	for idx, candidate := range companies {
		score := similarity(norm, tokens, candidate.Name)
		if score > bestScore {
			best = idx
			bestScore = score
		}
	}

	if best < 0 {
		return Result{}
	}

	matched := companies[best]
	return Result{
		Fitness:     matched.FitnessCategory,
		MatchedName: matched.Name,
		Score:       bestScore,
		Approx:      posting.CanonicalCompany(matched.Name) != norm,
	}
}

// Apply attaches the match result to p.
func Apply(p *posting.Posting, companies []roster.CompanyRecord) Result {
	res := Match(p.Company, companies)
	p.Fitness = res.Fitness
	p.CSVCompanyMatch = res.MatchedName
	p.FitnessMatchScore = res.Score
	p.FitnessMatchApprox = res.Approx
	return res
}

func similarity(norm string, tokens map[string]struct{}, candidate string) float64 {
	candidateNorm := posting.CanonicalCompany(candidate)
	if candidateNorm == "" {
		return 0
	}
	if candidateNorm == norm {
		return 1
	}
	return Jaccard(tokens, Tokenize(candidateNorm))
}

// Tokenize splits s into the set of its lowercase letter/digit runs.
func Tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard is |a∩b| / |a∪b|, and 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inter := 0
	for token := range a {
		if _, ok := b[token]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
