package posting

import (
	"strings"
	"unicode"

	"github.com/gosimple/slug"
)

const (
	maxProjectIDLength = 80
	fallbackProjectID  = "project"
)

// Normalize canonicalizes a raw posting. It never fails: missing values stay empty strings.
func Normalize(raw RawPosting) Posting {
	p := Posting{
		RawPosting: RawPosting{
			Title:        strings.TrimSpace(raw.Title),
			Company:      CanonicalCompany(raw.Company),
			Link:         strings.TrimSpace(raw.Link),
			Description:  strings.TrimSpace(raw.Description),
			ContactEmail: strings.TrimSpace(raw.ContactEmail),
			SourceURL:    strings.TrimSpace(raw.SourceURL),
		},
	}
	if !raw.DateScraped.IsZero() {
		p.DateScraped = Day(raw.DateScraped)
	}

	p.ProjectID = ProjectID(p.Title, p.Company)
	return p
}

// NormalizeAll normalizes a batch preserving order.
func NormalizeAll(raws []RawPosting) *Postings {
	out := &Postings{Items: make([]*Posting, 0, len(raws))}
	for _, raw := range raws {
		p := Normalize(raw)
		out.Items = append(out.Items, &p)
	}
	return out
}

// CanonicalCompany is the literal form used for company comparison: trimmed and lowercased.
func CanonicalCompany(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeText lowercases, turns punctuation into spaces and collapses whitespace.
func NormalizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// ProjectID derives the stable identifier of a (title, company) pair.
func ProjectID(title, company string) string {
	id := slug.Make(NormalizeText(title) + "-" + NormalizeText(company))

	if runes := []rune(id); len(runes) > maxProjectIDLength {
		id = strings.Trim(string(runes[:maxProjectIDLength]), "-")
	}
	if id == "" {
		return fallbackProjectID
	}
	return id
}
