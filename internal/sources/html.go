package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/spigell/pfe-aggregator/internal/posting"
)

const (
	ProfilePFEBook   = "pfebook"
	ProfileHiInterns = "hi-interns"
	ProfileITGate    = "itgate"
	ProfileMedianet  = "medianet"
	ProfileGeneric   = "generic"

	maxAnchorTitle = 120
)

// Profile holds the selectors used to cut a listing page into postings.
type Profile struct {
	Name         string
	Cards        string
	Title        string
	Company      string
	Description  string
	DefaultTitle string
	// FixedCompany overrides Company for single-employer sites.
	FixedCompany string
	// TextFallback uses the card text as description and its first runes as title.
	TextFallback bool
}

var profiles = map[string]Profile{
	ProfilePFEBook: {
		Name:         ProfilePFEBook,
		Cards:        ".job-card, .card, article",
		Title:        "h2, h3, .job-title",
		Company:      ".company, .company-name, .job-company",
		Description:  ".description, .job-description, p",
		DefaultTitle: "PFE opportunity",
	},
	ProfileHiInterns: {
		Name:         ProfileHiInterns,
		Cards:        ".internship-card, .card, article",
		Title:        "h2, h3, .title",
		Company:      ".company, .company-name",
		Description:  ".description, p",
		DefaultTitle: "Internship / PFE",
	},
	ProfileITGate: {
		Name:         ProfileITGate,
		Cards:        "li, .pfe-item, article",
		Title:        "h2, h3",
		FixedCompany: "ITGate Group",
		TextFallback: true,
	},
	ProfileMedianet: {
		Name:         ProfileMedianet,
		Cards:        ".job-offer, .card, article",
		Title:        "h2, h3, .title",
		Description:  ".description, p",
		DefaultTitle: "Stage PFE",
		FixedCompany: "Medianet",
	},
}

var anchorKeywords = []string{"pfe", "stage", "projet"}

// ProfileFor returns the explicit profile, or guesses one from the page host.
func ProfileFor(name, pageURL string) (Profile, bool) {
	if name != "" {
		if p, ok := profiles[name]; ok {
			return p, true
		}
		if name == ProfileGeneric {
			return Profile{Name: ProfileGeneric}, true
		}
		return Profile{}, false
	}

	lower := strings.ToLower(pageURL)
	switch {
	case strings.Contains(lower, "pfebook.com"), strings.Contains(lower, "pfebooks.com"):
		return profiles[ProfilePFEBook], true
	case strings.Contains(lower, "hi-interns.com"):
		return profiles[ProfileHiInterns], true
	case strings.Contains(lower, "itgate-group.com"):
		return profiles[ProfileITGate], true
	case strings.Contains(lower, "rh.medianet.tn"):
		return profiles[ProfileMedianet], true
	default:
		return Profile{Name: ProfileGeneric}, true
	}
}

// HTML scrapes one listing page.
type HTML struct {
	name    string
	url     string
	profile string
	fetcher *HTTPFetcher
	now     func() time.Time
}

func NewHTML(name, pageURL, profile string, fetcher *HTTPFetcher, now func() time.Time) *HTML {
	return &HTML{
		name:    nameOr(name, pageURL),
		url:     pageURL,
		profile: strings.ToLower(strings.TrimSpace(profile)),
		fetcher: fetcher,
		now:     now,
	}
}

func (h *HTML) Name() string { return h.name }

func (h *HTML) Fetch(ctx context.Context) ([]posting.RawPosting, error) {
	profile, ok := ProfileFor(h.profile, h.url)
	if !ok {
		return nil, fmt.Errorf("unknown html profile %q", h.profile)
	}

	body, err := h.fetcher.Get(ctx, h.url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return ParseDocument(doc, profile, h.url, today(h.now)), nil
}

// ParseDocument extracts postings from an already loaded page.
func ParseDocument(doc *goquery.Document, profile Profile, pageURL string, scraped time.Time) []posting.RawPosting {
	if profile.Name == ProfileGeneric || profile.Cards == "" {
		return parseAnchors(doc, pageURL, scraped)
	}

	var items []posting.RawPosting
	doc.Find(profile.Cards).Each(func(_ int, card *goquery.Selection) {
		text := collapse(card.Text())
		if profile.TextFallback && text == "" {
			return
		}

		title := firstText(card, profile.Title)
		if title == "" {
			title = profile.DefaultTitle
			if profile.TextFallback {
				title = truncateRunes(text, maxAnchorTitle)
			}
		}

		company := profile.FixedCompany
		if company == "" && profile.Company != "" {
			company = firstText(card, profile.Company)
		}

		description := ""
		if profile.Description != "" {
			description = firstText(card, profile.Description)
		}
		if profile.TextFallback {
			description = text
		}

		link := pageURL
		if href, ok := card.Find("a").First().Attr("href"); ok {
			link = resolveLink(pageURL, href)
		}

		items = append(items, posting.RawPosting{
			Title:       title,
			Company:     company,
			Link:        link,
			Description: description,
			SourceURL:   pageURL,
			DateScraped: scraped,
		})
	})
	return items
}

func parseAnchors(doc *goquery.Document, pageURL string, scraped time.Time) []posting.RawPosting {
	var items []posting.RawPosting
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		text := collapse(a.Text())
		if text == "" || !containsKeyword(text) {
			return
		}

		link := pageURL
		if href, ok := a.Attr("href"); ok && strings.TrimSpace(href) != "" {
			link = resolveLink(pageURL, href)
		}

		items = append(items, posting.RawPosting{
			Title:       truncateRunes(text, maxAnchorTitle),
			Link:        link,
			Description: text,
			SourceURL:   pageURL,
			DateScraped: scraped,
		})
	})
	return items
}

func firstText(s *goquery.Selection, selector string) string {
	return collapse(s.Find(selector).First().Text())
}

func resolveLink(pageURL, href string) string {
	href = strings.TrimSpace(href)
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func containsKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range anchorKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
