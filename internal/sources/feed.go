package sources

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/spigell/pfe-aggregator/internal/posting"
)

// Feed reads an RSS or Atom catalogue of offers.
type Feed struct {
	name    string
	url     string
	fetcher *HTTPFetcher
	now     func() time.Time
}

func NewFeed(name, feedURL string, fetcher *HTTPFetcher, now func() time.Time) *Feed {
	return &Feed{name: nameOr(name, feedURL), url: feedURL, fetcher: fetcher, now: now}
}

func (f *Feed) Name() string { return f.name }

func (f *Feed) Fetch(ctx context.Context) ([]posting.RawPosting, error) {
	body, err := f.fetcher.Get(ctx, f.url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ParseFeed(body, f.url, today(f.now))
}

// ParseFeed converts feed items into postings. Items without a publication date are
// stamped with scraped.
func ParseFeed(r io.Reader, feedURL string, scraped time.Time) ([]posting.RawPosting, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]posting.RawPosting, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		date := scraped
		switch {
		case item.PublishedParsed != nil:
			date = posting.Day(*item.PublishedParsed)
		case item.UpdatedParsed != nil:
			date = posting.Day(*item.UpdatedParsed)
		}

		description := item.Description
		if description == "" {
			description = item.Content
		}

		company := ""
		if item.Author != nil {
			company = item.Author.Name
		}

		items = append(items, posting.RawPosting{
			Title:       collapse(item.Title),
			Company:     company,
			Link:        item.Link,
			Description: collapse(description),
			SourceURL:   feedURL,
			DateScraped: date,
		})
	}
	return items, nil
}
