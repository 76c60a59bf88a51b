package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/pfe-aggregator/internal/posting"
)

// JSONFile reads postings exported by other tools: a JSON array of loosely typed objects.
type JSONFile struct {
	name string
	path string
	now  func() time.Time
}

func NewJSONFile(name, path string, now func() time.Time) *JSONFile {
	return &JSONFile{name: nameOr(name, path), path: path, now: now}
}

func (j *JSONFile) Name() string { return j.name }

func (j *JSONFile) Fetch(_ context.Context) ([]posting.RawPosting, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", j.path, err)
	}

	var records []any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", j.path, err)
	}

	return DecodeRecords(records, today(j.now)), nil
}

// DecodeRecords coerces each record into a RawPosting. Numbers and booleans become
// strings; records that are not objects yield empty postings. A missing or unparsable
// date_scraped falls back to scraped.
func DecodeRecords(records []any, scraped time.Time) []posting.RawPosting {
	items := make([]posting.RawPosting, 0, len(records))
	for _, record := range records {
		var raw posting.RawPosting

		cfg := &mapstructure.DecoderConfig{
			Result:           &raw,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
		}
		if decoder, err := mapstructure.NewDecoder(cfg); err == nil {
			// Partial results are kept; bad fields stay empty.
			_ = decoder.Decode(record)
		}

		raw.DateScraped = scraped
		if fields, ok := record.(map[string]any); ok {
			if s, ok := fields["date_scraped"].(string); ok {
				if d, err := posting.ParseDate(s); err == nil {
					raw.DateScraped = d
				}
			}
		}

		items = append(items, raw)
	}
	return items
}
