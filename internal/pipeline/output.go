package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/renameio/v2"

	"github.com/spigell/pfe-aggregator/internal/posting"
)

// CSVColumns is the header of the aggregated postings file.
var CSVColumns = []string{
	"project_id",
	"title",
	"company",
	"link",
	"description",
	"contact_email",
	"source_url",
	"date_scraped",
	"fitness",
	"csv_company_match",
	"fitness_match_score",
	"fitness_match_approx",
}

// SaveCSV writes postings to path atomically. An existing file is left alone unless
// force is set; the returned flag tells whether the file was written.
func SaveCSV(path string, postings *posting.Postings, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVColumns); err != nil {
		return false, err
	}
	if postings != nil {
		for _, p := range postings.Items {
			record := []string{
				p.ProjectID,
				p.Title,
				p.Company,
				p.Link,
				p.Description,
				p.ContactEmail,
				p.SourceURL,
				posting.FormatDate(p.DateScraped),
				p.Fitness,
				p.CSVCompanyMatch,
				"",
				"",
			}
			if p.HasFitness() {
				record[10] = strconv.FormatFloat(p.FitnessMatchScore, 'f', 4, 64)
				record[11] = strconv.FormatBool(p.FitnessMatchApprox)
			}
			if err := w.Write(record); err != nil {
				return false, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, fmt.Errorf("encode csv: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
