// Package roster loads the reference company list with fitness categories.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const FitnessColumn = "Fitness Category"

// ErrNotFound is returned when neither the primary nor the fallback roster file exists.
var ErrNotFound = errors.New("company roster not found")

var companyColumns = []string{"company", "entreprise", "societe", "company name", "nom_societe"}

type CompanyRecord struct {
	Name            string
	FitnessCategory string
}

// Resolve returns the first existing path among primary and fallback.
func Resolve(primary, fallback string) (string, error) {
	for _, path := range []string{primary, fallback} {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w (primary %q, fallback %q)", ErrNotFound, primary, fallback)
}

// Load reads the roster from the first existing path. When none exists it returns an
// empty roster together with ErrNotFound so callers can degrade instead of aborting.
func Load(primary, fallback string) ([]CompanyRecord, string, error) {
	path, err := Resolve(primary, fallback)
	if err != nil {
		return nil, "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, path, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer file.Close()

	companies, err := Parse(file)
	if err != nil {
		return nil, path, fmt.Errorf("parse roster %s: %w", path, err)
	}
	return companies, path, nil
}

// Parse reads roster rows from CSV. The company column is detected case-insensitively;
// rows without a company name are skipped.
func Parse(r io.Reader) ([]CompanyRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	companyIdx, fitnessIdx := -1, -1
	lower := make(map[string]int, len(header))
	for idx, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if _, ok := lower[strings.ToLower(col)]; !ok {
			lower[strings.ToLower(col)] = idx
		}
		if col == FitnessColumn {
			fitnessIdx = idx
		}
	}
	for _, candidate := range companyColumns {
		if idx, ok := lower[candidate]; ok {
			companyIdx = idx
			break
		}
	}
	if companyIdx < 0 {
		return nil, nil
	}

	var companies []CompanyRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		name := strings.TrimSpace(field(record, companyIdx))
		if name == "" {
			continue
		}
		companies = append(companies, CompanyRecord{
			Name:            name,
			FitnessCategory: strings.TrimSpace(field(record, fitnessIdx)),
		})
	}
	return companies, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
