// Package tracker keeps the per-project ledger that survives between runs.
//
// The ledger is a CSV file owned exclusively by Tracker. It is read once by Open and
// rewritten as a whole, through a temporary file and an atomic rename, after every
// mutation. Concurrent processes need external locking around the file.
package tracker

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no row exists for the requested project id.
	ErrNotFound = errors.New("project not found in tracker")
	// ErrPersistence wraps every failure to read or write the ledger file.
	ErrPersistence = errors.New("tracker persistence failure")
)

type Tracker struct {
	path   string
	rows   []*Row
	index  map[string]int
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Tracker)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// Open loads the ledger at path. A missing file yields an empty ledger; the file is
// created on the first mutation.
func Open(path string, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		path:   path,
		index:  make(map[string]int),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		t.logger.Debug("tracker file does not exist yet", zap.String("path", path))
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, path, err)
	}

	rows, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrPersistence, path, err)
	}
	for _, row := range rows {
		if row.ProjectID == "" {
			continue
		}
		if idx, ok := t.index[row.ProjectID]; ok {
			// Older ledgers may repeat ids; the latest row wins.
			t.rows[idx] = row
			continue
		}
		t.index[row.ProjectID] = len(t.rows)
		t.rows = append(t.rows, row)
	}

	t.logger.Debug("tracker loaded", zap.String("path", path), zap.Int("rows", len(t.rows)))
	return t, nil
}

func (t *Tracker) Path() string { return t.path }

func (t *Tracker) Len() int { return len(t.rows) }

// Rows returns copies of all rows in ledger order.
func (t *Tracker) Rows() []Row {
	out := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, *row)
	}
	return out
}

// Get returns a copy of the row for projectID.
func (t *Tracker) Get(projectID string) (Row, bool) {
	idx, ok := t.index[projectID]
	if !ok {
		return Row{}, false
	}
	return *t.rows[idx], true
}

// Upsert merges fields into the row for projectID, creating it when absent. New rows get
// date_added and last_action set to now and the default status unless one is given;
// existing rows keep date_added and get last_action refreshed.
func (t *Tracker) Upsert(projectID string, fields Fields) (Row, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return Row{}, errors.New("project id is required")
	}

	snapshot := t.snapshot()
	now := t.timestamp()

	var row *Row
	created := false
	if idx, ok := t.index[projectID]; ok {
		row = t.rows[idx]
	} else {
		row = &Row{ProjectID: projectID, DateAdded: now, Status: DefaultStatus}
		t.index[projectID] = len(t.rows)
		t.rows = append(t.rows, row)
		created = true
	}

	fields.mergeInto(row)
	row.LastAction = now

	if err := t.save(); err != nil {
		t.restore(snapshot)
		return Row{}, err
	}

	t.logger.Debug("tracker row upserted",
		zap.String("project_id", projectID),
		zap.Bool("created", created),
	)
	return *row, nil
}

// UpdateStatus sets the status of an existing row. It returns ErrNotFound, without
// touching the file, when no row has that id.
func (t *Tracker) UpdateStatus(projectID, status string) (Row, error) {
	idx, ok := t.index[strings.TrimSpace(projectID)]
	if !ok {
		return Row{}, fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}

	snapshot := t.snapshot()
	row := t.rows[idx]
	row.Status = status
	row.LastAction = t.timestamp()

	if err := t.save(); err != nil {
		t.restore(snapshot)
		return Row{}, err
	}
	return *row, nil
}

func (t *Tracker) timestamp() string {
	return t.now().UTC().Format(time.RFC3339)
}

func (t *Tracker) save() error {
	var buf bytes.Buffer
	if err := encode(&buf, t.rows); err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}

	if dir := filepath.Dir(t.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create dir %s: %w", ErrPersistence, dir, err)
		}
	}

	if err := renameio.WriteFile(t.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, t.path, err)
	}
	return nil
}

type state struct {
	rows  []Row
	index map[string]int
}

func (t *Tracker) snapshot() state {
	s := state{rows: make([]Row, len(t.rows)), index: make(map[string]int, len(t.index))}
	for i, row := range t.rows {
		s.rows[i] = *row
	}
	for k, v := range t.index {
		s.index[k] = v
	}
	return s
}

func (t *Tracker) restore(s state) {
	t.rows = make([]*Row, len(s.rows))
	for i := range s.rows {
		row := s.rows[i]
		t.rows[i] = &row
	}
	t.index = s.index
}

func encode(w io.Writer, rows []*Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.record()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func decode(r io.Reader) ([]*Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	if _, ok := idx["project_id"]; !ok {
		return nil, errors.New("missing project_id column")
	}

	var rows []*Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rowFromRecord(record, idx))
	}
	return rows, nil
}
