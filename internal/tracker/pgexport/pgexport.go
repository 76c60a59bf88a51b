// Package pgexport mirrors tracker rows into a Postgres table for reporting tools.
package pgexport

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/spigell/pfe-aggregator/internal/tracker"
)

const DefaultTable = "pfe_tracker"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Exporter writes ledger rows with one upsert statement per row inside a transaction.
type Exporter struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

// Open connects with the pgx database/sql driver.
func Open(ctx context.Context, dsn, table string, logger *zap.Logger) (*Exporter, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db, table, logger), nil
}

func New(db *sql.DB, table string, logger *zap.Logger) *Exporter {
	if table == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{db: db, table: table, logger: logger}
}

func (e *Exporter) Close() error {
	return e.db.Close()
}

// EnsureTable creates the mirror table when it does not exist.
func (e *Exporter) EnsureTable(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, CreateTableSQL(e.table)); err != nil {
		return fmt.Errorf("create table %s: %w", e.table, err)
	}
	return nil
}

// Export upserts every row. Either all rows are written or none.
func (e *Exporter) Export(ctx context.Context, rows []tracker.Row) (int, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		query, args, err := UpsertQuery(e.table, row).ToSql()
		if err != nil {
			return 0, fmt.Errorf("build upsert for %s: %w", row.ProjectID, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", row.ProjectID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	e.logger.Info("tracker exported", zap.String("table", e.table), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// UpsertQuery builds INSERT ... ON CONFLICT (project_id) DO UPDATE for row.
func UpsertQuery(table string, row tracker.Row) sq.InsertBuilder {
	return psql.Insert(table).
		Columns(tracker.Columns...).
		Values(
			nullable(row.DateAdded),
			row.ProjectID,
			row.Title,
			row.Company,
			row.Fitness,
			row.PFELink,
			row.ContactEmail,
			row.PostedTelegram,
			row.GitHubIssueURL,
			row.EmailDraft,
			nullable(row.LastAction),
			row.Status,
			row.Notes,
		).
		Suffix(conflictClause())
}

func conflictClause() string {
	clause := "ON CONFLICT (project_id) DO UPDATE SET "
	first := true
	for _, col := range tracker.Columns {
		if col == "project_id" || col == "date_added" {
			continue
		}
		if !first {
			clause += ", "
		}
		clause += col + " = EXCLUDED." + col
		first = false
	}
	return clause
}

// CreateTableSQL returns the DDL of the mirror table.
func CreateTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
	date_added timestamptz,
	project_id text PRIMARY KEY,
	title text NOT NULL DEFAULT '',
	company text NOT NULL DEFAULT '',
	fitness text NOT NULL DEFAULT '',
	pfe_link text NOT NULL DEFAULT '',
	contact_email text NOT NULL DEFAULT '',
	posted_telegram boolean NOT NULL DEFAULT false,
	github_issue_url text NOT NULL DEFAULT '',
	email_draft text NOT NULL DEFAULT '',
	last_action timestamptz,
	status text NOT NULL DEFAULT '',
	notes text NOT NULL DEFAULT ''
)`
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
