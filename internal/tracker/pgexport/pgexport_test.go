package pgexport

import (
	"strings"
	"testing"

	"github.com/spigell/pfe-aggregator/internal/tracker"
)

func TestUpsertQuery(t *testing.T) {
	t.Parallel()

	row := tracker.Row{
		DateAdded:      "2026-10-18T08:00:00Z",
		ProjectID:      "go-intern-acme",
		Title:          "Go Intern",
		PostedTelegram: true,
		Status:         "new",
	}

	query, args, err := UpsertQuery(DefaultTable, row).ToSql()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(query, "INSERT INTO pfe_tracker (date_added,project_id,title,") {
		t.Fatalf("unexpected insert prefix: %s", query)
	}
	if !strings.Contains(query, "$13") || strings.Contains(query, "?") {
		t.Fatalf("expected dollar placeholders: %s", query)
	}
	if !strings.HasSuffix(query, "ON CONFLICT (project_id) DO UPDATE SET title = EXCLUDED.title, company = EXCLUDED.company, fitness = EXCLUDED.fitness, pfe_link = EXCLUDED.pfe_link, contact_email = EXCLUDED.contact_email, posted_telegram = EXCLUDED.posted_telegram, github_issue_url = EXCLUDED.github_issue_url, email_draft = EXCLUDED.email_draft, last_action = EXCLUDED.last_action, status = EXCLUDED.status, notes = EXCLUDED.notes") {
		t.Fatalf("unexpected conflict clause: %s", query)
	}

	if len(args) != len(tracker.Columns) {
		t.Fatalf("expected %d args, got %d", len(tracker.Columns), len(args))
	}
	if args[1] != "go-intern-acme" || args[7] != true {
		t.Fatalf("unexpected args: %v", args)
	}
	if args[10] != nil {
		t.Fatalf("expected NULL last_action for empty timestamp, got %v", args[10])
	}
}

func TestCreateTableSQLCoversColumns(t *testing.T) {
	t.Parallel()

	ddl := CreateTableSQL("custom_table")
	if !strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS custom_table") {
		t.Fatalf("unexpected ddl: %s", ddl)
	}
	for _, col := range tracker.Columns {
		if !strings.Contains(ddl, "\t"+col+" ") {
			t.Fatalf("ddl is missing column %s", col)
		}
	}
}
