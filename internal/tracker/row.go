package tracker

import (
	"strconv"
	"strings"
)

// Columns is the on-disk column order of the ledger.
var Columns = []string{
	"date_added",
	"project_id",
	"title",
	"company",
	"fitness",
	"pfe_link",
	"contact_email",
	"posted_telegram",
	"github_issue_url",
	"email_draft",
	"last_action",
	"status",
	"notes",
}

const DefaultStatus = "new"

// Row is one tracked project. DateAdded and LastAction are RFC3339 UTC timestamps.
type Row struct {
	DateAdded      string `json:"date_added"`
	ProjectID      string `json:"project_id"`
	Title          string `json:"title"`
	Company        string `json:"company"`
	Fitness        string `json:"fitness"`
	PFELink        string `json:"pfe_link"`
	ContactEmail   string `json:"contact_email"`
	PostedTelegram bool   `json:"posted_telegram"`
	GitHubIssueURL string `json:"github_issue_url"`
	EmailDraft     string `json:"email_draft"`
	LastAction     string `json:"last_action"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
}

// Fields lists the values to merge into a row. Nil fields are left untouched.
type Fields struct {
	Title          *string
	Company        *string
	Fitness        *string
	PFELink        *string
	ContactEmail   *string
	PostedTelegram *bool
	GitHubIssueURL *string
	EmailDraft     *string
	Status         *string
	Notes          *string
}

func String(s string) *string { return &s }

func Bool(b bool) *bool { return &b }

func (f Fields) mergeInto(r *Row) {
	setString(&r.Title, f.Title)
	setString(&r.Company, f.Company)
	setString(&r.Fitness, f.Fitness)
	setString(&r.PFELink, f.PFELink)
	setString(&r.ContactEmail, f.ContactEmail)
	setString(&r.GitHubIssueURL, f.GitHubIssueURL)
	setString(&r.EmailDraft, f.EmailDraft)
	setString(&r.Status, f.Status)
	setString(&r.Notes, f.Notes)
	if f.PostedTelegram != nil {
		r.PostedTelegram = *f.PostedTelegram
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (r *Row) record() []string {
	return []string{
		r.DateAdded,
		r.ProjectID,
		r.Title,
		r.Company,
		r.Fitness,
		r.PFELink,
		r.ContactEmail,
		formatBool(r.PostedTelegram),
		r.GitHubIssueURL,
		r.EmailDraft,
		r.LastAction,
		r.Status,
		r.Notes,
	}
}

// rowFromRecord maps a CSV record onto a Row using the header positions in idx.
func rowFromRecord(record []string, idx map[string]int) *Row {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	return &Row{
		DateAdded:      get("date_added"),
		ProjectID:      get("project_id"),
		Title:          get("title"),
		Company:        get("company"),
		Fitness:        get("fitness"),
		PFELink:        get("pfe_link"),
		ContactEmail:   get("contact_email"),
		PostedTelegram: parseBool(get("posted_telegram")),
		GitHubIssueURL: get("github_issue_url"),
		EmailDraft:     get("email_draft"),
		LastAction:     get("last_action"),
		Status:         get("status"),
		Notes:          get("notes"),
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// parseBool accepts the spellings older ledgers used; anything else is false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
