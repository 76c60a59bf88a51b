package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/pfe-aggregator/internal/posting"
	"github.com/spigell/pfe-aggregator/internal/utils"
)

const DefaultGitHubURL = "https://api.github.com"

type GitHubConfig struct {
	Token string
	// Repo is owner/name.
	Repo    string
	BaseURL string
	Labels  []string
}

// GitHubIssues opens one issue per posting in a tracking repository.
type GitHubIssues struct {
	client *http.Client
	cfg    GitHubConfig
	logger *zap.Logger
}

func NewGitHubIssues(cfg GitHubConfig, logger *zap.Logger) (*GitHubIssues, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("github token is required")
	}
	if owner, name, ok := strings.Cut(cfg.Repo, "/"); !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("github repo must look like owner/name, got %q", cfg.Repo)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGitHubURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitHubIssues{client: &http.Client{Timeout: requestTimeout}, cfg: cfg, logger: logger}, nil
}

// IssueTitle is the title used for the issue of p.
func IssueTitle(p *posting.Posting) string {
	company := p.Company
	if company == "" {
		company = "N/A"
	}
	return fmt.Sprintf("PFE: %s — %s", p.Title, company)
}

// Create opens the issue and returns its html_url.
func (g *GitHubIssues) Create(ctx context.Context, p *posting.Posting) (string, error) {
	body, err := RenderIssue(p)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"title": IssueTitle(p),
		"body":  body,
	}
	if len(g.cfg.Labels) > 0 {
		payload["labels"] = g.cfg.Labels
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal issue: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/issues", strings.TrimSuffix(g.cfg.BaseURL, "/"), g.cfg.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build issue request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create issue: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read issue response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("github api error %d: %s", resp.StatusCode, utils.TruncateForLog(string(raw), 200))
	}

	var created struct {
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return "", fmt.Errorf("decode issue response: %w", err)
	}
	if created.HTMLURL == "" {
		return "", errors.New("github api returned no html_url")
	}
	return created.HTMLURL, nil
}
