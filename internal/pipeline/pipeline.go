// Package pipeline wires sources, matching, filtering, notifiers and the tracker into one run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/pfe-aggregator/internal/filtering"
	"github.com/spigell/pfe-aggregator/internal/logger"
	"github.com/spigell/pfe-aggregator/internal/metrics"
	"github.com/spigell/pfe-aggregator/internal/notify"
	"github.com/spigell/pfe-aggregator/internal/posting"
	"github.com/spigell/pfe-aggregator/internal/roster"
	"github.com/spigell/pfe-aggregator/internal/sources"
	"github.com/spigell/pfe-aggregator/internal/tracker"
)

// Options are the per-run filter settings. Zero values disable the matching filter.
type Options struct {
	Fitness   []string
	SinceDays int
	Top       int
	// Skip names filtering steps to disable for this run, e.g. "dedup".
	Skip []string
}

type Config struct {
	Sources        []sources.Source
	RosterPrimary  string
	RosterFallback string

	Tracker    *tracker.Tracker
	Dispatcher *notify.Dispatcher
	Metrics    *metrics.Run

	// OutputCSV, when set, receives the final postings. An existing file is kept unless Force.
	OutputCSV   string
	Force       bool
	MetricsPath string

	Now    func() time.Time
	Logger *zap.Logger
}

type Pipeline struct {
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// Batch is the processed result of the collection half of a run.
type Batch struct {
	RunID        string
	Postings     *posting.Postings
	Reports      []filtering.StepReport
	Collected    int
	RosterPath   string
	SourceErrors []error
}

// Summary counts what the delivery half of a run did.
type Summary struct {
	Drafts       int
	Telegram     int
	Issues       int
	TrackerRows  int
	CSVPath      string
	CSVWritten   bool
	MetricsSaved bool
}

func New(cfg Config) *Pipeline {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Dispatcher != nil && cfg.Metrics != nil && cfg.Dispatcher.Recorder == nil {
		cfg.Dispatcher.Recorder = cfg.Metrics
	}
	return &Pipeline{cfg: cfg, now: now, logger: log}
}

// Process normalizes raws and runs match, dedup, fitness, recency and top as ordered steps.
func (p *Pipeline) Process(ctx context.Context, raws []posting.RawPosting, companies []roster.CompanyRecord, opts Options) (*posting.Postings, []filtering.StepReport, error) {
	return process(ctx, raws, companies, opts, p.now, p.logger)
}

func process(ctx context.Context, raws []posting.RawPosting, companies []roster.CompanyRecord, opts Options, now func() time.Time, log *zap.Logger) (*posting.Postings, []filtering.StepReport, error) {
	steps := filtering.New([]filtering.Filter{
		filtering.NewFitnessMatch(companies, log),
		filtering.NewDedup(),
		filtering.NewFitness(opts.Fitness),
		filtering.NewSince(opts.SinceDays, now),
		filtering.NewTop(opts.Top),
	}, log)
	for _, name := range opts.Skip {
		steps.DisableByName(strings.TrimSpace(name), "skipped on request")
	}
	log.Debug("filter configuration", zap.Any("filters", steps.Describe()))

	return steps.RunFilters(ctx, posting.NormalizeAll(raws))
}

// Prepare collects every source, loads the roster and processes the postings. A missing
// roster degrades the run: postings simply carry no fitness.
func (p *Pipeline) Prepare(ctx context.Context, opts Options) (*Batch, error) {
	batch := &Batch{RunID: uuid.NewString()}
	log := logger.WithRunID(p.logger, batch.RunID)

	raws, errs := sources.Collect(ctx, p.cfg.Sources, log)
	batch.Collected = len(raws)
	batch.SourceErrors = errs
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	companies, path, err := roster.Load(p.cfg.RosterPrimary, p.cfg.RosterFallback)
	switch {
	case errors.Is(err, roster.ErrNotFound):
		log.Warn("company roster not found; fitness will be empty", zap.Error(err))
	case err != nil:
		log.Warn("company roster unreadable; fitness will be empty", zap.Error(err))
	default:
		log.Info("company roster loaded", zap.String("path", path), zap.Int("companies", len(companies)))
	}
	batch.RosterPath = path

	items, reports, err := process(ctx, raws, companies, opts, p.now, log)
	if err != nil {
		return nil, fmt.Errorf("process postings: %w", err)
	}
	batch.Postings = items
	batch.Reports = reports

	log.Info("postings prepared",
		zap.Int("collected", batch.Collected),
		zap.Int("left", items.Len()),
		zap.Int("failed_sources", len(errs)),
	)
	return batch, nil
}

// Deliver dispatches every posting, upserts one tracker row each and writes the optional
// CSV and metrics outputs. Tracker failures abort the delivery.
func (p *Pipeline) Deliver(ctx context.Context, batch *Batch) (Summary, error) {
	var summary Summary
	if batch == nil {
		return summary, errors.New("batch is required")
	}
	if batch.Postings == nil {
		batch.Postings = &posting.Postings{}
	}
	log := logger.WithRunID(p.logger, batch.RunID)

	for _, item := range batch.Postings.Items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		outcome := p.cfg.Dispatcher.Dispatch(ctx, item)
		if outcome.EmailDraft != "" {
			summary.Drafts++
		}
		if outcome.PostedTelegram {
			summary.Telegram++
		}
		if outcome.IssueURL != "" {
			summary.Issues++
		}

		if p.cfg.Tracker == nil {
			continue
		}
		if _, err := p.cfg.Tracker.Upsert(item.ProjectID, p.trackerFields(item, outcome)); err != nil {
			return summary, fmt.Errorf("update tracker for %s: %w", item.ProjectID, err)
		}
		summary.TrackerRows++
	}

	if p.cfg.OutputCSV != "" {
		written, err := SaveCSV(p.cfg.OutputCSV, batch.Postings, p.cfg.Force)
		if err != nil {
			return summary, err
		}
		summary.CSVPath = p.cfg.OutputCSV
		summary.CSVWritten = written
		if !written {
			log.Info("aggregated csv already exists; use --force to overwrite", zap.String("path", p.cfg.OutputCSV))
		}
	}

	if p.cfg.Metrics != nil {
		p.recordMetrics(batch)
		if p.cfg.MetricsPath != "" {
			if err := p.cfg.Metrics.WriteTextfile(p.cfg.MetricsPath, p.now()); err != nil {
				log.Warn("metrics not written", zap.Error(err))
			} else {
				summary.MetricsSaved = true
			}
		}
	}

	log.Info("run delivered",
		zap.Int("email_drafts", summary.Drafts),
		zap.Int("telegram_posts", summary.Telegram),
		zap.Int("github_issues", summary.Issues),
		zap.Int("tracker_rows", summary.TrackerRows),
	)
	return summary, nil
}

// Run is Prepare followed by Deliver.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Batch, Summary, error) {
	batch, err := p.Prepare(ctx, opts)
	if err != nil {
		return nil, Summary{}, err
	}
	summary, err := p.Deliver(ctx, batch)
	return batch, summary, err
}

// UpdateStatus sets the status of a tracked project. tracker.ErrNotFound is returned
// unchanged so callers can tell it apart from persistence failures.
func (p *Pipeline) UpdateStatus(_ context.Context, projectID, status string) (tracker.Row, error) {
	if p.cfg.Tracker == nil {
		return tracker.Row{}, errors.New("tracker is not configured")
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return tracker.Row{}, errors.New("status must not be empty")
	}
	return p.cfg.Tracker.UpdateStatus(projectID, status)
}

func (p *Pipeline) trackerFields(item *posting.Posting, outcome notify.Outcome) tracker.Fields {
	fields := tracker.Fields{
		Title:        tracker.String(item.Title),
		Company:      tracker.String(item.Company),
		Fitness:      tracker.String(item.Fitness),
		PFELink:      tracker.String(item.Link),
		ContactEmail: tracker.String(item.ContactEmail),
	}

	if _, exists := p.cfg.Tracker.Get(item.ProjectID); !exists {
		fields.Notes = tracker.String(ApproxNote(item.FitnessMatchApprox))
	}
	if outcome.EmailDraft != "" {
		fields.EmailDraft = tracker.String(outcome.EmailDraft)
	}
	if outcome.PostedTelegram {
		fields.PostedTelegram = tracker.Bool(true)
	}
	if outcome.IssueURL != "" {
		fields.GitHubIssueURL = tracker.String(outcome.IssueURL)
	}
	return fields
}

func (p *Pipeline) recordMetrics(batch *Batch) {
	p.cfg.Metrics.Collected(batch.Collected)
	p.cfg.Metrics.Left(batch.Postings.Len())
	for _, report := range batch.Reports {
		p.cfg.Metrics.Dropped(report.Name, report.Dropped)
	}
	if p.cfg.Tracker != nil {
		p.cfg.Metrics.TrackerRows(p.cfg.Tracker.Len())
	}
}

// ApproxNote is the note stored on new tracker rows.
func ApproxNote(approx bool) string {
	if approx {
		return "fitness_match_approx=True"
	}
	return "fitness_match_approx=False"
}
