package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/pfe-aggregator/internal/ai"
	"github.com/spigell/pfe-aggregator/internal/ai/gemini"
	"github.com/spigell/pfe-aggregator/internal/applicant"
	"github.com/spigell/pfe-aggregator/internal/filtering"
	"github.com/spigell/pfe-aggregator/internal/logger"
	"github.com/spigell/pfe-aggregator/internal/metrics"
	"github.com/spigell/pfe-aggregator/internal/notify"
	"github.com/spigell/pfe-aggregator/internal/pipeline"
	"github.com/spigell/pfe-aggregator/internal/secrets"
	"github.com/spigell/pfe-aggregator/internal/sources"
	"github.com/spigell/pfe-aggregator/internal/tracker"
)

const (
	PromptYes             = "Yes"
	PromptNo              = "No"
	PromptReportByFitness = "Report by fitness"
	PromptPostingsToFile  = "Dump postings to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Dispatch and track these postings?",
	Items: []string{PromptYes, PromptNo, PromptReportByFitness, PromptPostingsToFile},
}

// defaultSources is used when the config lists no sources.
var defaultSources = []sources.Config{
	{Name: "pfebook", URL: "https://www.pfebook.com/"},
	{Name: "hi-interns", URL: "https://hi-interns.com/internships"},
	{Name: "itgate", URL: "https://itgate-group.com/catalogue-pfe/"},
	{Name: "medianet", URL: "https://rh.medianet.tn/Fr/stages-pfe-2026_11_50"},
	{Name: "pfebooks", URL: "https://pfebooks.com/"},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, rank and dispatch PFE postings",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("top", 0, "keep only the first N postings after filtering (0 keeps all)")
	runCmd.Flags().String("fitness", "", "comma separated fitness levels to keep, e.g. High,Medium")
	runCmd.Flags().Int("since-days", 0, "keep postings scraped within the last N days (0 disables)")
	runCmd.Flags().Bool("generate-emails", false, "write bilingual email drafts for every posting")
	runCmd.Flags().Bool("post-telegram", false, "post every posting to the telegram chat")
	runCmd.Flags().Bool("create-issues", false, "open a github issue for every posting")
	runCmd.Flags().Bool("save-csv", false, "write the aggregated postings csv")
	runCmd.Flags().Bool("force", false, "overwrite an existing aggregated csv")
	runCmd.Flags().String("update-status", "", "set the status of a tracked project and exit, as id:status")
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before dispatching")
	runCmd.Flags().StringSlice("skip-step", nil, "filtering steps to disable: fitness_match, dedup, fitness, since_days, top")

	viper.BindPFlag("filters.top", runCmd.Flags().Lookup("top"))
	viper.BindPFlag("filters.since-days", runCmd.Flags().Lookup("since-days"))
	viper.BindPFlag("output.force", runCmd.Flags().Lookup("force"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the pfe-aggregator", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	tr, err := tracker.Open(config.Tracker.Path, tracker.WithLogger(logger))
	if err != nil {
		logger.Fatal("opening the tracker", zap.Error(err))
	}

	if value := flagString(cmd, "update-status"); value != "" {
		if err := updateStatus(ctx, pipeline.New(pipeline.Config{Tracker: tr, Logger: logger}), value, logger); err != nil {
			logger.Fatal("updating status", zap.Error(err))
		}
		return
	}

	opts := pipeline.Options{
		Fitness:   config.Filters.Fitness,
		SinceDays: config.Filters.SinceDays,
		Top:       config.Filters.Top,
	}
	if levels := flagString(cmd, "fitness"); levels != "" {
		opts.Fitness = filtering.ParseLevels(levels)
	}
	if skip, err := cmd.Flags().GetStringSlice("skip-step"); err == nil {
		opts.Skip = skip
	}

	cfgs := config.Sources
	if len(cfgs) == 0 {
		logger.Info("no sources configured; using the built-in list", zap.Int("count", len(defaultSources)))
		cfgs = defaultSources
	}

	fetcher := sources.NewHTTPFetcher(logger, config.Scrape.UserAgent, config.Scrape.Timeout, config.Scrape.RequestsPerMinute)
	srcs, err := sources.Build(cfgs, fetcher, sources.PlainText{}, nil)
	if err != nil {
		logger.Fatal("building sources", zap.Error(err))
	}

	dispatcher, err := prepareDispatcher(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("preparing notifiers", zap.Error(err))
	}

	var runMetrics *metrics.Run
	if config.Metrics.Textfile != "" {
		runMetrics = metrics.New()
	}

	outputCSV := ""
	if flagBool(cmd, "save-csv") {
		outputCSV = config.Output.CSV
	}

	p := pipeline.New(pipeline.Config{
		Sources:        srcs,
		RosterPrimary:  config.Roster.Primary,
		RosterFallback: config.Roster.Fallback,
		Tracker:        tr,
		Dispatcher:     dispatcher,
		Metrics:        runMetrics,
		OutputCSV:      outputCSV,
		Force:          config.Output.Force,
		MetricsPath:    config.Metrics.Textfile,
		Logger:         logger,
	})

	batch, err := p.Prepare(ctx, opts)
	if err != nil {
		logger.Fatal("preparing postings", zap.Error(err))
	}

	if batch.Postings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings left after filters"))
		return
	}

	action := PromptYes
	for {
		if !flagBool(cmd, "yes") {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current list of postings", zap.Int("count", batch.Postings.Len()))

		if err := handleAction(ctx, action, p, batch, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, p *pipeline.Pipeline, batch *pipeline.Batch, logger *zap.Logger) error {
	switch action {
	case PromptYes:
		summary, err := p.Deliver(ctx, batch)
		if err != nil {
			return fmt.Errorf("deliver postings: %w", err)
		}
		logger.Info("run finished",
			zap.Int("postings", batch.Postings.Len()),
			zap.Int("email_drafts", summary.Drafts),
			zap.Int("telegram_posts", summary.Telegram),
			zap.Int("github_issues", summary.Issues),
			zap.Bool("csv_written", summary.CSVWritten),
		)
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReportByFitness:
		pretty, _ := json.MarshalIndent(batch.Postings.ReportByFitness(), "", "  ")
		logger.Info(string(pretty), zap.Int("postings count", batch.Postings.Len()))
		return nil
	case PromptPostingsToFile:
		filename, err := batch.Postings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func updateStatus(ctx context.Context, p *pipeline.Pipeline, value string, logger *zap.Logger) error {
	id, status, ok := strings.Cut(value, ":")
	if !ok || strings.TrimSpace(id) == "" {
		return fmt.Errorf("update-status must look like id:status, got %q", value)
	}

	row, err := p.UpdateStatus(ctx, strings.TrimSpace(id), status)
	if errors.Is(err, tracker.ErrNotFound) {
		logger.Warn("project is not tracked yet", zap.String("project_id", id),
			zap.String("hint", "run the aggregator first or check the id with 'tracker list'"))
		return err
	}
	if err != nil {
		return err
	}

	logger.Info("status updated", zap.String("project_id", row.ProjectID), zap.String("status", row.Status))
	return nil
}

func prepareDispatcher(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (*notify.Dispatcher, error) {
	dispatcher := notify.NewDispatcher(logger)

	if config.Notify.Email.Enabled || flagBool(cmd, "generate-emails") {
		contact := applicant.Resolve(config.Applicant.Contact, config.Applicant.CVPDF, sources.PlainText{}, logger)

		drafter, err := newDrafter(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("skipping ai motivation paragraphs", zap.Error(err))
		}

		dispatcher.Email = notify.NewEmailDrafts(config.Notify.Email.Dir, contact, drafter, nil, logger)
	}

	if config.Notify.Telegram.Enabled || flagBool(cmd, "post-telegram") {
		token, err := secrets.Load(secrets.Source{
			Name: "telegram bot token",
			File: config.Notify.Telegram.TokenFile,
			Env:  "TELEGRAM_BOT_TOKEN",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set notify.telegram.token-file or TELEGRAM_BOT_TOKEN_FILE)", err)
		}

		interval := config.Notify.Telegram.Interval
		if interval == 0 {
			interval = notify.DefaultTelegramInterval
		}

		telegram, err := notify.NewTelegram(notify.TelegramConfig{
			Token:    token,
			ChatID:   config.Notify.Telegram.ChatID,
			Interval: interval,
		}, logger)
		if err != nil {
			return nil, err
		}
		dispatcher.Telegram = telegram
	}

	if config.Notify.GitHub.Enabled || flagBool(cmd, "create-issues") {
		token, err := secrets.Load(secrets.Source{
			Name: "github token",
			File: config.Notify.GitHub.TokenFile,
			Env:  "GITHUB_TOKEN",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set notify.github.token-file or GITHUB_TOKEN_FILE)", err)
		}

		issues, err := notify.NewGitHubIssues(notify.GitHubConfig{
			Token:  token,
			Repo:   config.Notify.GitHub.Repo,
			Labels: config.Notify.GitHub.Labels,
		}, logger)
		if err != nil {
			return nil, err
		}
		dispatcher.GitHub = issues
	}

	if !dispatcher.Enabled() {
		logger.Info("no notifiers enabled; postings will only be tracked")
	}
	return dispatcher, nil
}

// newDrafter returns a nil Drafter when ai is disabled.
func newDrafter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Drafter, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	return gemini.NewDrafter(generator, logger, cfg.Gemini.MaxLogLength), nil
}

func flagString(cmd *cobra.Command, name string) string {
	if cmd == nil {
		return ""
	}
	flag := cmd.Flag(name)
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(flag.Value.String())
}

func flagBool(cmd *cobra.Command, name string) bool {
	return strings.EqualFold(flagString(cmd, name), "true")
}
