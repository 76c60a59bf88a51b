package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/pfe-aggregator/internal/applicant"
	"github.com/spigell/pfe-aggregator/internal/sources"
)

const (
	app = "pfe-aggregator"

	defaultRosterPrimary  = "companies.csv"
	defaultRosterFallback = "data/companies.csv"
	defaultTrackerPath    = "data/tracker.csv"
	defaultOutputCSV      = "data/aggregated_projects.csv"
	defaultEmailDir       = "emails"
)

type Config struct {
	Roster    *RosterConfig    `mapstructure:"roster"`
	Tracker   *TrackerConfig   `mapstructure:"tracker"`
	Sources   []sources.Config `mapstructure:"sources"`
	Scrape    *ScrapeConfig    `mapstructure:"scrape"`
	Filters   *FiltersConfig   `mapstructure:"filters"`
	Output    *OutputConfig    `mapstructure:"output"`
	Notify    *NotifyConfig    `mapstructure:"notify"`
	Applicant *ApplicantConfig `mapstructure:"applicant"`
	AI        *AIConfig        `mapstructure:"ai"`
	Metrics   *MetricsConfig   `mapstructure:"metrics"`
}

type RosterConfig struct {
	Primary  string `mapstructure:"primary"`
	Fallback string `mapstructure:"fallback"`
}

type TrackerConfig struct {
	Path string `mapstructure:"path"`
}

type ScrapeConfig struct {
	UserAgent         string        `mapstructure:"user-agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
}

type FiltersConfig struct {
	Fitness   []string `mapstructure:"fitness"`
	SinceDays int      `mapstructure:"since-days"`
	Top       int      `mapstructure:"top"`
}

type OutputConfig struct {
	CSV   string `mapstructure:"csv"`
	Force bool   `mapstructure:"force"`
}

type NotifyConfig struct {
	Email    *EmailConfig    `mapstructure:"email"`
	Telegram *TelegramConfig `mapstructure:"telegram"`
	GitHub   *GitHubConfig   `mapstructure:"github"`
}

type EmailConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type TelegramConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	ChatID    string        `mapstructure:"chat-id"`
	TokenFile string        `mapstructure:"token-file"`
	Interval  time.Duration `mapstructure:"interval"`
}

type GitHubConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Repo      string   `mapstructure:"repo"`
	TokenFile string   `mapstructure:"token-file"`
	Labels    []string `mapstructure:"labels"`
}

type ApplicantConfig struct {
	applicant.Contact `mapstructure:",squash"`
	CVPDF             string `mapstructure:"cv-pdf"`
}

type AIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "pfe-aggregator collects PFE internship postings, ranks them against a company roster and tracks applications",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"notify.telegram.token-file": "TELEGRAM_BOT_TOKEN_FILE",
		"notify.github.token-file":   "GITHUB_TOKEN_FILE",
		"ai.gemini.api-key-file":     "GEMINI_API_KEY_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetEnvPrefix("PFE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("roster.primary", defaultRosterPrimary)
	viper.SetDefault("roster.fallback", defaultRosterFallback)
	viper.SetDefault("tracker.path", defaultTrackerPath)
	viper.SetDefault("output.csv", defaultOutputCSV)
	viper.SetDefault("notify.email.dir", defaultEmailDir)
	viper.SetDefault("scrape.user-agent", sources.DefaultUserAgent)
	viper.SetDefault("scrape.timeout", 20*time.Second)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is pfe-aggregator.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The defaults are enough for the tracker commands, so only an explicit file is required.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	if config.Roster == nil {
		config.Roster = &RosterConfig{}
	}
	if config.Tracker == nil {
		config.Tracker = &TrackerConfig{}
	}
	if config.Scrape == nil {
		config.Scrape = &ScrapeConfig{}
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}
	if config.Output == nil {
		config.Output = &OutputConfig{}
	}
	if config.Notify == nil {
		config.Notify = &NotifyConfig{}
	}
	if config.Notify.Email == nil {
		config.Notify.Email = &EmailConfig{}
	}
	if config.Notify.Telegram == nil {
		config.Notify.Telegram = &TelegramConfig{}
	}
	if config.Notify.GitHub == nil {
		config.Notify.GitHub = &GitHubConfig{}
	}
	if config.Applicant == nil {
		config.Applicant = &ApplicantConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Metrics == nil {
		config.Metrics = &MetricsConfig{}
	}

	return config, nil
}
