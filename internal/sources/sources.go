// Package sources collects raw postings from websites, feeds, PDFs and local files.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/pfe-aggregator/internal/posting"
)

const (
	KindHTML = "html"
	KindRSS  = "rss"
	KindPDF  = "pdf"
	KindJSON = "json"

	DefaultUserAgent = "spigell/pfe-aggregator"
	defaultTimeout   = 15 * time.Second
)

// Source produces raw postings from one place.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]posting.RawPosting, error)
}

// Config describes one configured source.
type Config struct {
	Name    string `mapstructure:"name"`
	Kind    string `mapstructure:"kind"`
	URL     string `mapstructure:"url"`
	Path    string `mapstructure:"path"`
	Profile string `mapstructure:"profile"`
}

// HTTPFetcher performs rate limited GET requests for the network-backed sources.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewHTTPFetcher builds a fetcher. requestsPerMinute <= 0 disables rate limiting.
func NewHTTPFetcher(logger *zap.Logger, userAgent string, timeout time.Duration, requestsPerMinute int) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1)
	}

	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		limiter:   limiter,
		logger:    logger,
	}
}

// Get returns the response body of url. Non-2xx statuses are errors.
func (f *HTTPFetcher) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	f.logger.Debug("make request", zap.String("url", url))
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("bad status for %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}

// Build turns configs into sources. Unknown kinds are reported as errors.
func Build(cfgs []Config, fetcher *HTTPFetcher, extractor TextExtractor, now func() time.Time) ([]Source, error) {
	built := make([]Source, 0, len(cfgs))
	for _, cfg := range cfgs {
		var src Source
		switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
		case KindHTML, "":
			if cfg.URL == "" {
				return nil, fmt.Errorf("source %q: url is required", cfg.Name)
			}
			src = NewHTML(cfg.Name, cfg.URL, cfg.Profile, fetcher, now)
		case KindRSS:
			if cfg.URL == "" {
				return nil, fmt.Errorf("source %q: url is required", cfg.Name)
			}
			src = NewFeed(cfg.Name, cfg.URL, fetcher, now)
		case KindPDF:
			if cfg.Path == "" {
				return nil, fmt.Errorf("source %q: path is required", cfg.Name)
			}
			src = NewPDF(cfg.Name, cfg.Path, extractor, now)
		case KindJSON:
			if cfg.Path == "" {
				return nil, fmt.Errorf("source %q: path is required", cfg.Name)
			}
			src = NewJSONFile(cfg.Name, cfg.Path, now)
		default:
			return nil, fmt.Errorf("source %q: unsupported kind %q", cfg.Name, cfg.Kind)
		}
		built = append(built, src)
	}
	return built, nil
}

// Collect fetches every source in order and merges the results. A failing source is
// logged and skipped so one broken site never aborts the batch.
func Collect(ctx context.Context, srcs []Source, logger *zap.Logger) ([]posting.RawPosting, []error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		all  []posting.RawPosting
		errs []error
	)
	for _, src := range srcs {
		logger.Info("collecting source", zap.String("source", src.Name()))

		items, err := src.Fetch(ctx)
		if err != nil {
			logger.Warn("source failed", zap.String("source", src.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		logger.Info("source collected", zap.String("source", src.Name()), zap.Int("count", len(items)))
		all = append(all, items...)
	}

	if len(all) == 0 {
		logger.Warn("no postings found from sources")
	}
	return all, errs
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return fallback
}

func today(now func() time.Time) time.Time {
	if now == nil {
		return posting.Today()
	}
	return posting.Day(now())
}
