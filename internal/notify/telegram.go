package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/pfe-aggregator/internal/posting"
	"github.com/spigell/pfe-aggregator/internal/utils"
)

const (
	DefaultTelegramURL = "https://api.telegram.org"
	// DefaultTelegramInterval keeps posting below the group chat flood limit.
	DefaultTelegramInterval = 3 * time.Second

	requestTimeout = 15 * time.Second
)

type TelegramConfig struct {
	Token   string
	ChatID  string
	BaseURL string
	// Interval between two messages. Zero disables throttling.
	Interval time.Duration
}

// Telegram posts one short message per posting through the Bot API.
type Telegram struct {
	client  *http.Client
	cfg     TelegramConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func NewTelegram(cfg TelegramConfig, logger *zap.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" || strings.TrimSpace(cfg.ChatID) == "" {
		return nil, errors.New("telegram token and chat id are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTelegramURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Interval), 1)
	}

	return &Telegram{
		client:  &http.Client{Timeout: requestTimeout},
		cfg:     cfg,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// TelegramText renders the message posted for p.
func TelegramText(p *posting.Posting) string {
	company := p.Company
	if company == "" {
		company = "N/A"
	}
	fitness := p.Fitness
	if fitness == "" {
		fitness = "N/A"
	}
	approx := ""
	if p.FitnessMatchApprox {
		approx = " (approx company match)"
	}
	return fmt.Sprintf("PFE: %s — %s\nFitness: %s%s\nLink: %s", p.Title, company, fitness, approx, p.DisplayLink())
}

// Post sends the message. A 429 answer is retried once after the advertised delay.
func (t *Telegram) Post(ctx context.Context, p *posting.Posting) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id":                  t.cfg.ChatID,
		"text":                     TelegramText(p),
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}

		status, resp, err := t.send(ctx, payload)
		if err != nil {
			return err
		}
		if resp.OK && status < 300 {
			return nil
		}

		if status == http.StatusTooManyRequests && attempt == 0 {
			wait := time.Duration(resp.Parameters.RetryAfter) * time.Second
			t.logger.Warn("telegram rate limited", zap.Duration("retry_after", wait))
			if err := utils.WaitFor(ctx, wait); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf("telegram api error %d: %s", status, resp.Description)
	}
	return errors.New("telegram api kept rate limiting")
}

func (t *Telegram) send(ctx context.Context, payload []byte) (int, telegramResponse, error) {
	var decoded telegramResponse

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(t.cfg.BaseURL, "/"), t.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, decoded, fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The url embeds the bot token.
		return 0, decoded, errors.New("telegram request failed: " + redact(err.Error(), t.cfg.Token))
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded.Description = resp.Status
	}
	return resp.StatusCode, decoded, nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
