// Package notify turns final postings into email drafts, Telegram messages and GitHub issues.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/pfe-aggregator/internal/logger"
	"github.com/spigell/pfe-aggregator/internal/posting"
)

const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
	ChannelGitHub   = "github"

	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Outcome records what the notifiers did for one posting. Zero values mean the channel
// was disabled or failed.
type Outcome struct {
	EmailDraft     string
	PostedTelegram bool
	IssueURL       string
}

// Recorder observes every notification attempt.
type Recorder interface {
	Notification(channel, outcome string)
}

type EmailWriter interface {
	Write(ctx context.Context, p *posting.Posting) (string, error)
}

type Poster interface {
	Post(ctx context.Context, p *posting.Posting) error
}

type IssueCreator interface {
	Create(ctx context.Context, p *posting.Posting) (string, error)
}

// Dispatcher fans a posting out to the enabled channels. A nil channel is disabled.
type Dispatcher struct {
	Email    EmailWriter
	Telegram Poster
	GitHub   IssueCreator
	Recorder Recorder

	logger *zap.Logger
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{logger: log}
}

// Enabled reports whether any channel is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && (d.Email != nil || d.Telegram != nil || d.GitHub != nil)
}

// Dispatch never fails: channel errors are logged and leave the matching Outcome field empty.
func (d *Dispatcher) Dispatch(ctx context.Context, p *posting.Posting) Outcome {
	var out Outcome
	if d == nil || p == nil {
		return out
	}

	fields := logger.PostingFields(p)

	if d.Email != nil {
		path, err := d.Email.Write(ctx, p)
		d.record(ChannelEmail, err, fields)
		if err == nil {
			out.EmailDraft = path
		}
	}

	if d.Telegram != nil {
		err := d.Telegram.Post(ctx, p)
		d.record(ChannelTelegram, err, fields)
		out.PostedTelegram = err == nil
	}

	if d.GitHub != nil {
		url, err := d.GitHub.Create(ctx, p)
		d.record(ChannelGitHub, err, fields)
		if err == nil {
			out.IssueURL = url
		}
	}

	return out
}

func (d *Dispatcher) record(channel string, err error, fields []zap.Field) {
	if d.logger == nil {
		d.logger = zap.NewNop()
	}

	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
		d.logger.Warn("notification failed", append(fields, zap.String("channel", channel), zap.Error(err))...)
	} else {
		d.logger.Debug("notification sent", append(fields, zap.String("channel", channel))...)
	}

	if d.Recorder != nil {
		d.Recorder.Notification(channel, outcome)
	}
}
