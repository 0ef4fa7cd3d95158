package notify

import (
	"context"
	"log/slog"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// Dispatcher fans out review events to all configured channels.
type Dispatcher struct {
	channels []Channel
	minSev   models.ReviewSeverity
}

// NewDispatcher creates a Dispatcher from the given config.
// Only channels with IsConfigured() == true are active.
func NewDispatcher(cfg config.NotifyConfig) *Dispatcher {
	minSev := models.ReviewSeverity(cfg.MinSeverity)
	if cfg.MinSeverity == "" {
		minSev = models.SeverityCritical
	}
	d := &Dispatcher{minSev: minSev}

	channels := []Channel{
		NewSlack(cfg.Slack),
		NewEmail(cfg.Email),
		NewWebhook(cfg.Webhook),
	}
	for _, ch := range channels {
		if ch.IsConfigured() {
			d.channels = append(d.channels, ch)
		}
	}
	return d
}

// IsAnyConfigured returns true if at least one channel is ready to send.
func (d *Dispatcher) IsAnyConfigured() bool {
	return len(d.channels) > 0
}

// Notify sends evt to all configured channels. Errors are logged but never
// returned; notifications must not affect the review outcome.
func (d *Dispatcher) Notify(ctx context.Context, evt Event) {
	if !d.shouldSend(evt) {
		return
	}
	for _, ch := range d.channels {
		if err := ch.Send(ctx, evt); err != nil {
			slog.Warn("notify: channel send failed",
				"channel", ch.Name(), "pr", evt.PullRequest, "error", err)
		}
	}
}

func (d *Dispatcher) shouldSend(evt Event) bool {
	return severityRank(evt.Severity) >= severityRank(d.minSev)
}

func severityRank(sev models.ReviewSeverity) int {
	switch sev {
	case models.SeverityCritical:
		return 3
	case models.SeverityMajor:
		return 2
	case models.SeverityMinor:
		return 1
	default:
		return 0
	}
}
