package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// SlackChannel sends notifications to a Slack incoming webhook URL.
type SlackChannel struct {
	cfg    config.SlackNotifyConfig
	client *http.Client
}

// NewSlack creates a SlackChannel from cfg.
func NewSlack(cfg config.SlackNotifyConfig) *SlackChannel {
	return &SlackChannel{cfg: cfg, client: &http.Client{Timeout: 5 * time.Second}}
}

func (s *SlackChannel) Name() string       { return "slack" }
func (s *SlackChannel) IsConfigured() bool { return s.cfg.WebhookURL != "" }

func (s *SlackChannel) Send(ctx context.Context, evt Event) error {
	title := fmt.Sprintf("Review %s#%d (%s): %s", evt.Repository, evt.PullRequest, evt.Severity, evt.Title)
	attachment := map[string]any{
		"color":  severityColor(evt.Severity),
		"title":  title,
		"text":   evt.Summary,
		"footer": "prreview",
		"ts":     time.Now().Unix(),
	}
	if evt.URL != "" {
		attachment["title_link"] = evt.URL
	}
	payload := map[string]any{
		"text":        title,
		"attachments": []map[string]any{attachment},
	}
	if s.cfg.Channel != "" {
		payload["channel"] = s.cfg.Channel
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req) // #nosec G107 -- WebhookURL is a user-configured Slack incoming webhook URL
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}

func severityColor(sev models.ReviewSeverity) string {
	switch sev {
	case models.SeverityCritical:
		return "#FF0000"
	case models.SeverityMajor:
		return "#FF6600"
	case models.SeverityMinor:
		return "#FFAA00"
	case models.SeverityApproved:
		return "#36A64F"
	default:
		return "#888888"
	}
}
