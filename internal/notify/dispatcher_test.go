package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

type fakeChannel struct {
	sent []Event
	err  error
}

func (f *fakeChannel) Name() string       { return "fake" }
func (f *fakeChannel) IsConfigured() bool { return true }

func (f *fakeChannel) Send(ctx context.Context, evt Event) error {
	f.sent = append(f.sent, evt)
	return f.err
}

func TestNotifySeverityGate(t *testing.T) {
	ch := &fakeChannel{}
	d := &Dispatcher{channels: []Channel{ch}, minSev: models.SeverityCritical}

	d.Notify(context.Background(), Event{PullRequest: 1, Severity: models.SeverityMajor})
	assert.Empty(t, ch.sent)

	d.Notify(context.Background(), Event{PullRequest: 2, Severity: models.SeverityCritical})
	assert.Len(t, ch.sent, 1)
	assert.Equal(t, 2, ch.sent[0].PullRequest)
}

func TestNotifyLowerThreshold(t *testing.T) {
	ch := &fakeChannel{}
	d := &Dispatcher{channels: []Channel{ch}, minSev: models.SeverityMinor}

	d.Notify(context.Background(), Event{Severity: models.SeverityMinor})
	d.Notify(context.Background(), Event{Severity: models.SeverityMajor})
	d.Notify(context.Background(), Event{Severity: models.SeverityApproved})

	assert.Len(t, ch.sent, 2, "approved reviews never notify")
}

func TestNotifySendErrorDoesNotPropagate(t *testing.T) {
	ch := &fakeChannel{err: errors.New("webhook down")}
	d := &Dispatcher{channels: []Channel{ch}, minSev: models.SeverityCritical}

	// Must not panic or return anything.
	d.Notify(context.Background(), Event{Severity: models.SeverityCritical})
	assert.Len(t, ch.sent, 1)
}

func TestNewDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(config.NotifyConfig{})

	assert.False(t, d.IsAnyConfigured())
	assert.Equal(t, models.SeverityCritical, d.minSev)
}

func TestNewDispatcherWithWebhook(t *testing.T) {
	cfg := config.NotifyConfig{MinSeverity: "major"}
	cfg.Webhook.URL = "https://hooks.example.com/review"

	d := NewDispatcher(cfg)

	assert.True(t, d.IsAnyConfigured())
	assert.Equal(t, models.SeverityMajor, d.minSev)
}
