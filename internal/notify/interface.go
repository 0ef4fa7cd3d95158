package notify

import (
	"context"

	"github.com/CosmoTheDev/prreview-agent/models"
)

// Event describes one published review worth telling someone about.
type Event struct {
	Repository  string // repository key, e.g. "azure:org:proj:repo"
	PullRequest int
	Title       string // PR title
	Severity    models.ReviewSeverity
	Vote        int
	Summary     string
	URL         string // deep link to the pull request
}

// Channel is implemented by each notification provider.
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, evt Event) error
}
