// Package hosting abstracts the Git hosting platforms a review can target.
// Implementations: Azure DevOps, GitHub, GitLab.
package hosting

import (
	"context"
	"fmt"
	"strings"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// Provider abstracts pull-request operations against a hosting platform.
type Provider interface {
	// Name identifies the provider (e.g. "azure", "github", "gitlab").
	Name() string

	// ListPullRequests returns pull requests with the given status
	// ("active" lists open ones).
	ListPullRequests(ctx context.Context, repo models.Repository, status string) ([]models.PullRequest, error)

	// PullRequestsNeedingReview returns active pull requests waiting on the
	// authenticated user, plus those with no reviewers at all. Each entry's
	// Reason says why it was included.
	PullRequestsNeedingReview(ctx context.Context, repo models.Repository) ([]models.PullRequest, error)

	// GetPullRequest returns a single pull request.
	GetPullRequest(ctx context.Context, repo models.Repository, prID int) (*models.PullRequest, error)

	// GetChanges returns the file changes of a pull request, one entry per
	// path (first occurrence wins), folders excluded, sorted by path.
	// Content that cannot be fetched is left empty rather than failing the
	// whole listing.
	GetChanges(ctx context.Context, repo models.Repository, prID int) ([]models.Change, error)

	// PostComment creates a thread anchored at the comment's file and line.
	PostComment(ctx context.Context, repo models.Repository, prID int, comment models.ConsolidatedComment) error

	// PostSummary creates an unanchored comment on the pull request.
	PostSummary(ctx context.Context, repo models.Repository, prID int, markdown string) error

	// SetVote records the reviewer verdict. Vote values follow the Azure
	// DevOps scale: 10 approved, 5 approved with suggestions, 0 no vote,
	// -5 waiting for author, -10 rejected. Other providers map the scale
	// onto their own approval models.
	SetVote(ctx context.Context, repo models.Repository, prID int, vote int) error

	// AuthToken returns the credential used for git clone fallbacks.
	AuthToken() string
}

// New returns the Provider selected by cfg.Hosting.Provider.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.Hosting.Provider {
	case "azure":
		if cfg.Hosting.Azure.Token == "" {
			return nil, fmt.Errorf("no Azure DevOps token configured; run 'prreview config set hosting.azure.token <pat>'")
		}
		return NewAzureDevOps(cfg.Hosting.Azure, cfg.Review.CloneFallback)
	case "github":
		if cfg.Hosting.GitHub.Token == "" {
			return nil, fmt.Errorf("no GitHub token configured; run 'prreview config set hosting.github.token <token>'")
		}
		return NewGitHub(cfg.Hosting.GitHub)
	case "gitlab":
		if cfg.Hosting.GitLab.Token == "" {
			return nil, fmt.Errorf("no GitLab token configured; run 'prreview config set hosting.gitlab.token <token>'")
		}
		return NewGitLab(cfg.Hosting.GitLab)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Hosting.Provider)
	}
}

// DefaultRepository builds the repository coordinates for the configured
// provider, with name supplied per invocation.
func DefaultRepository(cfg *config.Config, name string) models.Repository {
	switch cfg.Hosting.Provider {
	case "azure":
		return models.Repository{
			Provider: "azure",
			Host:     cfg.Hosting.Azure.Host,
			Org:      cfg.Hosting.Azure.Org,
			Project:  cfg.Hosting.Azure.Project,
			Name:     name,
		}
	case "github":
		org, repo := splitOwnerRepo(name)
		return models.Repository{Provider: "github", Host: cfg.Hosting.GitHub.Host, Org: org, Name: repo}
	case "gitlab":
		org, repo := splitOwnerRepo(name)
		return models.Repository{Provider: "gitlab", Host: cfg.Hosting.GitLab.Host, Org: org, Name: repo}
	default:
		return models.Repository{Provider: cfg.Hosting.Provider, Name: name}
	}
}

// splitOwnerRepo splits "owner/repo" into its parts; a bare name keeps the
// owner empty.
func splitOwnerRepo(name string) (string, string) {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return "", name
}

// normalizeChangeType maps provider-specific change kinds onto the three we
// track. Azure DevOps reports compound kinds like "edit, rename".
func normalizeChangeType(raw string) models.ChangeType {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "delete") || strings.Contains(lower, "remove"):
		return models.ChangeDelete
	case strings.Contains(lower, "add"):
		return models.ChangeAdd
	default:
		return models.ChangeEdit
	}
}
