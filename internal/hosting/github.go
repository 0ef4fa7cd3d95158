package hosting

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/CosmoTheDev/prreview-agent/internal/classify"
	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// GitHubProvider implements Provider for GitHub and GitHub Enterprise.
type GitHubProvider struct {
	client *gogithub.Client
	token  string
	host   string
}

// NewGitHub creates a GitHubProvider from the given configuration.
func NewGitHub(cfg config.GitHubConfig) (*GitHubProvider, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(context.Background(), ts)
	client := gogithub.NewClient(tc)

	// Support GitHub Enterprise by overriding the base URL.
	if cfg.Host != "" && cfg.Host != "github.com" {
		base := fmt.Sprintf("https://%s/api/v3/", cfg.Host)
		upload := fmt.Sprintf("https://%s/api/uploads/", cfg.Host)
		var err error
		client, err = client.WithEnterpriseURLs(base, upload)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub enterprise URLs: %w", err)
		}
	}

	return &GitHubProvider{client: client, token: cfg.Token, host: cfg.Host}, nil
}

func (g *GitHubProvider) Name() string      { return "github" }
func (g *GitHubProvider) AuthToken() string { return g.token }

// mapStatus translates the provider-neutral status vocabulary ("active")
// onto GitHub's.
func mapStatus(status string) string {
	switch status {
	case "active", "":
		return "open"
	case "completed":
		return "closed"
	default:
		return status
	}
}

func (g *GitHubProvider) convertPR(pr *gogithub.PullRequest) models.PullRequest {
	return models.PullRequest{
		ID:           pr.GetNumber(),
		Title:        pr.GetTitle(),
		Description:  pr.GetBody(),
		SourceBranch: pr.GetHead().GetRef(),
		TargetBranch: pr.GetBase().GetRef(),
		Author:       pr.GetUser().GetLogin(),
		Status:       pr.GetState(),
		URL:          pr.GetHTMLURL(),
		CreatedAt:    pr.GetCreatedAt().Time,
	}
}

func (g *GitHubProvider) ListPullRequests(ctx context.Context, repo models.Repository, status string) ([]models.PullRequest, error) {
	ghPRs, _, err := g.client.PullRequests.List(ctx, repo.Org, repo.Name, &gogithub.PullRequestListOptions{
		State:       mapStatus(status),
		ListOptions: gogithub.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, fmt.Errorf("listing GitHub pull requests: %w", err)
	}
	prs := make([]models.PullRequest, 0, len(ghPRs))
	for _, pr := range ghPRs {
		prs = append(prs, g.convertPR(pr))
	}
	return prs, nil
}

func (g *GitHubProvider) PullRequestsNeedingReview(ctx context.Context, repo models.Repository) ([]models.PullRequest, error) {
	ghPRs, _, err := g.client.PullRequests.List(ctx, repo.Org, repo.Name, &gogithub.PullRequestListOptions{
		State:       "open",
		ListOptions: gogithub.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, fmt.Errorf("listing GitHub pull requests: %w", err)
	}

	user, _, err := g.client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("resolving authenticated user: %w", err)
	}
	login := user.GetLogin()

	var needing []models.PullRequest
	for _, pr := range ghPRs {
		if len(pr.RequestedReviewers) == 0 {
			converted := g.convertPR(pr)
			converted.Reason = "No reviewers assigned"
			needing = append(needing, converted)
			continue
		}
		for _, reviewer := range pr.RequestedReviewers {
			if reviewer.GetLogin() == login {
				converted := g.convertPR(pr)
				converted.Reason = "You need to review this PR (status: Not yet reviewed)"
				needing = append(needing, converted)
				break
			}
		}
	}
	return needing, nil
}

func (g *GitHubProvider) GetPullRequest(ctx context.Context, repo models.Repository, prID int) (*models.PullRequest, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, repo.Org, repo.Name, prID)
	if err != nil {
		return nil, fmt.Errorf("getting GitHub pull request %d: %w", prID, err)
	}
	converted := g.convertPR(pr)
	return &converted, nil
}

func (g *GitHubProvider) GetChanges(ctx context.Context, repo models.Repository, prID int) ([]models.Change, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, repo.Org, repo.Name, prID)
	if err != nil {
		return nil, fmt.Errorf("getting GitHub pull request %d: %w", prID, err)
	}
	headRef := pr.GetHead().GetSHA()
	baseRef := pr.GetBase().GetRef()

	files, _, err := g.client.PullRequests.ListFiles(ctx, repo.Org, repo.Name, prID, &gogithub.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("listing changed files for pull request %d: %w", prID, err)
	}

	seen := make(map[string]bool)
	var changes []models.Change
	for _, f := range files {
		path := f.GetFilename()
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true

		change := models.Change{
			Path:         path,
			ChangeType:   normalizeChangeType(f.GetStatus()),
			OriginalPath: f.GetPreviousFilename(),
			IsTestFile:   classify.IsTestPath(path),
		}
		if change.ChangeType != models.ChangeDelete {
			change.NewContent = g.fileContent(ctx, repo, path, headRef)
			if change.ChangeType == models.ChangeEdit {
				change.OldContent = g.fileContent(ctx, repo, path, baseRef)
			}
		}
		changes = append(changes, change)
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

func (g *GitHubProvider) fileContent(ctx context.Context, repo models.Repository, path, ref string) string {
	fc, _, _, err := g.client.Repositories.GetContents(ctx, repo.Org, repo.Name, path,
		&gogithub.RepositoryContentGetOptions{Ref: ref})
	if err != nil || fc == nil {
		slog.Warn("could not get file content", "path", path, "ref", ref, "error", err)
		return ""
	}
	content, err := fc.GetContent()
	if err != nil {
		slog.Warn("could not decode file content", "path", path, "error", err)
		return ""
	}
	return content
}

func (g *GitHubProvider) PostComment(ctx context.Context, repo models.Repository, prID int, comment models.ConsolidatedComment) error {
	pr, _, err := g.client.PullRequests.Get(ctx, repo.Org, repo.Name, prID)
	if err != nil {
		return fmt.Errorf("getting GitHub pull request %d: %w", prID, err)
	}
	_, _, err = g.client.PullRequests.CreateComment(ctx, repo.Org, repo.Name, prID, &gogithub.PullRequestComment{
		Body:     gogithub.Ptr(comment.Content),
		Path:     gogithub.Ptr(comment.FilePath),
		Line:     gogithub.Ptr(comment.LineNumber),
		Side:     gogithub.Ptr("RIGHT"),
		CommitID: gogithub.Ptr(pr.GetHead().GetSHA()),
	})
	if err != nil {
		return fmt.Errorf("creating review comment: %w", err)
	}
	return nil
}

func (g *GitHubProvider) PostSummary(ctx context.Context, repo models.Repository, prID int, markdown string) error {
	_, _, err := g.client.Issues.CreateComment(ctx, repo.Org, repo.Name, prID, &gogithub.IssueComment{
		Body: gogithub.Ptr(markdown),
	})
	if err != nil {
		return fmt.Errorf("creating summary comment: %w", err)
	}
	return nil
}

// SetVote maps the Azure DevOps vote scale onto GitHub review events:
// positive votes approve, negative votes request changes, zero is a no-op.
func (g *GitHubProvider) SetVote(ctx context.Context, repo models.Repository, prID int, vote int) error {
	var event, body string
	switch {
	case vote >= 5:
		event = "APPROVE"
	case vote < 0:
		event = "REQUEST_CHANGES"
		body = "Automated review found issues that need to be addressed."
	default:
		return nil
	}
	_, _, err := g.client.PullRequests.CreateReview(ctx, repo.Org, repo.Name, prID, &gogithub.PullRequestReviewRequest{
		Event: gogithub.Ptr(event),
		Body:  gogithub.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("submitting %s review: %w", event, err)
	}
	return nil
}
