package hosting

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/CosmoTheDev/prreview-agent/internal/classify"
	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// GitLabProvider implements Provider for GitLab (cloud and self-hosted).
// Pull requests map onto merge requests; votes map onto approvals.
type GitLabProvider struct {
	client *gitlab.Client
	token  string
	host   string
}

// NewGitLab creates a GitLabProvider from the given configuration.
func NewGitLab(cfg config.GitLabConfig) (*GitLabProvider, error) {
	opts := []gitlab.ClientOptionFunc{}
	if cfg.Host != "" && cfg.Host != "gitlab.com" {
		base := fmt.Sprintf("https://%s/api/v4/", cfg.Host)
		opts = append(opts, gitlab.WithBaseURL(base))
	}

	client, err := gitlab.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client: %w", err)
	}

	return &GitLabProvider{client: client, token: cfg.Token, host: cfg.Host}, nil
}

func (g *GitLabProvider) Name() string      { return "gitlab" }
func (g *GitLabProvider) AuthToken() string { return g.token }

// pid builds the namespaced project path GitLab uses as a project ID.
func pid(repo models.Repository) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{repo.Org, repo.Project, repo.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

func (g *GitLabProvider) convertMR(mr *gitlab.BasicMergeRequest) models.PullRequest {
	pr := models.PullRequest{
		ID:           int(mr.IID),
		Title:        mr.Title,
		Description:  mr.Description,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		Status:       mr.State,
		URL:          mr.WebURL,
	}
	if mr.Author != nil {
		pr.Author = mr.Author.Username
	}
	if mr.CreatedAt != nil {
		pr.CreatedAt = *mr.CreatedAt
	}
	return pr
}

func (g *GitLabProvider) ListPullRequests(ctx context.Context, repo models.Repository, status string) ([]models.PullRequest, error) {
	state := status
	if state == "active" || state == "" {
		state = "opened"
	}
	mrs, _, err := g.client.MergeRequests.ListProjectMergeRequests(pid(repo), &gitlab.ListProjectMergeRequestsOptions{
		State:       gitlab.Ptr(state),
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing GitLab merge requests: %w", err)
	}
	prs := make([]models.PullRequest, 0, len(mrs))
	for _, mr := range mrs {
		prs = append(prs, g.convertMR(mr))
	}
	return prs, nil
}

func (g *GitLabProvider) PullRequestsNeedingReview(ctx context.Context, repo models.Repository) ([]models.PullRequest, error) {
	user, _, err := g.client.Users.CurrentUser(gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("resolving authenticated user: %w", err)
	}

	mrs, _, err := g.client.MergeRequests.ListProjectMergeRequests(pid(repo), &gitlab.ListProjectMergeRequestsOptions{
		State:       gitlab.Ptr("opened"),
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing GitLab merge requests: %w", err)
	}

	var needing []models.PullRequest
	for _, mr := range mrs {
		if len(mr.Reviewers) == 0 {
			converted := g.convertMR(mr)
			converted.Reason = "No reviewers assigned"
			needing = append(needing, converted)
			continue
		}
		for _, reviewer := range mr.Reviewers {
			if reviewer != nil && reviewer.ID == user.ID {
				converted := g.convertMR(mr)
				converted.Reason = "You need to review this PR (status: Not yet reviewed)"
				needing = append(needing, converted)
				break
			}
		}
	}
	return needing, nil
}

func (g *GitLabProvider) GetPullRequest(ctx context.Context, repo models.Repository, prID int) (*models.PullRequest, error) {
	mr, _, err := g.client.MergeRequests.GetMergeRequest(pid(repo), prID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("getting GitLab merge request %d: %w", prID, err)
	}
	pr := models.PullRequest{
		ID:           int(mr.IID),
		Title:        mr.Title,
		Description:  mr.Description,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		Status:       mr.State,
		URL:          mr.WebURL,
	}
	if mr.Author != nil {
		pr.Author = mr.Author.Username
	}
	if mr.CreatedAt != nil {
		pr.CreatedAt = *mr.CreatedAt
	}
	return &pr, nil
}

func (g *GitLabProvider) GetChanges(ctx context.Context, repo models.Repository, prID int) ([]models.Change, error) {
	pr, err := g.GetPullRequest(ctx, repo, prID)
	if err != nil {
		return nil, err
	}

	diffs, _, err := g.client.MergeRequests.ListMergeRequestDiffs(pid(repo), prID, &gitlab.ListMergeRequestDiffsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing diffs for merge request %d: %w", prID, err)
	}

	seen := make(map[string]bool)
	var changes []models.Change
	for _, d := range diffs {
		path := d.NewPath
		if path == "" {
			path = d.OldPath
		}
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true

		change := models.Change{
			Path:       path,
			IsTestFile: classify.IsTestPath(path),
		}
		switch {
		case d.DeletedFile:
			change.ChangeType = models.ChangeDelete
		case d.NewFile:
			change.ChangeType = models.ChangeAdd
		default:
			change.ChangeType = models.ChangeEdit
			if d.RenamedFile {
				change.OriginalPath = d.OldPath
			}
		}
		if change.ChangeType != models.ChangeDelete {
			change.NewContent = g.fileContent(ctx, repo, path, pr.SourceBranch)
			if change.ChangeType == models.ChangeEdit {
				change.OldContent = g.fileContent(ctx, repo, d.OldPath, pr.TargetBranch)
			}
		}
		changes = append(changes, change)
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

func (g *GitLabProvider) fileContent(ctx context.Context, repo models.Repository, path, ref string) string {
	data, _, err := g.client.RepositoryFiles.GetRawFile(pid(repo), path, &gitlab.GetRawFileOptions{
		Ref: gitlab.Ptr(ref),
	}, gitlab.WithContext(ctx))
	if err != nil {
		slog.Warn("could not get file content", "path", path, "ref", ref, "error", err)
		return ""
	}
	return string(data)
}

func (g *GitLabProvider) PostComment(ctx context.Context, repo models.Repository, prID int, comment models.ConsolidatedComment) error {
	mr, _, err := g.client.MergeRequests.GetMergeRequest(pid(repo), prID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("getting GitLab merge request %d: %w", prID, err)
	}

	_, _, err = g.client.Discussions.CreateMergeRequestDiscussion(pid(repo), prID, &gitlab.CreateMergeRequestDiscussionOptions{
		Body: gitlab.Ptr(comment.Content),
		Position: &gitlab.PositionOptions{
			PositionType: gitlab.Ptr("text"),
			BaseSHA:      gitlab.Ptr(mr.DiffRefs.BaseSha),
			StartSHA:     gitlab.Ptr(mr.DiffRefs.StartSha),
			HeadSHA:      gitlab.Ptr(mr.DiffRefs.HeadSha),
			NewPath:      gitlab.Ptr(comment.FilePath),
			NewLine:      gitlab.Ptr(comment.LineNumber),
		},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("creating discussion: %w", err)
	}
	return nil
}

func (g *GitLabProvider) PostSummary(ctx context.Context, repo models.Repository, prID int, markdown string) error {
	_, _, err := g.client.Notes.CreateMergeRequestNote(pid(repo), prID, &gitlab.CreateMergeRequestNoteOptions{
		Body: gitlab.Ptr(markdown),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("creating summary note: %w", err)
	}
	return nil
}

// SetVote maps positive votes onto an approval; negative votes revoke any
// prior approval. GitLab has no native request-changes state, the summary
// comment carries the verdict.
func (g *GitLabProvider) SetVote(ctx context.Context, repo models.Repository, prID int, vote int) error {
	if vote >= 5 {
		_, _, err := g.client.MergeRequestApprovals.ApproveMergeRequest(pid(repo), prID, nil, gitlab.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("approving merge request: %w", err)
		}
		return nil
	}
	if vote < 0 {
		_, err := g.client.MergeRequestApprovals.UnapproveMergeRequest(pid(repo), prID, gitlab.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("revoking approval: %w", err)
		}
	}
	return nil
}
