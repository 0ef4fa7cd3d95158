package hosting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/CosmoTheDev/prreview-agent/internal/classify"
	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// AzureDevOpsProvider implements Provider against the Azure DevOps REST API
// v7.1.
type AzureDevOpsProvider struct {
	token    string
	org      string
	project  string
	host     string
	client   *http.Client
	fallback *CloneFallback
}

// NewAzureDevOps creates an AzureDevOpsProvider. cloneFallback enables
// fetching file content through a shallow git clone when the items API
// cannot serve it.
func NewAzureDevOps(cfg config.AzureConfig, cloneFallback bool) (*AzureDevOpsProvider, error) {
	if cfg.Org == "" {
		return nil, fmt.Errorf("azure DevOps organisation name is required")
	}
	host := cfg.Host
	if host == "" {
		host = "dev.azure.com"
	}
	p := &AzureDevOpsProvider{
		token:   cfg.Token,
		org:     cfg.Org,
		project: cfg.Project,
		host:    host,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	if cloneFallback {
		p.fallback = NewCloneFallback(cfg.Token)
	}
	return p, nil
}

func (a *AzureDevOpsProvider) Name() string      { return "azure" }
func (a *AzureDevOpsProvider) AuthToken() string { return a.token }

func (a *AzureDevOpsProvider) projectFor(repo models.Repository) string {
	if repo.Project != "" {
		return repo.Project
	}
	return a.project
}

// repoURL builds a repository-scoped API URL: path is appended after the
// repository segment and must start with "/" or be empty.
func (a *AzureDevOpsProvider) repoURL(repo models.Repository, path, query string) string {
	u := fmt.Sprintf("https://%s/%s/%s/_apis/git/repositories/%s%s?api-version=7.1",
		a.host, a.org, a.projectFor(repo), url.PathEscape(repo.Name), path)
	if query != "" {
		u += "&" + query
	}
	return u
}

func (a *AzureDevOpsProvider) do(ctx context.Context, method, urlStr string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth("", a.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req) // #nosec G704 -- URL is built from admin-supplied config, not user input
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("azure DevOps API error %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

type azurePullRequest struct {
	PullRequestID int    `json:"pullRequestId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	SourceRefName string `json:"sourceRefName"`
	TargetRefName string `json:"targetRefName"`
	Status        string `json:"status"`
	CreationDate  string `json:"creationDate"`
	CreatedBy     struct {
		DisplayName string `json:"displayName"`
	} `json:"createdBy"`
	Reviewers []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Vote        int    `json:"vote"`
	} `json:"reviewers"`
}

func (a *AzureDevOpsProvider) convertPR(repo models.Repository, pr azurePullRequest) models.PullRequest {
	created, _ := time.Parse(time.RFC3339, pr.CreationDate)
	return models.PullRequest{
		ID:           pr.PullRequestID,
		Title:        pr.Title,
		Description:  pr.Description,
		SourceBranch: strings.TrimPrefix(pr.SourceRefName, "refs/heads/"),
		TargetBranch: strings.TrimPrefix(pr.TargetRefName, "refs/heads/"),
		Author:       pr.CreatedBy.DisplayName,
		Status:       pr.Status,
		URL: fmt.Sprintf("https://%s/%s/%s/_git/%s/pullrequest/%d",
			a.host, a.org, a.projectFor(repo), repo.Name, pr.PullRequestID),
		CreatedAt: created,
	}
}

func (a *AzureDevOpsProvider) listRaw(ctx context.Context, repo models.Repository, status string) ([]azurePullRequest, error) {
	urlStr := a.repoURL(repo, "/pullrequests", "searchCriteria.status="+url.QueryEscape(status))
	data, err := a.do(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("listing pull requests: %w", err)
	}
	var resp struct {
		Value []azurePullRequest `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing pull request list: %w", err)
	}
	return resp.Value, nil
}

func (a *AzureDevOpsProvider) ListPullRequests(ctx context.Context, repo models.Repository, status string) ([]models.PullRequest, error) {
	raw, err := a.listRaw(ctx, repo, status)
	if err != nil {
		return nil, err
	}
	prs := make([]models.PullRequest, 0, len(raw))
	for _, pr := range raw {
		prs = append(prs, a.convertPR(repo, pr))
	}
	slog.Info("listed pull requests", "repo", repo.Name, "status", status, "count", len(prs))
	return prs, nil
}

// currentUserID resolves the authenticated identity via connectionData.
func (a *AzureDevOpsProvider) currentUserID(ctx context.Context) (string, error) {
	urlStr := fmt.Sprintf("https://%s/%s/_apis/connectionData", a.host, a.org)
	data, err := a.do(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("resolving authenticated user: %w", err)
	}
	var resp struct {
		AuthenticatedUser struct {
			ID string `json:"id"`
		} `json:"authenticatedUser"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	return resp.AuthenticatedUser.ID, nil
}

func (a *AzureDevOpsProvider) PullRequestsNeedingReview(ctx context.Context, repo models.Repository) ([]models.PullRequest, error) {
	raw, err := a.listRaw(ctx, repo, "active")
	if err != nil {
		return nil, err
	}

	userID, err := a.currentUserID(ctx)
	if err != nil {
		slog.Warn("could not resolve current user, matching reviewers by vote only", "error", err)
	}

	var needing []models.PullRequest
	for _, pr := range raw {
		if len(pr.Reviewers) == 0 {
			converted := a.convertPR(repo, pr)
			converted.Reason = "No reviewers assigned"
			needing = append(needing, converted)
			continue
		}
		for _, reviewer := range pr.Reviewers {
			if userID != "" && reviewer.ID != userID {
				continue
			}
			if reviewer.Vote == 0 {
				converted := a.convertPR(repo, pr)
				converted.Reason = "You need to review this PR (status: Not yet reviewed)"
				needing = append(needing, converted)
			}
			break
		}
	}
	slog.Info("pull requests needing review", "repo", repo.Name, "count", len(needing))
	return needing, nil
}

func (a *AzureDevOpsProvider) GetPullRequest(ctx context.Context, repo models.Repository, prID int) (*models.PullRequest, error) {
	urlStr := a.repoURL(repo, fmt.Sprintf("/pullrequests/%d", prID), "")
	data, err := a.do(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("getting pull request %d: %w", prID, err)
	}
	var pr azurePullRequest
	if err := json.Unmarshal(data, &pr); err != nil {
		return nil, fmt.Errorf("parsing pull request: %w", err)
	}
	converted := a.convertPR(repo, pr)
	return &converted, nil
}

type azureCommit struct {
	CommitID string `json:"commitId"`
	Comment  string `json:"comment"`
}

// mergeCommit reports whether a commit message marks a merge from the
// target branch; those commits carry other people's changes and would drown
// the review in unrelated files.
func mergeCommit(comment string) bool {
	lower := strings.ToLower(comment)
	return strings.Contains(lower, "merge") || strings.Contains(lower, "merging")
}

func (a *AzureDevOpsProvider) GetChanges(ctx context.Context, repo models.Repository, prID int) ([]models.Change, error) {
	pr, err := a.GetPullRequest(ctx, repo, prID)
	if err != nil {
		return nil, err
	}

	commitsURL := a.repoURL(repo, fmt.Sprintf("/pullrequests/%d/commits", prID), "")
	data, err := a.do(ctx, http.MethodGet, commitsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("listing commits for pull request %d: %w", prID, err)
	}
	var commitsResp struct {
		Value []azureCommit `json:"value"`
	}
	if err := json.Unmarshal(data, &commitsResp); err != nil {
		return nil, fmt.Errorf("parsing commit list: %w", err)
	}

	var feature []azureCommit
	for _, c := range commitsResp.Value {
		if mergeCommit(c.Comment) {
			slog.Info("skipping merge commit", "commit", shortSHA(c.CommitID))
			continue
		}
		feature = append(feature, c)
	}
	if len(feature) == 0 {
		slog.Warn("no feature commits found, using all commits", "pr", prID)
		feature = commitsResp.Value
	}

	seen := make(map[string]bool)
	var changes []models.Change
	for _, commit := range feature {
		commitChanges, err := a.commitChanges(ctx, repo, commit.CommitID)
		if err != nil {
			slog.Warn("could not list commit changes", "commit", shortSHA(commit.CommitID), "error", err)
			continue
		}
		for _, cc := range commitChanges {
			if cc.Item.IsFolder || cc.Item.Path == "" {
				continue
			}
			if seen[cc.Item.Path] {
				continue
			}
			seen[cc.Item.Path] = true

			change := models.Change{
				Path:         cc.Item.Path,
				ChangeType:   normalizeChangeType(cc.ChangeType),
				OriginalPath: cc.SourceServerItem,
				IsTestFile:   classify.IsTestPath(cc.Item.Path),
			}
			if change.ChangeType != models.ChangeDelete {
				change.NewContent = a.fileContent(ctx, repo, cc.Item.Path, commit.CommitID, "commit")
				if change.ChangeType == models.ChangeEdit {
					change.OldContent = a.fileContent(ctx, repo, cc.Item.Path, pr.TargetBranch, "branch")
				}
			}
			changes = append(changes, change)
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	slog.Info("retrieved file changes", "pr", prID, "count", len(changes))
	return changes, nil
}

type azureItemChange struct {
	ChangeType       string `json:"changeType"`
	SourceServerItem string `json:"sourceServerItem"`
	Item             struct {
		Path     string `json:"path"`
		IsFolder bool   `json:"isFolder"`
	} `json:"item"`
}

func (a *AzureDevOpsProvider) commitChanges(ctx context.Context, repo models.Repository, commitID string) ([]azureItemChange, error) {
	urlStr := a.repoURL(repo, fmt.Sprintf("/commits/%s/changes", commitID), "")
	data, err := a.do(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Changes []azureItemChange `json:"changes"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return resp.Changes, nil
}

// fileContent fetches a file at a version. Failures degrade to an empty
// string so a single unreadable file cannot sink the whole change listing.
func (a *AzureDevOpsProvider) fileContent(ctx context.Context, repo models.Repository, path, version, versionType string) string {
	query := fmt.Sprintf("path=%s&versionDescriptor.version=%s&versionDescriptor.versionType=%s&includeContent=true&%s=text",
		url.QueryEscape(path), url.QueryEscape(version), versionType, url.QueryEscape("$format"))
	urlStr := a.repoURL(repo, "/items", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return ""
	}
	req.SetBasicAuth("", a.token)
	req.Header.Set("Accept", "text/plain")

	resp, err := a.client.Do(req) // #nosec G704 -- URL is built from admin-supplied config, not user input
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode < 400 {
			data, readErr := io.ReadAll(resp.Body)
			if readErr == nil {
				return string(data)
			}
			err = readErr
		} else {
			err = fmt.Errorf("status %d", resp.StatusCode)
		}
	}
	slog.Warn("could not get file content", "path", path, "version", version, "error", err)

	if a.fallback != nil && versionType == "branch" {
		cloneURL := fmt.Sprintf("https://%s/%s/%s/_git/%s", a.host, a.org, a.projectFor(repo), repo.Name)
		if content, cloneErr := a.fallback.FileContent(ctx, cloneURL, version, path); cloneErr == nil {
			return content
		}
	}
	return ""
}

func (a *AzureDevOpsProvider) PostComment(ctx context.Context, repo models.Repository, prID int, comment models.ConsolidatedComment) error {
	thread := map[string]any{
		"status": "active",
		"comments": []map[string]any{
			{"content": comment.Content, "commentType": "text"},
		},
		"threadContext": map[string]any{
			"filePath":       comment.FilePath,
			"rightFileStart": map[string]int{"line": comment.LineNumber, "offset": 1},
			"rightFileEnd":   map[string]int{"line": comment.LineNumber, "offset": 1},
		},
	}
	return a.postThread(ctx, repo, prID, thread)
}

func (a *AzureDevOpsProvider) PostSummary(ctx context.Context, repo models.Repository, prID int, markdown string) error {
	thread := map[string]any{
		"status": "active",
		"comments": []map[string]any{
			{"content": markdown, "commentType": "text"},
		},
	}
	return a.postThread(ctx, repo, prID, thread)
}

func (a *AzureDevOpsProvider) postThread(ctx context.Context, repo models.Repository, prID int, thread map[string]any) error {
	body, err := json.Marshal(thread)
	if err != nil {
		return err
	}
	urlStr := a.repoURL(repo, fmt.Sprintf("/pullrequests/%d/threads", prID), "")
	if _, err := a.do(ctx, http.MethodPost, urlStr, strings.NewReader(string(body))); err != nil {
		return fmt.Errorf("creating comment thread: %w", err)
	}
	return nil
}

func (a *AzureDevOpsProvider) SetVote(ctx context.Context, repo models.Repository, prID int, vote int) error {
	userID, err := a.currentUserID(ctx)
	if err != nil {
		return err
	}
	body := fmt.Sprintf(`{"vote": %d}`, vote)
	urlStr := a.repoURL(repo, fmt.Sprintf("/pullrequests/%d/reviewers/%s", prID, userID), "")
	if _, err := a.do(ctx, http.MethodPut, urlStr, strings.NewReader(body)); err != nil {
		return fmt.Errorf("updating vote: %w", err)
	}
	slog.Info("vote updated", "pr", prID, "vote", vote)
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
