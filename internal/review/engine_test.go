package review

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/internal/posting"
	"github.com/CosmoTheDev/prreview-agent/models"
)

type fakeHost struct {
	prs        map[int]models.PullRequest
	changes    map[int][]models.Change
	changesErr map[int]error

	comments  []models.ConsolidatedComment
	summaries []string
	votes     []int
}

func (f *fakeHost) Name() string { return "fake" }

func (f *fakeHost) ListPullRequests(ctx context.Context, repo models.Repository, status string) ([]models.PullRequest, error) {
	out := make([]models.PullRequest, 0, len(f.prs))
	for _, pr := range f.prs {
		out = append(out, pr)
	}
	return out, nil
}

func (f *fakeHost) PullRequestsNeedingReview(ctx context.Context, repo models.Repository) ([]models.PullRequest, error) {
	return f.ListPullRequests(ctx, repo, "active")
}

func (f *fakeHost) GetPullRequest(ctx context.Context, repo models.Repository, prID int) (*models.PullRequest, error) {
	pr, ok := f.prs[prID]
	if !ok {
		return nil, fmt.Errorf("pull request %d not found", prID)
	}
	return &pr, nil
}

func (f *fakeHost) GetChanges(ctx context.Context, repo models.Repository, prID int) ([]models.Change, error) {
	if err := f.changesErr[prID]; err != nil {
		return nil, err
	}
	return f.changes[prID], nil
}

func (f *fakeHost) PostComment(ctx context.Context, repo models.Repository, prID int, c models.ConsolidatedComment) error {
	f.comments = append(f.comments, c)
	return nil
}

func (f *fakeHost) PostSummary(ctx context.Context, repo models.Repository, prID int, markdown string) error {
	f.summaries = append(f.summaries, markdown)
	return nil
}

func (f *fakeHost) SetVote(ctx context.Context, repo models.Repository, prID int, vote int) error {
	f.votes = append(f.votes, vote)
	return nil
}

func (f *fakeHost) AuthToken() string { return "" }

type fakeAgent struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeAgent) Name() string                        { return "fake" }
func (f *fakeAgent) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeAgent) Review(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

const cleanVerdict = `{
	"approved": true,
	"severity": "minor",
	"summary": "Looks good overall",
	"comments": [
		{"file_path": "src/app.go", "line_number": 3, "content": "prefer early return", "severity": "info"}
	]
}`

func testEngine(host *fakeHost, agent *fakeAgent) *Engine {
	cfg := &config.Config{}
	cfg.Review.BugfixKeywords = []string{"fix", "bug", "defect", "hotfix"}
	cfg.Review.RequireTestsForBugfix = true
	orch := posting.NewOrchestrator(host, posting.NewLedger())
	return NewEngine(cfg, host, agent, orch)
}

func testRepo() models.Repository {
	return models.Repository{Provider: "azure", Org: "acme", Project: "platform", Name: "service"}
}

func cleanChange() models.Change {
	return models.Change{
		Path:       "src/app.go",
		ChangeType: models.ChangeEdit,
		NewContent: "package app\n\nfunc Run() error {\n\treturn nil\n}\n",
	}
}

func TestReviewPRPublishes(t *testing.T) {
	host := &fakeHost{
		prs:     map[int]models.PullRequest{42: {ID: 42, Title: "Add retry helper", SourceBranch: "feature/retry", TargetBranch: "main"}},
		changes: map[int][]models.Change{42: {cleanChange()}},
	}
	agent := &fakeAgent{response: cleanVerdict}
	engine := testEngine(host, agent)

	res, err := engine.ReviewPR(context.Background(), testRepo(), 42)

	require.NoError(t, err)
	assert.Equal(t, 10, res.Vote)
	assert.True(t, res.Verdict.Approved)
	assert.False(t, res.Posting.Duplicate)
	assert.Equal(t, 1, res.Posting.CommentsPosted)
	require.Len(t, host.comments, 1)
	assert.Equal(t, "src/app.go", host.comments[0].FilePath)
	require.Len(t, host.votes, 1)
	assert.Equal(t, 10, host.votes[0])
	require.Len(t, host.summaries, 1)
	assert.Contains(t, host.summaries[0], "APPROVED")

	require.Len(t, agent.prompts, 1)
	assert.Contains(t, agent.prompts[0], "Pull Request #42: Add retry helper")
}

func TestReviewPRDuplicateShortCircuits(t *testing.T) {
	host := &fakeHost{
		prs:     map[int]models.PullRequest{42: {ID: 42, Title: "Add retry helper"}},
		changes: map[int][]models.Change{42: {cleanChange()}},
	}
	agent := &fakeAgent{response: cleanVerdict}
	engine := testEngine(host, agent)

	_, err := engine.ReviewPR(context.Background(), testRepo(), 42)
	require.NoError(t, err)
	res, err := engine.ReviewPR(context.Background(), testRepo(), 42)

	require.NoError(t, err)
	assert.True(t, res.Posting.Duplicate)
	assert.Len(t, host.votes, 1)
	assert.Len(t, host.summaries, 1)
}

func TestReviewPRInjectsScannerFindings(t *testing.T) {
	host := &fakeHost{
		prs: map[int]models.PullRequest{7: {ID: 7, Title: "Update auth service"}},
		changes: map[int][]models.Change{7: {{
			Path:       "src/Auth.cs",
			ChangeType: models.ChangeEdit,
			NewContent: "class Auth {\n    string password = \"hunter2secret\";\n}\n",
		}}},
	}
	agent := &fakeAgent{response: cleanVerdict}
	engine := testEngine(host, agent)

	res, err := engine.ReviewPR(context.Background(), testRepo(), 7)

	require.NoError(t, err)
	require.NotEmpty(t, res.Findings)
	assert.Equal(t, models.SeverityCritical, res.Verdict.Severity)
	assert.False(t, res.Verdict.Approved)
	assert.Equal(t, -10, res.Vote)

	found := false
	for _, c := range host.comments {
		if c.FilePath == "src/Auth.cs" && c.LineNumber == 2 {
			found = true
		}
	}
	assert.True(t, found, "scanner finding should be posted as an inline comment")
}

func TestBugfixWithoutTestsEscalates(t *testing.T) {
	host := &fakeHost{
		prs:     map[int]models.PullRequest{9: {ID: 9, Title: "Fix nil deref on shutdown"}},
		changes: map[int][]models.Change{9: {cleanChange()}},
	}
	agent := &fakeAgent{response: `{"approved": true, "severity": "approved", "summary": "Fine"}`}
	engine := testEngine(host, agent)

	res, err := engine.ReviewPR(context.Background(), testRepo(), 9)

	require.NoError(t, err)
	assert.Equal(t, models.SeverityMajor, res.Verdict.Severity)
	assert.False(t, res.Verdict.Approved)
	assert.Equal(t, -5, res.Vote)
	require.Len(t, host.summaries, 1)
	assert.Contains(t, host.summaries[0], "regression tests")
}

func TestBugfixWithTestsNotEscalated(t *testing.T) {
	host := &fakeHost{
		prs: map[int]models.PullRequest{9: {ID: 9, Title: "Fix nil deref on shutdown"}},
		changes: map[int][]models.Change{9: {
			cleanChange(),
			{Path: "src/app_test.go", ChangeType: models.ChangeAdd, NewContent: "package app\n", IsTestFile: true},
		}},
	}
	agent := &fakeAgent{response: `{"approved": true, "severity": "approved", "summary": "Fine"}`}
	engine := testEngine(host, agent)

	res, err := engine.ReviewPR(context.Background(), testRepo(), 9)

	require.NoError(t, err)
	assert.True(t, res.Verdict.Approved)
	assert.Equal(t, 10, res.Vote)
}

func TestPreviewDoesNotPost(t *testing.T) {
	host := &fakeHost{
		prs:     map[int]models.PullRequest{42: {ID: 42, Title: "Add retry helper"}},
		changes: map[int][]models.Change{42: {cleanChange()}},
	}
	agent := &fakeAgent{response: cleanVerdict}
	engine := testEngine(host, agent)

	res, err := engine.Preview(context.Background(), testRepo(), 42)

	require.NoError(t, err)
	assert.Contains(t, res.Summary, "APPROVED")
	assert.Empty(t, host.comments)
	assert.Empty(t, host.summaries)
	assert.Empty(t, host.votes)
}

func TestReviewPRNoChanges(t *testing.T) {
	host := &fakeHost{
		prs:     map[int]models.PullRequest{5: {ID: 5, Title: "Empty PR"}},
		changes: map[int][]models.Change{},
	}
	agent := &fakeAgent{response: cleanVerdict}
	engine := testEngine(host, agent)

	res, err := engine.ReviewPR(context.Background(), testRepo(), 5)

	require.NoError(t, err)
	assert.Equal(t, 10, res.Vote)
	assert.Contains(t, res.Verdict.Summary, "No reviewable changes")
	assert.Empty(t, agent.prompts, "agent should not be called for an empty change set")
}

func TestReviewPRAgentErrorPropagates(t *testing.T) {
	host := &fakeHost{
		prs:     map[int]models.PullRequest{3: {ID: 3, Title: "Add thing"}},
		changes: map[int][]models.Change{3: {cleanChange()}},
	}
	agent := &fakeAgent{err: errors.New("model overloaded")}
	engine := testEngine(host, agent)

	_, err := engine.ReviewPR(context.Background(), testRepo(), 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
	assert.Empty(t, host.votes)
}

func TestReviewAllIsolatesFailures(t *testing.T) {
	host := &fakeHost{
		prs: map[int]models.PullRequest{
			1: {ID: 1, Title: "Broken PR"},
			2: {ID: 2, Title: "Good PR"},
		},
		changes:    map[int][]models.Change{2: {cleanChange()}},
		changesErr: map[int]error{1: errors.New("diff service unavailable")},
	}
	agent := &fakeAgent{response: cleanVerdict}
	engine := testEngine(host, agent)

	results, err := engine.ReviewAll(context.Background(), testRepo())

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].PR.ID)
}

func TestApprove(t *testing.T) {
	host := &fakeHost{prs: map[int]models.PullRequest{4: {ID: 4, Title: "Ship it"}}}
	engine := testEngine(host, &fakeAgent{})

	pr, err := engine.Approve(context.Background(), testRepo(), 4, "LGTM")

	require.NoError(t, err)
	assert.Equal(t, "Ship it", pr.Title)
	require.Len(t, host.votes, 1)
	assert.Equal(t, 10, host.votes[0])
	require.Len(t, host.summaries, 1)
	assert.Contains(t, host.summaries[0], "LGTM")
}

func TestRejectRequiresReason(t *testing.T) {
	host := &fakeHost{prs: map[int]models.PullRequest{4: {ID: 4}}}
	engine := testEngine(host, &fakeAgent{})

	_, err := engine.Reject(context.Background(), testRepo(), 4, "bad", true)

	require.Error(t, err)
	assert.Empty(t, host.votes)
}

func TestRejectVotes(t *testing.T) {
	host := &fakeHost{prs: map[int]models.PullRequest{4: {ID: 4, Title: "Risky change"}}}
	engine := testEngine(host, &fakeAgent{})

	_, err := engine.Reject(context.Background(), testRepo(), 4, "Breaks the public API without a migration path", true)

	require.NoError(t, err)
	require.Len(t, host.votes, 1)
	assert.Equal(t, -10, host.votes[0])
	require.Len(t, host.summaries, 1)
	assert.Contains(t, host.summaries[0], "Changes Required")
}
