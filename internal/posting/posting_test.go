package posting

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmoTheDev/prreview-agent/models"
)

type fakePoster struct {
	mu       sync.Mutex
	comments []models.ConsolidatedComment
	summary  string
	vote     int
	votes    int

	delay      time.Duration
	commentErr error
	summaryErr error
	voteErr    error
}

func (f *fakePoster) PostComment(_ context.Context, _ models.Repository, _ int, c models.ConsolidatedComment) error {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments = append(f.comments, c)
	return nil
}

func (f *fakePoster) PostSummary(_ context.Context, _ models.Repository, _ int, markdown string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summaryErr != nil {
		return f.summaryErr
	}
	f.summary = markdown
	return nil
}

func (f *fakePoster) SetVote(_ context.Context, _ models.Repository, _ int, vote int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.voteErr != nil {
		return f.voteErr
	}
	f.vote = vote
	f.votes++
	return nil
}

var testRepo = models.Repository{Provider: "azure", Org: "org", Project: "proj", Name: "repo"}

func testReview() Review {
	return Review{
		Verdict: models.ReviewVerdict{
			Approved: false,
			Severity: models.SeverityMajor,
			Summary:  "Needs work",
			Comments: []models.RawComment{
				{FilePath: "a.cs", LineNumber: 10, Content: "x", Severity: models.CommentError},
				{Content: "general note", Severity: models.CommentInfo},
			},
		},
	}
}

func TestPublish(t *testing.T) {
	poster := &fakePoster{}
	o := NewOrchestrator(poster, NewLedger())

	result, err := o.Publish(context.Background(), testRepo, 42, testReview())
	require.NoError(t, err)

	assert.Equal(t, 1, result.CommentsPosted)
	assert.True(t, result.VoteUpdated)
	assert.False(t, result.Duplicate)
	assert.Empty(t, result.Errors)

	require.Len(t, poster.comments, 1)
	assert.Equal(t, "**[ERROR]**: x", poster.comments[0].Content)
	assert.Equal(t, -5, poster.vote)
	assert.Contains(t, poster.summary, "CHANGES REQUIRED")
	assert.Contains(t, poster.summary, "general note")
}

func TestPublishDuplicateShortCircuits(t *testing.T) {
	poster := &fakePoster{}
	o := NewOrchestrator(poster, NewLedger())

	_, err := o.Publish(context.Background(), testRepo, 42, testReview())
	require.NoError(t, err)
	firstComments := len(poster.comments)
	firstVotes := poster.votes

	result, err := o.Publish(context.Background(), testRepo, 42, testReview())
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Zero(t, result.CommentsPosted)
	assert.Equal(t, firstComments, len(poster.comments), "no further provider calls")
	assert.Equal(t, firstVotes, poster.votes)
}

func TestPublishConcurrentSameKey(t *testing.T) {
	poster := &fakePoster{delay: 50 * time.Millisecond}
	o := NewOrchestrator(poster, NewLedger())

	var wg sync.WaitGroup
	results := make([]models.PostingResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := o.Publish(context.Background(), testRepo, 42, testReview())
			require.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	duplicates := 0
	for _, r := range results {
		if r.Duplicate {
			duplicates++
		}
	}
	assert.Equal(t, 1, duplicates, "exactly one publish wins the key")
	assert.Len(t, poster.comments, 1)
	assert.Equal(t, 1, poster.votes)
}

func TestPublishDifferentPRsIndependent(t *testing.T) {
	poster := &fakePoster{}
	o := NewOrchestrator(poster, NewLedger())

	_, err := o.Publish(context.Background(), testRepo, 42, testReview())
	require.NoError(t, err)
	result, err := o.Publish(context.Background(), testRepo, 43, testReview())
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
}

func TestPublishCollectsErrorsAndContinues(t *testing.T) {
	poster := &fakePoster{commentErr: errors.New("boom")}
	o := NewOrchestrator(poster, NewLedger())

	result, err := o.Publish(context.Background(), testRepo, 42, testReview())
	require.NoError(t, err)

	assert.Zero(t, result.CommentsPosted)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "a.cs:10")
	// Summary and vote still went out.
	assert.NotEmpty(t, poster.summary)
	assert.True(t, result.VoteUpdated)
}

func TestPublishFailureNotRecorded(t *testing.T) {
	poster := &fakePoster{voteErr: errors.New("vote rejected")}
	ledger := NewLedger()
	o := NewOrchestrator(poster, ledger)

	result, err := o.Publish(context.Background(), testRepo, 42, testReview())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Errors)

	// A failed publish may be retried.
	poster.voteErr = nil
	result, err = o.Publish(context.Background(), testRepo, 42, testReview())
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.True(t, result.VoteUpdated)
}

func TestLedgerConcurrentMark(t *testing.T) {
	ledger := NewLedger()
	key := models.PRKey{Repository: "azure:org:proj:repo", PullRequest: 7}

	var wg sync.WaitGroup
	var mu sync.Mutex
	first := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ledger.MarkPublished(key) {
				mu.Lock()
				first++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, first)
	assert.True(t, ledger.AlreadyPublished(key))

	ledger.Forget(key)
	assert.False(t, ledger.AlreadyPublished(key))
}

func TestFormatSummarySections(t *testing.T) {
	v := models.ReviewVerdict{
		Approved: false,
		Severity: models.SeverityCritical,
		Summary:  "Serious problems",
		Comments: []models.RawComment{
			{FilePath: "a.cs", LineNumber: 3, Content: "hardcoded secret", Severity: models.CommentError, IssueType: "security"},
			{FilePath: "b.cs", LineNumber: 8, Content: "style nit", Severity: models.CommentInfo},
		},
		TestSuggestions: []models.TestSuggestion{
			{TestName: "OrderTests.RejectsEmpty", Description: "guard", TestCode: `[Fact]\npublic void RejectsEmpty() { }`},
		},
	}
	packages := &models.DependencySummary{
		TotalPackagesExamined: 5,
		PackagesByType:        map[string]int{"javascript": 3, "python": 2},
		VulnerablePackages:    4,
		VulnerableList:        []string{"p1", "p2", "p3", "p4"},
		HasIssues:             true,
	}
	general := []models.RawComment{{Content: "consider splitting", Severity: models.CommentWarning}}

	out := FormatSummary(v, general, packages)

	assert.Contains(t, out, "## Automated Code Review Results")
	assert.Contains(t, out, "AUTOMATIC REJECTION")
	assert.Contains(t, out, "### Package Security Analysis")
	assert.Contains(t, out, "Packages examined from all project folders: 5")
	assert.Contains(t, out, "- javascript: 3 packages")
	assert.Contains(t, out, "CRITICAL: 4 vulnerable package(s) found")
	assert.Contains(t, out, "- p3")
	assert.NotContains(t, out, "- p4")
	assert.Contains(t, out, "... and 1 more")
	assert.Contains(t, out, "**[WARNING]**: consider splitting")
	assert.Contains(t, out, "### Line-Specific Issues Found")
	assert.Contains(t, out, "Security violations: 1")
	assert.Contains(t, out, "Line 3: hardcoded secret")
	assert.Contains(t, out, "### Summary\nSerious problems")
	assert.Contains(t, out, "- Critical errors: 1")
	assert.Contains(t, out, "- Suggestions: 1")
	assert.Contains(t, out, "### Required Test Cases")
	assert.Contains(t, out, "#### 1. OrderTests.RejectsEmpty")
	assert.Contains(t, out, "```csharp\n[Fact]\npublic void RejectsEmpty() { }\n```")
	assert.True(t, strings.HasSuffix(out, "*This review was generated automatically by prreview*"))
}

func TestFormatSummaryCleanPackages(t *testing.T) {
	out := FormatSummary(models.ReviewVerdict{Approved: true, Severity: models.SeverityApproved, Summary: "ok"},
		nil, &models.DependencySummary{TotalPackagesExamined: 2})

	assert.Contains(t, out, "**Review Status: APPROVED**")
	assert.Contains(t, out, "No package vulnerabilities detected")
	assert.NotContains(t, out, "### Line-Specific Issues Found")
	assert.NotContains(t, out, "### Review Statistics")
}

func TestFormatSummaryPassthrough(t *testing.T) {
	v := models.ReviewVerdict{Summary: "FILES CHANGED: 3\nISSUES FOUND: none"}
	out := FormatSummary(v, nil, nil)
	assert.Contains(t, out, "FILES CHANGED: 3")
	assert.NotContains(t, out, "Review Status")
}
