package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/CosmoTheDev/prreview-agent/models"
)

// Approve marks the pull request approved (vote 10) with an optional
// comment, bypassing the analysis pipeline.
func (e *Engine) Approve(ctx context.Context, repo models.Repository, prID int, comment string) (*models.PullRequest, error) {
	pr, err := e.provider.GetPullRequest(ctx, repo, prID)
	if err != nil {
		return nil, fmt.Errorf("get pull request %d: %w", prID, err)
	}
	if comment != "" {
		body := fmt.Sprintf("## PR Approved\n\n%s", comment)
		if err := e.provider.PostSummary(ctx, repo, prID, body); err != nil {
			return nil, fmt.Errorf("post approval comment: %w", err)
		}
	}
	if err := e.provider.SetVote(ctx, repo, prID, 10); err != nil {
		return nil, fmt.Errorf("set approval vote: %w", err)
	}
	return pr, nil
}

// Reject votes the pull request down with a mandatory reason. When
// requireChanges is set the vote is -10 (rejected), otherwise -5
// (waiting for author).
func (e *Engine) Reject(ctx context.Context, repo models.Repository, prID int, reason string, requireChanges bool) (*models.PullRequest, error) {
	if len(strings.TrimSpace(reason)) < 10 {
		return nil, fmt.Errorf("rejection requires a detailed reason (at least 10 characters)")
	}
	pr, err := e.provider.GetPullRequest(ctx, repo, prID)
	if err != nil {
		return nil, fmt.Errorf("get pull request %d: %w", prID, err)
	}

	status := "Waiting for Author"
	vote := -5
	if requireChanges {
		status = "Changes Required"
		vote = -10
	}
	body := fmt.Sprintf(
		"## PR Rejected\n\n**Reason:** %s\n\n**Status:** %s\n\nPlease address the issues above and update the PR.",
		reason, status)
	if err := e.provider.PostSummary(ctx, repo, prID, body); err != nil {
		return nil, fmt.Errorf("post rejection comment: %w", err)
	}
	if err := e.provider.SetVote(ctx, repo, prID, vote); err != nil {
		return nil, fmt.Errorf("set rejection vote: %w", err)
	}
	return pr, nil
}
