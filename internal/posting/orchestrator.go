// Package posting publishes a finished review back to the hosting provider:
// line comments first, then the summary thread, then the vote.
package posting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CosmoTheDev/prreview-agent/internal/verdict"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// Poster is the slice of a hosting provider the orchestrator needs.
type Poster interface {
	PostComment(ctx context.Context, repo models.Repository, prID int, comment models.ConsolidatedComment) error
	PostSummary(ctx context.Context, repo models.Repository, prID int, markdown string) error
	SetVote(ctx context.Context, repo models.Repository, prID int, vote int) error
}

// Review bundles everything that gets published for one pull request.
type Review struct {
	Verdict  models.ReviewVerdict
	Packages *models.DependencySummary
}

type Orchestrator struct {
	poster Poster
	ledger *Ledger
}

func NewOrchestrator(poster Poster, ledger *Ledger) *Orchestrator {
	return &Orchestrator{poster: poster, ledger: ledger}
}

// Publish consolidates the verdict's comments, posts each located comment as
// its own thread, posts the summary (with general comments folded in) and
// sets the vote last. Each post is independent: a failure is collected into
// the result and the remaining steps still run. The PR key is reserved in
// the ledger before any provider call, so a concurrent or repeated Publish
// for the same PR short-circuits with no provider calls at all; a publish
// that collected errors releases the reservation so the caller can retry.
func (o *Orchestrator) Publish(ctx context.Context, repo models.Repository, prID int, review Review) (models.PostingResult, error) {
	key := models.PRKey{Repository: repo.Key(), PullRequest: prID}
	if !o.ledger.MarkPublished(key) {
		slog.Info("review already published, skipping", "pr", key.String())
		return models.PostingResult{Duplicate: true}, nil
	}

	var result models.PostingResult

	cons := verdict.Consolidate(review.Verdict.Comments)
	for _, c := range cons.Located {
		if err := o.poster.PostComment(ctx, repo, prID, c); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("post comment %s:%d: %v", c.FilePath, c.LineNumber, err))
			continue
		}
		result.CommentsPosted++
	}

	summary := FormatSummary(review.Verdict, cons.General, review.Packages)
	if err := o.poster.PostSummary(ctx, repo, prID, summary); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("post summary: %v", err))
	}

	vote := verdict.DecideVote(review.Verdict.Approved, review.Verdict.Severity)
	if err := o.poster.SetVote(ctx, repo, prID, vote); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("set vote: %v", err))
	} else {
		result.VoteUpdated = true
	}

	if len(result.Errors) > 0 {
		o.ledger.Forget(key)
	}

	slog.Info("review published",
		"pr", key.String(),
		"comments", result.CommentsPosted,
		"vote", vote,
		"errors", len(result.Errors))
	return result, nil
}
