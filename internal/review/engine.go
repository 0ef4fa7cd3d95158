// Package review glues the pipeline stages together: fetch the pull
// request and its changes, analyse them, ask the reviewing agent for a
// verdict, fold in policy findings, and publish the result. Each pull
// request is one unit of work; a failure on one PR never affects another.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CosmoTheDev/prreview-agent/internal/ai"
	"github.com/CosmoTheDev/prreview-agent/internal/classify"
	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/internal/deps"
	"github.com/CosmoTheDev/prreview-agent/internal/history"
	"github.com/CosmoTheDev/prreview-agent/internal/hosting"
	"github.com/CosmoTheDev/prreview-agent/internal/notify"
	"github.com/CosmoTheDev/prreview-agent/internal/osv"
	"github.com/CosmoTheDev/prreview-agent/internal/posting"
	"github.com/CosmoTheDev/prreview-agent/internal/prompt"
	"github.com/CosmoTheDev/prreview-agent/internal/secscan"
	"github.com/CosmoTheDev/prreview-agent/internal/verdict"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// Engine runs the full review pipeline for pull requests.
type Engine struct {
	cfg      *config.Config
	provider hosting.Provider
	agent    ai.Provider
	orch     *posting.Orchestrator
	analyzer *deps.Analyzer
	prompts  *prompt.Assembler

	store    history.Store      // optional
	notifier *notify.Dispatcher // optional
}

// NewEngine wires a pipeline engine. History recording and notifications
// are off until SetHistory / SetNotifier are called.
func NewEngine(cfg *config.Config, provider hosting.Provider, agent ai.Provider, orch *posting.Orchestrator) *Engine {
	var enricher deps.Enricher
	if cfg.Review.OSVEnrich {
		enricher = osv.NewEnricher()
	}
	return &Engine{
		cfg:      cfg,
		provider: provider,
		agent:    agent,
		orch:     orch,
		analyzer: deps.NewAnalyzer(enricher),
		prompts:  prompt.NewAssembler(cfg.Review.CustomPromptFile),
	}
}

// SetHistory enables best-effort persistence of published reviews.
func (e *Engine) SetHistory(store history.Store) { e.store = store }

// SetNotifier enables notification dispatch on published reviews.
func (e *Engine) SetNotifier(d *notify.Dispatcher) { e.notifier = d }

// Result is the outcome of one pipeline run. Summary holds the formatted
// markdown for both dry runs and published reviews.
type Result struct {
	PR       models.PullRequest       `json:"pr"`
	Changes  int                      `json:"changes"`
	Verdict  models.ReviewVerdict     `json:"verdict"`
	Findings []models.SecurityFinding `json:"findings,omitempty"`
	Packages models.DependencySummary `json:"packages"`
	Vote     int                      `json:"vote"`
	Summary  string                   `json:"summary"`
	Posting  models.PostingResult     `json:"posting"`
}

// ReviewPR runs the full pipeline against one pull request and publishes
// the outcome. History recording and notifications are best-effort and
// never fail the review.
func (e *Engine) ReviewPR(ctx context.Context, repo models.Repository, prID int) (*Result, error) {
	res, err := e.analyze(ctx, repo, prID)
	if err != nil {
		return nil, err
	}

	posted, err := e.orch.Publish(ctx, repo, prID, posting.Review{
		Verdict:  res.Verdict,
		Packages: &res.Packages,
	})
	if err != nil {
		return nil, fmt.Errorf("publish review: %w", err)
	}
	res.Posting = posted
	if posted.Duplicate {
		return res, nil
	}

	e.record(ctx, repo, prID, res)
	e.dispatch(ctx, repo, res)
	return res, nil
}

// Preview runs the analysis stages and formats the would-be review
// without touching the hosting provider's write surface.
func (e *Engine) Preview(ctx context.Context, repo models.Repository, prID int) (*Result, error) {
	return e.analyze(ctx, repo, prID)
}

// ReviewAll reviews every pull request waiting on the authenticated user.
// One PR's failure is logged and the loop continues; only the initial
// listing can fail the whole call.
func (e *Engine) ReviewAll(ctx context.Context, repo models.Repository) ([]*Result, error) {
	prs, err := e.provider.PullRequestsNeedingReview(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("list pull requests needing review: %w", err)
	}

	results := make([]*Result, 0, len(prs))
	for _, pr := range prs {
		res, err := e.ReviewPR(ctx, repo, pr.ID)
		if err != nil {
			slog.Error("review failed", "pr", pr.ID, "error", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// Inspection exposes the analysis stages individually, without calling
// the reviewing agent. The gateway serves it as a standalone operation.
type Inspection struct {
	PR       models.PullRequest               `json:"pr"`
	Groups   map[models.FileCategory][]string `json:"groups"`
	Findings []models.SecurityFinding         `json:"findings"`
	Packages models.DependencySummary         `json:"packages"`
	Issues   []string                         `json:"issues"`
	Prompt   string                           `json:"prompt"`
}

// Inspect fetches the change set and runs classification, security
// scanning, dependency analysis, and prompt assembly.
func (e *Engine) Inspect(ctx context.Context, repo models.Repository, prID int) (*Inspection, error) {
	pr, err := e.provider.GetPullRequest(ctx, repo, prID)
	if err != nil {
		return nil, fmt.Errorf("get pull request %d: %w", prID, err)
	}
	changes, err := e.provider.GetChanges(ctx, repo, prID)
	if err != nil {
		return nil, fmt.Errorf("get changes for pull request %d: %w", prID, err)
	}

	findings, _ := secscan.ScanChanges(changes)
	packages, issues := e.analyzer.Analyze(ctx, changes)
	groups := classify.AnalyzeSet(changes)
	return &Inspection{
		PR:       *pr,
		Groups:   groups,
		Findings: findings,
		Packages: packages,
		Issues:   issues,
		Prompt:   e.prompts.Build(*pr, changes, groups, packages, findings),
	}, nil
}

// analyze runs every stage up to (but not including) publication.
func (e *Engine) analyze(ctx context.Context, repo models.Repository, prID int) (*Result, error) {
	pr, err := e.provider.GetPullRequest(ctx, repo, prID)
	if err != nil {
		return nil, fmt.Errorf("get pull request %d: %w", prID, err)
	}
	changes, err := e.provider.GetChanges(ctx, repo, prID)
	if err != nil {
		return nil, fmt.Errorf("get changes for pull request %d: %w", prID, err)
	}

	res := &Result{PR: *pr, Changes: len(changes)}
	if len(changes) == 0 {
		res.Verdict = models.ReviewVerdict{
			Approved: true,
			Severity: models.SeverityApproved,
			Summary:  "No reviewable changes found.",
		}
		res.Vote = verdict.DecideVote(true, models.SeverityApproved)
		res.Summary = posting.FormatSummary(res.Verdict, nil, nil)
		return res, nil
	}

	findings, _ := secscan.ScanChanges(changes)
	packages, pkgIssues := e.analyzer.Analyze(ctx, changes)
	groups := classify.AnalyzeSet(changes)

	promptText := e.prompts.Build(*pr, changes, groups, packages, findings)
	raw, err := e.agent.Review(ctx, promptText)
	if err != nil {
		return nil, fmt.Errorf("ai review of pull request %d: %w", prID, err)
	}
	v := verdict.Parse(raw)

	// Scanner findings flow through the same consolidation path as agent
	// comments, so one line ends up with one merged thread.
	if len(findings) > 0 {
		v.Comments = append(v.Comments, secscan.FindingsAsComments(findings)...)
		escalate(&v, models.SeverityCritical)
	}
	for _, issue := range pkgIssues {
		v.Comments = append(v.Comments, models.RawComment{
			Content:   issue,
			Severity:  models.CommentError,
			IssueType: "security",
		})
	}
	if packages.HasIssues {
		escalate(&v, models.SeverityCritical)
	}
	if e.missingBugfixTests(*pr, changes) {
		v.Comments = append(v.Comments, models.RawComment{
			Content:   "Bug fix lacks required regression tests. Add at least one test covering the fixed behavior.",
			Severity:  models.CommentError,
			IssueType: "missing_tests",
		})
		escalate(&v, models.SeverityMajor)
	}

	res.Verdict = v
	res.Findings = findings
	res.Packages = packages
	res.Vote = verdict.DecideVote(v.Approved, v.Severity)

	cons := verdict.Consolidate(v.Comments)
	res.Summary = posting.FormatSummary(v, cons.General, &packages)
	return res, nil
}

// missingBugfixTests reports whether the PR looks like a bug fix (keyword
// match on title/description) yet touches no test file.
func (e *Engine) missingBugfixTests(pr models.PullRequest, changes []models.Change) bool {
	if !e.cfg.Review.RequireTestsForBugfix {
		return false
	}
	text := strings.ToLower(pr.Title + " " + pr.Description)
	matched := false
	for _, kw := range e.cfg.Review.BugfixKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, c := range changes {
		if c.IsTestFile {
			return false
		}
	}
	return true
}

func (e *Engine) record(ctx context.Context, repo models.Repository, prID int, res *Result) {
	if e.store == nil {
		return
	}
	_, err := e.store.Record(ctx, models.ReviewRecord{
		Repository:   repo.Key(),
		PullRequest:  prID,
		Severity:     res.Verdict.Severity,
		Approved:     res.Verdict.Approved,
		Vote:         res.Vote,
		CommentCount: len(res.Verdict.Comments),
		Summary:      res.Verdict.Summary,
	})
	if err != nil {
		slog.Warn("failed to record review history", "pr", prID, "error", err)
	}
}

func (e *Engine) dispatch(ctx context.Context, repo models.Repository, res *Result) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, notify.Event{
		Repository:  repo.Key(),
		PullRequest: res.PR.ID,
		Title:       res.PR.Title,
		Severity:    res.Verdict.Severity,
		Vote:        res.Vote,
		Summary:     res.Verdict.Summary,
		URL:         res.PR.URL,
	})
}

// escalate raises the verdict severity to at least sev and drops approval
// for anything worse than minor.
func escalate(v *models.ReviewVerdict, sev models.ReviewSeverity) {
	if severityRank(sev) > severityRank(v.Severity) {
		v.Severity = sev
	}
	if severityRank(v.Severity) >= severityRank(models.SeverityMajor) {
		v.Approved = false
	}
}

func severityRank(sev models.ReviewSeverity) int {
	switch sev {
	case models.SeverityCritical:
		return 3
	case models.SeverityMajor:
		return 2
	case models.SeverityMinor:
		return 1
	default:
		return 0
	}
}
