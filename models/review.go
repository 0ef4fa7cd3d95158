package models

import "time"

// RawComment is a single comment as returned by the reviewing agent (or
// injected by the security scanner) before consolidation.
type RawComment struct {
	FilePath   string          `json:"file_path,omitempty"`
	LineNumber int             `json:"line_number,omitempty"`
	Content    string          `json:"content"`
	Severity   CommentSeverity `json:"severity"`
	IssueType  string          `json:"issue_type,omitempty"`
}

// TestSuggestion is a stubbed test case the agent recommends adding.
type TestSuggestion struct {
	TestName    string `json:"test_name"`
	Description string `json:"description"`
	TestCode    string `json:"test_code,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
}

// ReviewVerdict is the reviewing agent's structured output, normalised.
// Produced once per invocation and never mutated; consolidation derives
// a ConsolidatedComment list from it.
type ReviewVerdict struct {
	Approved        bool             `json:"approved"`
	Severity        ReviewSeverity   `json:"severity"`
	Summary         string           `json:"summary"`
	Comments        []RawComment     `json:"comments"`
	TestSuggestions []TestSuggestion `json:"test_suggestions"`
}

// ConsolidatedComment is the merge of all raw comments at one location.
// A zero FilePath marks a general comment, routed to the summary instead
// of an inline thread.
type ConsolidatedComment struct {
	FilePath   string          `json:"file_path,omitempty"`
	LineNumber int             `json:"line_number,omitempty"`
	Content    string          `json:"content"`
	Severity   CommentSeverity `json:"severity"`
}

// General reports whether the comment has no file location.
func (c ConsolidatedComment) General() bool {
	return c.FilePath == "" || c.LineNumber <= 0
}

// PostingResult reports the outcome of publishing one review.
type PostingResult struct {
	CommentsPosted int      `json:"comments_posted"`
	VoteUpdated    bool     `json:"vote_updated"`
	Duplicate      bool     `json:"duplicate"`
	Errors         []string `json:"errors"`
}

// ReviewRecord is one published review as persisted to the history store.
type ReviewRecord struct {
	ID           int64          `json:"id"            db:"id"`
	Repository   string         `json:"repository"    db:"repository"`
	PullRequest  int            `json:"pull_request"  db:"pull_request"`
	Severity     ReviewSeverity `json:"severity"      db:"severity"`
	Approved     bool           `json:"approved"      db:"approved"`
	Vote         int            `json:"vote"          db:"vote"`
	CommentCount int            `json:"comment_count" db:"comment_count"`
	Summary      string         `json:"summary"       db:"summary"`
	ReviewedAt   time.Time      `json:"reviewed_at"   db:"reviewed_at"`
}
