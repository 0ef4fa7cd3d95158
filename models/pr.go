package models

import (
	"fmt"
	"time"
)

// Repository identifies a repository on a hosting provider.
type Repository struct {
	Provider string `json:"provider"` // azure | github | gitlab
	Host     string `json:"host,omitempty"`
	Org      string `json:"org,omitempty"`     // Azure DevOps organisation, or owner/group for github/gitlab
	Project  string `json:"project,omitempty"` // Azure DevOps project
	Name     string `json:"name"`              // bare repository name or id
}

// Key returns a stable identity string for publication bookkeeping.
func (r Repository) Key() string {
	return fmt.Sprintf("%s:%s:%s:%s", r.Provider, r.Org, r.Project, r.Name)
}

// PullRequest holds the metadata the review pipeline needs about one PR.
type PullRequest struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	SourceBranch string    `json:"source_branch"`
	TargetBranch string    `json:"target_branch"`
	Author       string    `json:"author"`
	Status       string    `json:"status"` // active | completed | abandoned
	URL          string    `json:"url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	// Reason explains why the PR needs attention when listed by the
	// needs-review filter (no vote yet, waiting on reviewer, ...).
	Reason string `json:"reason,omitempty"`
}

// PRKey identifies one pull request for at-most-once publication.
type PRKey struct {
	Repository  string `json:"repository"`
	PullRequest int    `json:"pull_request"`
}

func (k PRKey) String() string {
	return fmt.Sprintf("%s#%d", k.Repository, k.PullRequest)
}
