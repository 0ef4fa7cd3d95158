package verdict

import "github.com/CosmoTheDev/prreview-agent/models"

// Vote values follow the Azure DevOps reviewer-vote scale; the GitHub and
// GitLab providers translate them to their own review events.
const (
	VoteApproved            = 10
	VoteApprovedSuggestions = 5
	VoteNone                = 0
	VoteWaitingForAuthor    = -5
	VoteRejected            = -10
)

// DecideVote maps a verdict to a reviewer vote. The table is evaluated in
// order: the approved check runs first, so an approved/minor verdict wins
// the full approval even though "minor" alone maps lower. Unknown
// severities cast no vote.
func DecideVote(approved bool, severity models.ReviewSeverity) int {
	switch {
	case approved && (severity == models.SeverityApproved || severity == models.SeverityMinor):
		return VoteApproved
	case severity == models.SeverityMinor:
		return VoteApprovedSuggestions
	case severity == models.SeverityMajor:
		return VoteWaitingForAuthor
	case severity == models.SeverityCritical:
		return VoteRejected
	default:
		return VoteNone
	}
}
