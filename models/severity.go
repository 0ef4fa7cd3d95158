package models

// CommentSeverity ranks an individual review comment.
type CommentSeverity string

const (
	CommentInfo    CommentSeverity = "info"
	CommentWarning CommentSeverity = "warning"
	CommentError   CommentSeverity = "error"
)

// Weight returns a numeric weight for comparison (higher = more severe).
func (s CommentSeverity) Weight() int {
	switch s {
	case CommentError:
		return 2
	case CommentWarning:
		return 1
	default:
		return 0
	}
}

func (s CommentSeverity) String() string {
	return string(s)
}

// MaxCommentSeverity returns the more severe of two comment severities.
func MaxCommentSeverity(a, b CommentSeverity) CommentSeverity {
	if b.Weight() > a.Weight() {
		return b
	}
	return a
}

// MapCommentSeverity normalises agent-supplied severity strings; anything
// unrecognised degrades to info rather than failing.
func MapCommentSeverity(raw string) CommentSeverity {
	switch raw {
	case "error", "ERROR":
		return CommentError
	case "warning", "WARNING", "warn":
		return CommentWarning
	default:
		return CommentInfo
	}
}

// ReviewSeverity classifies the overall verdict of a review.
type ReviewSeverity string

const (
	SeverityApproved ReviewSeverity = "approved"
	SeverityMinor    ReviewSeverity = "minor"
	SeverityMajor    ReviewSeverity = "major"
	SeverityCritical ReviewSeverity = "critical"
)

func (s ReviewSeverity) String() string {
	return string(s)
}
