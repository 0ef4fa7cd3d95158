package verdict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/CosmoTheDev/prreview-agent/models"
)

// Consolidation separates general comments from located ones, with every
// location reduced to exactly one comment.
type Consolidation struct {
	General []models.RawComment
	Located []models.ConsolidatedComment
}

// Consolidate groups raw comments by (file, line). A comment with no file
// path, no line number, or a non-positive line number is general and ends
// up in the summary instead of an inline thread. Multiple comments at one
// location merge into a single message with per-comment severity prefixes;
// the merged severity is the maximum over info < warning < error. The
// result never holds two located comments with the same key, so the
// hosting service never receives duplicate threads on a line.
func Consolidate(comments []models.RawComment) Consolidation {
	var c Consolidation

	byLocation := make(map[string][]models.RawComment)
	var order []string

	for _, comment := range comments {
		if comment.FilePath == "" || comment.LineNumber <= 0 {
			c.General = append(c.General, comment)
			continue
		}
		key := fmt.Sprintf("%s:%d", comment.FilePath, comment.LineNumber)
		if _, seen := byLocation[key]; !seen {
			order = append(order, key)
		}
		byLocation[key] = append(byLocation[key], comment)
	}

	sort.Strings(order)
	for _, key := range order {
		group := byLocation[key]
		c.Located = append(c.Located, mergeLocation(group))
	}

	return c
}

func mergeLocation(group []models.RawComment) models.ConsolidatedComment {
	first := group[0]
	if len(group) == 1 {
		return models.ConsolidatedComment{
			FilePath:   first.FilePath,
			LineNumber: first.LineNumber,
			Content:    FormatComment(first),
			Severity:   first.Severity,
		}
	}

	highest := models.CommentInfo
	parts := make([]string, 0, len(group))
	for _, comment := range group {
		highest = models.MaxCommentSeverity(highest, comment.Severity)
		parts = append(parts, fmt.Sprintf("[%s] %s", strings.ToUpper(comment.Severity.String()), comment.Content))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**[%s]**: Multiple issues found:\n", strings.ToUpper(highest.String()))
	for _, p := range parts {
		fmt.Fprintf(&b, "• %s\n", p)
	}

	return models.ConsolidatedComment{
		FilePath:   first.FilePath,
		LineNumber: first.LineNumber,
		Content:    strings.TrimSuffix(b.String(), "\n"),
		Severity:   highest,
	}
}

// FormatComment renders a single comment with its severity tag.
func FormatComment(c models.RawComment) string {
	return fmt.Sprintf("**[%s]**: %s", strings.ToUpper(c.Severity.String()), c.Content)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
