package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/CosmoTheDev/prreview-agent/internal/review"
	"github.com/CosmoTheDev/prreview-agent/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func severityStyleFor(sev models.ReviewSeverity) lipgloss.Style {
	switch sev {
	case models.SeverityCritical:
		return errStyle
	case models.SeverityMajor:
		return warnStyle
	case models.SeverityApproved:
		return okStyle
	default:
		return dimStyle
	}
}

func printPreview(res *review.Result) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("Review preview — PR #%d: %s", res.PR.ID, res.PR.Title)))
	fmt.Printf("%s  %s\n",
		severityStyleFor(res.Verdict.Severity).Render("Severity: "+string(res.Verdict.Severity)),
		dimStyle.Render(fmt.Sprintf("vote %d, %d file(s) changed", res.Vote, res.Changes)))
	fmt.Println()

	for _, c := range res.Verdict.Comments {
		loc := "general"
		if c.FilePath != "" && c.LineNumber > 0 {
			loc = fmt.Sprintf("%s:%d", c.FilePath, c.LineNumber)
		}
		fmt.Printf("  %s %s\n", dimStyle.Render(loc), c.Content)
	}
	if len(res.Verdict.Comments) > 0 {
		fmt.Println()
	}

	fmt.Println(res.Summary)
}

func printOutcome(res *review.Result) {
	if res.Posting.Duplicate {
		fmt.Println(dimStyle.Render(fmt.Sprintf("PR #%d was already reviewed in this session, nothing posted.", res.PR.ID)))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Reviewed PR #%d: %s", res.PR.ID, res.PR.Title)))
	fmt.Printf("  Severity : %s\n", severityStyleFor(res.Verdict.Severity).Render(string(res.Verdict.Severity)))
	fmt.Printf("  Vote     : %d\n", res.Vote)
	fmt.Printf("  Comments : %d posted\n", res.Posting.CommentsPosted)
	if len(res.Posting.Errors) > 0 {
		fmt.Println(errStyle.Render(fmt.Sprintf("  %d operation(s) failed:", len(res.Posting.Errors))))
		for _, e := range res.Posting.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}
}
