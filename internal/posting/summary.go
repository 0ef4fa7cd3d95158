package posting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/CosmoTheDev/prreview-agent/models"
)

const summaryFooter = "---\n*This review was generated automatically by prreview*"

// FormatSummary renders the markdown summary comment for a review. General
// comments (those without a usable file location) are folded into the summary
// instead of being posted as threads.
func FormatSummary(v models.ReviewVerdict, general []models.RawComment, packages *models.DependencySummary) string {
	// A model occasionally returns a fully formed report as the summary.
	// Pass it through rather than wrapping it in our own sections.
	if strings.Contains(v.Summary, "FILES CHANGED:") && strings.Contains(v.Summary, "ISSUES FOUND:") {
		return fmt.Sprintf("## Automated Code Review Results\n\n%s\n\n%s", v.Summary, summaryFooter)
	}

	lines := []string{
		"## Automated Code Review Results",
		"",
		statusLine(v.Approved, v.Severity),
		"",
	}

	if packages != nil {
		lines = append(lines, packageSection(packages)...)
	}

	if len(general) > 0 {
		lines = append(lines, "### General Review Comments")
		for _, c := range general {
			lines = append(lines, fmt.Sprintf("**[%s]**: %s", strings.ToUpper(c.Severity.String()), c.Content))
		}
		lines = append(lines, "")
	}

	lines = append(lines, issueSection(v.Comments)...)

	if v.Summary != "" {
		lines = append(lines, "### Summary", v.Summary, "")
	}

	if len(v.Comments) > 0 {
		var errors, warnings, suggestions int
		for _, c := range v.Comments {
			switch c.Severity {
			case models.CommentError:
				errors++
			case models.CommentWarning:
				warnings++
			default:
				suggestions++
			}
		}
		lines = append(lines,
			"### Review Statistics",
			fmt.Sprintf("- Critical errors: %d", errors),
			fmt.Sprintf("- Warnings: %d", warnings),
			fmt.Sprintf("- Suggestions: %d", suggestions),
			"",
		)
	}

	if len(v.TestSuggestions) > 0 {
		lines = append(lines, testSection(v.TestSuggestions)...)
	}

	lines = append(lines, summaryFooter)
	return strings.Join(lines, "\n")
}

func statusLine(approved bool, severity models.ReviewSeverity) string {
	switch {
	case approved:
		return "**Review Status: APPROVED**"
	case severity == models.SeverityCritical:
		return "**Review Status: AUTOMATIC REJECTION (Critical Issues)**"
	case severity == models.SeverityMajor:
		return "**Review Status: CHANGES REQUIRED (Major Issues)**"
	case severity == models.SeverityMinor:
		return "**Review Status: APPROVED WITH SUGGESTIONS**"
	default:
		return "**Review Status: APPROVED**"
	}
}

func packageSection(s *models.DependencySummary) []string {
	lines := []string{
		"### Package Security Analysis",
		fmt.Sprintf("**Packages examined from all project folders: %d**", s.TotalPackagesExamined),
	}

	if len(s.PackagesByType) > 0 {
		lines = append(lines, "", "Package types analyzed:")
		types := make([]string, 0, len(s.PackagesByType))
		for t := range s.PackagesByType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			lines = append(lines, fmt.Sprintf("- %s: %d packages", t, s.PackagesByType[t]))
		}
	}

	if s.HasIssues {
		lines = append(lines, "", fmt.Sprintf("**CRITICAL: %d vulnerable package(s) found:**", s.VulnerablePackages))
		shown := s.VulnerableList
		if len(shown) > 3 {
			shown = shown[:3]
		}
		for _, v := range shown {
			lines = append(lines, fmt.Sprintf("- %s", v))
		}
		if len(s.VulnerableList) > 3 {
			lines = append(lines, fmt.Sprintf("- ... and %d more", len(s.VulnerableList)-3))
		}
	} else {
		lines = append(lines, "", "**Result: No package vulnerabilities detected**")
	}

	return append(lines, "")
}

func issueSection(comments []models.RawComment) []string {
	var located, security, testing []models.RawComment
	for _, c := range comments {
		if c.LineNumber <= 0 {
			continue
		}
		located = append(located, c)
		switch {
		case c.IssueType == "security":
			security = append(security, c)
		case c.IssueType == "missing_tests" || strings.Contains(strings.ToLower(c.Content), "test"):
			testing = append(testing, c)
		}
	}
	if len(located) == 0 {
		return nil
	}

	lines := []string{"### Line-Specific Issues Found"}

	if len(security) > 0 {
		lines = append(lines, fmt.Sprintf("**Security violations: %d**", len(security)))
		shown := security
		if len(shown) > 2 {
			shown = shown[:2]
		}
		for _, c := range shown {
			lines = append(lines, fmt.Sprintf("  - Line %d: %s", c.LineNumber, truncate(c.Content, 80)))
		}
	}
	if len(testing) > 0 {
		lines = append(lines, fmt.Sprintf("**Testing violations: %d**", len(testing)))
		lines = append(lines, "  - Bug fix lacks required regression tests")
	}
	if len(security) == 0 && len(testing) == 0 {
		lines = append(lines, fmt.Sprintf("**Code quality issues: %d**", len(located)))
	}

	return append(lines, "")
}

func testSection(suggestions []models.TestSuggestion) []string {
	lines := []string{
		"### Required Test Cases",
		fmt.Sprintf("The following %d test case(s) should be added:", len(suggestions)),
		"",
	}

	for i, s := range suggestions {
		name := s.TestName
		if name == "" {
			name = fmt.Sprintf("Test_%d", i+1)
		}
		lines = append(lines, fmt.Sprintf("#### %d. %s", i+1, name))
		if s.Description != "" {
			lines = append(lines, fmt.Sprintf("**Purpose:** %s", s.Description), "")
		}
		if s.TestCode != "" {
			lines = append(lines,
				"**Stubbed Implementation:**",
				"```csharp",
				strings.ReplaceAll(s.TestCode, `\n`, "\n"),
				"```",
			)
		}
		lines = append(lines, "")
	}

	return lines
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
