package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmoTheDev/prreview-agent/internal/classify"
	"github.com/CosmoTheDev/prreview-agent/models"
)

func samplePR() models.PullRequest {
	return models.PullRequest{
		ID:           42,
		Title:        "Add order service",
		Description:  "Implements order placement",
		SourceBranch: "refs/heads/feature/orders",
		TargetBranch: "refs/heads/main",
	}
}

func TestBuildSectionOrder(t *testing.T) {
	changes := []models.Change{
		{Path: "src/OrderService.cs", ChangeType: models.ChangeAdd, NewContent: "class OrderService {}"},
	}
	groups := classify.AnalyzeSet(changes)
	depSummary := models.DependencySummary{
		TotalPackagesExamined: 3,
		PackagesByType:        map[string]int{"javascript": 3},
		VulnerablePackages:    1,
		VulnerableList:        []string{"lodash 4.17.20 (javascript): CVE-2021-23337"},
		HasIssues:             true,
	}
	findings := []models.SecurityFinding{
		{FilePath: "src/OrderService.cs", LineNumber: 5, Content: "CRITICAL SECURITY: x"},
	}

	out := NewAssembler("").Build(samplePR(), changes, groups, depSummary, findings)

	idx := func(s string) int { return strings.Index(out, s) }
	require.GreaterOrEqual(t, idx("Pull Request #42"), 0)
	assert.Less(t, idx("Pull Request #42"), idx("### File Type Summary:"))
	assert.Less(t, idx("### File Type Summary:"), idx("### Dependency Analysis:"))
	assert.Less(t, idx("### Dependency Analysis:"), idx("### Security Findings:"))
	assert.Less(t, idx("### Security Findings:"), idx("### File Changes:"))
	assert.Less(t, idx("### File Changes:"), idx("### Review Instructions:"))
}

func TestBuildDeterministic(t *testing.T) {
	changes := []models.Change{
		{Path: "src/A.cs", ChangeType: models.ChangeAdd, NewContent: "a"},
		{Path: "web/b.ts", ChangeType: models.ChangeAdd, NewContent: "b"},
		{Path: "README.md", ChangeType: models.ChangeAdd, NewContent: "c"},
	}
	groups := classify.AnalyzeSet(changes)

	first := NewAssembler("").Build(samplePR(), changes, groups, models.DependencySummary{}, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, NewAssembler("").Build(samplePR(), changes, groups, models.DependencySummary{}, nil))
	}
}

func TestBuildVulnerableListCap(t *testing.T) {
	var list []string
	for i := 0; i < 8; i++ {
		list = append(list, fmt.Sprintf("pkg%d 1.0.0 (javascript): CVE-2024-%04d", i, i))
	}
	depSummary := models.DependencySummary{
		TotalPackagesExamined: 8,
		PackagesByType:        map[string]int{"javascript": 8},
		VulnerablePackages:    8,
		VulnerableList:        list,
		HasIssues:             true,
	}

	out := NewAssembler("").Build(samplePR(), nil, map[models.FileCategory][]string{}, depSummary, nil)

	assert.Contains(t, out, "pkg4")
	assert.NotContains(t, out, "pkg5")
	assert.Contains(t, out, "... and 3 more")
}

func TestBuildFindingsPerFileCap(t *testing.T) {
	var findings []models.SecurityFinding
	for i := 1; i <= 12; i++ {
		findings = append(findings, models.SecurityFinding{
			FilePath: "src/A.cs", LineNumber: i, Content: fmt.Sprintf("issue %d", i),
		})
	}

	out := NewAssembler("").Build(samplePR(), nil, map[models.FileCategory][]string{}, models.DependencySummary{}, findings)

	assert.Contains(t, out, "Line 10:")
	assert.NotContains(t, out, "Line 11:")
	assert.Contains(t, out, "... and 2 more")
}

func TestBuildAddedContentCap(t *testing.T) {
	changes := []models.Change{
		{Path: "src/Big.cs", ChangeType: models.ChangeAdd, NewContent: strings.Repeat("x", 12000)},
	}
	groups := classify.AnalyzeSet(changes)

	out := NewAssembler("").Build(samplePR(), changes, groups, models.DependencySummary{}, nil)

	assert.Contains(t, out, strings.Repeat("x", 10000))
	assert.NotContains(t, out, strings.Repeat("x", 10001))
}

func TestLineDiff(t *testing.T) {
	before := "a\nb\nc"
	after := "a\nB\nc\nd"

	diff := lineDiff(before, after)
	lines := strings.Split(diff, "\n")

	assert.Equal(t, "  a", lines[0])
	assert.Equal(t, "- b", lines[1])
	assert.Equal(t, "+ B", lines[2])
	assert.Equal(t, "  c", lines[3])
	assert.Equal(t, "+ d", lines[4])
}

func TestLineDiffTruncation(t *testing.T) {
	var oldLines, newLines []string
	for i := 0; i < 600; i++ {
		oldLines = append(oldLines, fmt.Sprintf("line%d", i))
		newLines = append(newLines, fmt.Sprintf("line%d!", i))
	}

	diff := lineDiff(strings.Join(oldLines, "\n"), strings.Join(newLines, "\n"))

	assert.Equal(t, 1, strings.Count(diff, "... (diff truncated)"))
	assert.Contains(t, diff, "- line499")
	assert.NotContains(t, diff, "line500\n")
}

func TestInstructionsDominant(t *testing.T) {
	changes := []models.Change{{Path: "src/A.cs"}, {Path: "src/B.cs"}}

	out := NewAssembler("").Instructions(changes)

	assert.Contains(t, out, "# Csharp Code Review")
	assert.Contains(t, out, "SOLID principles")
	assert.Contains(t, out, "## Response Format")
}

func TestInstructionsMixed(t *testing.T) {
	changes := []models.Change{{Path: "src/A.cs"}, {Path: "web/b.ts"}}

	out := NewAssembler("").Instructions(changes)

	assert.Contains(t, out, "# Multi-Type Code Review")
	assert.Contains(t, out, "### Csharp Files:")
	assert.Contains(t, out, "### Typescript Files:")
	assert.Contains(t, out, "## Response Format")
}

func TestInstructionsEmptyChangeSet(t *testing.T) {
	out := NewAssembler("").Instructions(nil)
	assert.Contains(t, out, "# Code Review")
	assert.Contains(t, out, "## Response Format")
}

func TestInstructionsCustomTemplateOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.txt")
	require.NoError(t, os.WriteFile(path, []byte("MY CUSTOM REVIEW RULES"), 0o600))

	changes := []models.Change{{Path: "src/A.cs"}, {Path: "web/b.ts"}}
	out := NewAssembler(path).Instructions(changes)

	assert.Equal(t, "MY CUSTOM REVIEW RULES", out)
}

func TestInstructionsCustomTemplateMissingFallsBack(t *testing.T) {
	changes := []models.Change{{Path: "src/A.cs"}}
	out := NewAssembler("/nonexistent/custom.txt").Instructions(changes)
	assert.Contains(t, out, "# Csharp Code Review")
}
