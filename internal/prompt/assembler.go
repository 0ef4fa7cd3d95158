// Package prompt assembles the review context sent to the external
// reviewing agent: PR identity, category breakdown, dependency and
// security analysis, capped per-file diffs, and category-appropriate
// instructions.
package prompt

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/CosmoTheDev/prreview-agent/internal/classify"
	"github.com/CosmoTheDev/prreview-agent/models"
)

const (
	maxVulnerableShown  = 5
	maxFindingsPerFile  = 10
	maxAddedContent     = 10000
	maxDiffLinePairs    = 500
)

// Assembler builds review prompts. A configured custom prompt file
// replaces all per-category instruction selection wholesale.
type Assembler struct {
	customPromptFile string
}

// NewAssembler returns an Assembler. customPromptFile may be empty.
func NewAssembler(customPromptFile string) *Assembler {
	return &Assembler{customPromptFile: customPromptFile}
}

// Build composes the full review context. Section order is fixed so the
// same inputs always produce the same prompt.
func (a *Assembler) Build(
	pr models.PullRequest,
	changes []models.Change,
	groups map[models.FileCategory][]string,
	depSummary models.DependencySummary,
	findings []models.SecurityFinding,
) string {
	var b strings.Builder

	description := pr.Description
	if description == "" {
		description = "No description provided"
	}
	fmt.Fprintf(&b, "Pull Request #%d: %s\n", pr.ID, pr.Title)
	fmt.Fprintf(&b, "Description: %s\n", description)
	fmt.Fprintf(&b, "Source Branch: %s\n", pr.SourceBranch)
	fmt.Fprintf(&b, "Target Branch: %s\n", pr.TargetBranch)

	b.WriteString("\n### File Type Summary:\n")
	for _, cat := range orderedCategories(groups) {
		fmt.Fprintf(&b, "- %s: %d file(s)\n", cat, len(groups[cat]))
	}

	writeDependencySection(&b, depSummary)
	writeSecuritySection(&b, findings)

	b.WriteString("\n### File Changes:\n")
	byPath := make(map[string]models.Change, len(changes))
	for _, c := range changes {
		byPath[c.Path] = c
	}
	for _, cat := range orderedCategories(groups) {
		fmt.Fprintf(&b, "\n#### %s Files:\n", categoryTitle(cat))
		paths := append([]string(nil), groups[cat]...)
		sort.Strings(paths)
		for _, p := range paths {
			if c, ok := byPath[p]; ok {
				writeChange(&b, c)
			}
		}
	}

	b.WriteString("\n### Review Instructions:\n")
	b.WriteString(a.Instructions(changes))

	return b.String()
}

// Instructions selects the instruction block for a change set: the custom
// template if configured, a combined block when mixed review is needed,
// the dominant category's full text otherwise.
func (a *Assembler) Instructions(changes []models.Change) string {
	if a.customPromptFile != "" {
		data, err := os.ReadFile(a.customPromptFile)
		if err == nil {
			return string(data)
		}
		slog.Warn("Failed to load custom prompt file, falling back to category prompts",
			"path", a.customPromptFile, "error", err)
	}

	if len(changes) == 0 {
		return defaultInstructions()
	}
	if classify.NeedsMixedReview(changes) {
		return combinedInstructions(classify.AnalyzeSet(changes))
	}
	return fullInstructions(classify.Dominant(changes))
}

// combinedInstructions emits a mixed-review block with condensed guidance
// for each significant category present.
func combinedInstructions(groups map[models.FileCategory][]string) string {
	var b strings.Builder
	b.WriteString("# Multi-Type Code Review\n\n")
	b.WriteString("This PR contains multiple file types. Review each according to its specific requirements.\n\n")

	b.WriteString("## Files by Type:\n")
	for _, cat := range orderedCategories(groups) {
		fmt.Fprintf(&b, "- **%s**: %d file(s)\n", cat, len(groups[cat]))
	}

	b.WriteString("\n## Review Guidelines:\n\n")
	for _, cat := range classify.SignificantCategories() {
		if len(groups[cat]) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s Files:\n", categoryTitle(cat))
		guidance, ok := condensedGuidelines[cat]
		if !ok {
			guidance = defaultGuidelines
		}
		b.WriteString(guidance)
		b.WriteString("\n")
	}

	b.WriteString(responseFormat)
	return b.String()
}

func writeDependencySection(b *strings.Builder, s models.DependencySummary) {
	if s.TotalPackagesExamined == 0 {
		return
	}
	b.WriteString("\n### Dependency Analysis:\n")
	fmt.Fprintf(b, "Packages examined: %d\n", s.TotalPackagesExamined)
	for _, eco := range sortedKeys(s.PackagesByType) {
		fmt.Fprintf(b, "- %s: %d package(s)\n", eco, s.PackagesByType[eco])
	}
	if s.HasIssues {
		fmt.Fprintf(b, "VULNERABLE PACKAGES: %d\n", s.VulnerablePackages)
		shown := s.VulnerableList
		if len(shown) > maxVulnerableShown {
			shown = shown[:maxVulnerableShown]
		}
		for _, v := range shown {
			fmt.Fprintf(b, "- %s\n", v)
		}
		if rest := len(s.VulnerableList) - maxVulnerableShown; rest > 0 {
			fmt.Fprintf(b, "- ... and %d more\n", rest)
		}
	} else {
		b.WriteString("No known-vulnerable packages detected.\n")
	}
}

func writeSecuritySection(b *strings.Builder, findings []models.SecurityFinding) {
	if len(findings) == 0 {
		return
	}
	byFile := make(map[string][]models.SecurityFinding)
	for _, f := range findings {
		byFile[f.FilePath] = append(byFile[f.FilePath], f)
	}

	b.WriteString("\n### Security Findings:\n")
	for _, file := range sortedKeys(byFile) {
		fs := byFile[file]
		fmt.Fprintf(b, "%s (%d issue(s)):\n", file, len(fs))
		shown := fs
		if len(shown) > maxFindingsPerFile {
			shown = shown[:maxFindingsPerFile]
		}
		for _, f := range shown {
			fmt.Fprintf(b, "- Line %d: %s\n", f.LineNumber, f.Content)
		}
		if rest := len(fs) - maxFindingsPerFile; rest > 0 {
			fmt.Fprintf(b, "- ... and %d more\n", rest)
		}
	}
}

func writeChange(b *strings.Builder, c models.Change) {
	switch c.ChangeType {
	case models.ChangeDelete:
		fmt.Fprintf(b, "\n**Deleted**: %s\n", c.Path)
	case models.ChangeAdd:
		fmt.Fprintf(b, "\n**Added**: %s\n", c.Path)
		if c.NewContent != "" {
			content := c.NewContent
			if len(content) > maxAddedContent {
				content = content[:maxAddedContent]
			}
			fmt.Fprintf(b, "```\n%s\n```\n", content)
		}
	case models.ChangeEdit:
		fmt.Fprintf(b, "\n**Modified**: %s\n", c.Path)
		if c.OldContent != "" && c.NewContent != "" {
			b.WriteString("\nChanges:\n")
			fmt.Fprintf(b, "```diff\n%s\n```\n", lineDiff(c.OldContent, c.NewContent))
		}
	}
}

// lineDiff produces a simple line-aligned diff: unchanged lines prefixed
// with two spaces, removals with "-", additions with "+", capped at
// maxDiffLinePairs with a single truncation note.
func lineDiff(oldContent, newContent string) string {
	oldLines := strings.Split(oldContent, "\n")
	newLines := strings.Split(newContent, "\n")

	var out []string
	total := max(len(oldLines), len(newLines))
	limit := min(total, maxDiffLinePairs)

	for i := 0; i < limit; i++ {
		switch {
		case i < len(oldLines) && i < len(newLines):
			if oldLines[i] != newLines[i] {
				out = append(out, "- "+oldLines[i], "+ "+newLines[i])
			} else {
				out = append(out, "  "+oldLines[i])
			}
		case i < len(oldLines):
			out = append(out, "- "+oldLines[i])
		default:
			out = append(out, "+ "+newLines[i])
		}
	}
	if total > maxDiffLinePairs {
		out = append(out, "... (diff truncated)")
	}
	return strings.Join(out, "\n")
}

// orderedCategories returns the groups' keys in deterministic order:
// significant categories first in priority order, then the rest sorted.
func orderedCategories(groups map[models.FileCategory][]string) []models.FileCategory {
	var out []models.FileCategory
	seen := make(map[models.FileCategory]bool)

	for _, cat := range classify.SignificantCategories() {
		if len(groups[cat]) > 0 {
			out = append(out, cat)
			seen[cat] = true
		}
	}

	var rest []models.FileCategory
	for cat, files := range groups {
		if !seen[cat] && len(files) > 0 {
			rest = append(rest, cat)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
