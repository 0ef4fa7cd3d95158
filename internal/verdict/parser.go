// Package verdict normalises the reviewing agent's output and derives the
// publishable review from it: parsing into a canonical verdict, comment
// consolidation by location, and the severity-to-vote mapping.
package verdict

import (
	"encoding/json"
	"strings"

	"github.com/CosmoTheDev/prreview-agent/models"
)

const (
	defaultSummary    = "Review completed"
	unparsableSummary = "Could not parse review response"
)

// Parse normalises raw agent output into a ReviewVerdict. It never fails:
// missing fields fall back to safe defaults, and input that is not a JSON
// object at all yields a full-default verdict flagged as unparsable.
func Parse(raw string) models.ReviewVerdict {
	verdict := models.ReviewVerdict{
		Approved:        false,
		Severity:        models.SeverityMinor,
		Summary:         defaultSummary,
		Comments:        []models.RawComment{},
		TestSuggestions: []models.TestSuggestion{},
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(raw)), &obj); err != nil {
		verdict.Summary = unparsableSummary
		return verdict
	}

	if v, ok := obj["approved"]; ok {
		var approved bool
		if json.Unmarshal(v, &approved) == nil {
			verdict.Approved = approved
		}
	}
	if v, ok := obj["severity"]; ok {
		var severity string
		if json.Unmarshal(v, &severity) == nil && severity != "" {
			verdict.Severity = models.ReviewSeverity(strings.ToLower(severity))
		}
	}
	if v, ok := obj["summary"]; ok {
		var summary string
		if json.Unmarshal(v, &summary) == nil && summary != "" {
			verdict.Summary = summary
		}
	}
	if v, ok := obj["comments"]; ok {
		verdict.Comments = parseComments(v)
	}
	if v, ok := obj["test_suggestions"]; ok {
		verdict.TestSuggestions = parseTestSuggestions(v)
	}

	return verdict
}

func parseComments(raw json.RawMessage) []models.RawComment {
	var entries []struct {
		FilePath   string `json:"file_path"`
		File       string `json:"file"`
		LineNumber int    `json:"line_number"`
		Line       int    `json:"line"`
		Content    string `json:"content"`
		Severity   string `json:"severity"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []models.RawComment{}
	}

	out := make([]models.RawComment, 0, len(entries))
	for _, e := range entries {
		path := e.FilePath
		if path == "" {
			path = e.File
		}
		line := e.LineNumber
		if line == 0 {
			line = e.Line
		}
		out = append(out, models.RawComment{
			FilePath:   path,
			LineNumber: line,
			Content:    e.Content,
			Severity:   models.MapCommentSeverity(e.Severity),
		})
	}
	return out
}

type rawSuggestion struct {
	TestName    string `json:"test_name"`
	Description string `json:"description"`
	TestCode    string `json:"test_code"`
	FilePath    string `json:"file_path"`
}

// parseTestSuggestions accepts both shapes the agent produces: a flat list
// of suggestions, or a mapping of file path to suggestion list. Entries
// from the grouped form inherit the owning file path when they lack one.
func parseTestSuggestions(raw json.RawMessage) []models.TestSuggestion {
	var flat []rawSuggestion
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flattenSuggestions("", flat)
	}

	var grouped map[string][]rawSuggestion
	if err := json.Unmarshal(raw, &grouped); err == nil {
		out := []models.TestSuggestion{}
		for _, file := range sortedKeys(grouped) {
			out = append(out, flattenSuggestions(file, grouped[file])...)
		}
		return out
	}

	return []models.TestSuggestion{}
}

func flattenSuggestions(file string, entries []rawSuggestion) []models.TestSuggestion {
	out := make([]models.TestSuggestion, 0, len(entries))
	for _, e := range entries {
		path := e.FilePath
		if path == "" {
			path = file
		}
		out = append(out, models.TestSuggestion{
			TestName:    e.TestName,
			Description: e.Description,
			TestCode:    e.TestCode,
			FilePath:    path,
		})
	}
	return out
}

// stripFences removes a surrounding markdown code fence so fenced agent
// output still parses.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
