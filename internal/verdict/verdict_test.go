package verdict

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmoTheDev/prreview-agent/models"
)

func TestParseComplete(t *testing.T) {
	raw := `{
		"approved": true,
		"severity": "approved",
		"summary": "Looks good",
		"comments": [
			{"file_path": "a.cs", "line_number": 10, "content": "x", "severity": "warning"}
		],
		"test_suggestions": [
			{"test_name": "OrderTests.PlacesOrder", "description": "happy path"}
		]
	}`

	v := Parse(raw)

	assert.True(t, v.Approved)
	assert.Equal(t, models.SeverityApproved, v.Severity)
	assert.Equal(t, "Looks good", v.Summary)
	require.Len(t, v.Comments, 1)
	assert.Equal(t, models.CommentWarning, v.Comments[0].Severity)
	require.Len(t, v.TestSuggestions, 1)
}

func TestParseDefaults(t *testing.T) {
	v := Parse(`{}`)

	assert.False(t, v.Approved)
	assert.Equal(t, models.SeverityMinor, v.Severity)
	assert.Equal(t, "Review completed", v.Summary)
	assert.Empty(t, v.Comments)
	assert.Empty(t, v.TestSuggestions)
}

func TestParseNotAnObject(t *testing.T) {
	for _, raw := range []string{"not json", `"just a string"`, `[1,2,3]`, ""} {
		v := Parse(raw)
		assert.False(t, v.Approved)
		assert.Equal(t, models.SeverityMinor, v.Severity)
		assert.Equal(t, "Could not parse review response", v.Summary, "input %q", raw)
		assert.Empty(t, v.Comments)
	}
}

func TestParseFencedJSON(t *testing.T) {
	raw := "```json\n{\"approved\": true, \"severity\": \"approved\"}\n```"
	v := Parse(raw)
	assert.True(t, v.Approved)
}

func TestParseTestSuggestionForms(t *testing.T) {
	flat := `{"test_suggestions": [
		{"test_name": "T1", "file_path": "a.cs"},
		{"test_name": "T2", "file_path": "b.cs"}
	]}`
	grouped := `{"test_suggestions": {
		"a.cs": [{"test_name": "T1"}],
		"b.cs": [{"test_name": "T2"}]
	}}`

	vFlat := Parse(flat)
	vGrouped := Parse(grouped)

	// Grouped entries inherit the owning file path; both forms flatten to
	// the same list.
	assert.Equal(t, vFlat.TestSuggestions, vGrouped.TestSuggestions)
	require.Len(t, vGrouped.TestSuggestions, 2)
	assert.Equal(t, "a.cs", vGrouped.TestSuggestions[0].FilePath)
}

func TestParseGroupedSuggestionKeepsExplicitPath(t *testing.T) {
	raw := `{"test_suggestions": {"a.cs": [{"test_name": "T1", "file_path": "other.cs"}]}}`
	v := Parse(raw)
	require.Len(t, v.TestSuggestions, 1)
	assert.Equal(t, "other.cs", v.TestSuggestions[0].FilePath)
}

func TestConsolidateScenario(t *testing.T) {
	comments := []models.RawComment{
		{FilePath: "a.cs", LineNumber: 10, Content: "x", Severity: models.CommentWarning},
		{FilePath: "a.cs", LineNumber: 10, Content: "y", Severity: models.CommentError},
	}

	c := Consolidate(comments)

	assert.Empty(t, c.General)
	require.Len(t, c.Located, 1)
	merged := c.Located[0]
	assert.Equal(t, "a.cs", merged.FilePath)
	assert.Equal(t, 10, merged.LineNumber)
	assert.Contains(t, merged.Content, "x")
	assert.Contains(t, merged.Content, "y")
	assert.Contains(t, merged.Content, "Multiple issues found")
	assert.Equal(t, models.CommentError, merged.Severity)
}

func TestConsolidateGeneralRouting(t *testing.T) {
	comments := []models.RawComment{
		{Content: "no location", Severity: models.CommentInfo},
		{FilePath: "a.cs", LineNumber: 0, Content: "zero line", Severity: models.CommentInfo},
		{FilePath: "a.cs", LineNumber: -3, Content: "negative line", Severity: models.CommentInfo},
		{LineNumber: 7, Content: "no path", Severity: models.CommentInfo},
		{FilePath: "a.cs", LineNumber: 7, Content: "real", Severity: models.CommentInfo},
	}

	c := Consolidate(comments)

	assert.Len(t, c.General, 4)
	require.Len(t, c.Located, 1)
	assert.Equal(t, "**[INFO]**: real", c.Located[0].Content)
}

func TestConsolidateUniqueLocations(t *testing.T) {
	var comments []models.RawComment
	for i := 0; i < 20; i++ {
		comments = append(comments, models.RawComment{
			FilePath:   fmt.Sprintf("f%d.cs", i%4),
			LineNumber: i%3 + 1,
			Content:    fmt.Sprintf("c%d", i),
			Severity:   models.CommentInfo,
		})
	}

	c := Consolidate(comments)

	seen := make(map[string]bool)
	for _, loc := range c.Located {
		key := fmt.Sprintf("%s:%d", loc.FilePath, loc.LineNumber)
		assert.False(t, seen[key], "duplicate location %s", key)
		seen[key] = true
	}
}

func TestConsolidateSingleCommentFormat(t *testing.T) {
	c := Consolidate([]models.RawComment{
		{FilePath: "a.cs", LineNumber: 3, Content: "check nil", Severity: models.CommentWarning},
	})

	require.Len(t, c.Located, 1)
	assert.Equal(t, "**[WARNING]**: check nil", c.Located[0].Content)
	assert.Equal(t, models.CommentWarning, c.Located[0].Severity)
}

func TestDecideVote(t *testing.T) {
	tests := []struct {
		approved bool
		severity models.ReviewSeverity
		want     int
	}{
		{true, models.SeverityApproved, 10},
		{true, models.SeverityMinor, 10},
		{false, models.SeverityMinor, 5},
		{true, models.SeverityMajor, -5},
		{false, models.SeverityMajor, -5},
		{false, models.SeverityCritical, -10},
		{true, models.SeverityCritical, -10},
		{false, models.ReviewSeverity("unknown"), 0},
		{false, models.SeverityApproved, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/%s", tt.approved, tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.want, DecideVote(tt.approved, tt.severity))
		})
	}
}

func TestParseVoteRoundTrip(t *testing.T) {
	v := Parse(`{"approved": false, "severity": "major"}`)
	assert.Equal(t, -5, DecideVote(v.Approved, v.Severity))
}
