package models

// ChangeType describes how a file was modified in a pull request.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeEdit   ChangeType = "edit"
	ChangeDelete ChangeType = "delete"
)

// Change is a single changed file in a pull request, as produced by the
// hosting provider. Folders never appear; content fields are empty strings
// (never absent) when a fetch fails so downstream scanners don't branch
// on presence.
type Change struct {
	Path         string     `json:"path"`
	ChangeType   ChangeType `json:"change_type"`
	OriginalPath string     `json:"original_path,omitempty"`
	OldContent   string     `json:"old_content"`
	NewContent   string     `json:"new_content"`
	IsTestFile   bool       `json:"is_test_file"`
}
