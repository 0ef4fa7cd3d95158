package models

// SecurityFinding is a single security-pattern detection at a specific line.
// At most one finding exists per (file path, line number); multiple detector
// hits on the same line are merged into a single comma-joined message.
type SecurityFinding struct {
	FilePath    string          `json:"file_path"`
	LineNumber  int             `json:"line_number"`
	Content     string          `json:"content"`
	Severity    CommentSeverity `json:"severity"`
	IssueType   string          `json:"issue_type"`
	LineContent string          `json:"line_content"`
}

// DependencyPackage is one (ecosystem, name, version) triple parsed from a
// manifest, with the vulnerability lookup result attached.
type DependencyPackage struct {
	Ecosystem  string `json:"ecosystem"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	Vulnerable bool   `json:"vulnerable"`
	Advisory   string `json:"advisory,omitempty"`
}

// DependencySummary aggregates a dependency scan over one change set.
type DependencySummary struct {
	TotalPackagesExamined int            `json:"total_packages_examined"`
	PackagesByType        map[string]int `json:"packages_by_type"`
	VulnerablePackages    int            `json:"vulnerable_packages"`
	VulnerableList        []string       `json:"vulnerable_list"`
	HasIssues             bool           `json:"has_issues"`
}
