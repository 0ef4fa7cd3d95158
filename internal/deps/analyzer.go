// Package deps scans changed dependency manifests for known-vulnerable
// packages. Parsing is best-effort per file: a malformed manifest is
// skipped, never fatal to the review.
package deps

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/CosmoTheDev/prreview-agent/internal/classify"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// Enricher widens vulnerability coverage beyond the built-in table.
// Implementations must be best-effort and never block a review.
type Enricher interface {
	Enrich(ctx context.Context, pkgs []models.DependencyPackage) []models.DependencyPackage
}

// Analyzer scans a change set's manifests.
type Analyzer struct {
	enricher Enricher
}

// NewAnalyzer returns an Analyzer. The enricher may be nil.
func NewAnalyzer(enricher Enricher) *Analyzer {
	return &Analyzer{enricher: enricher}
}

// Analyze parses every manifest in the change set, checks each package
// against the vulnerability table, and returns the summary plus the
// CRITICAL-prefixed issue strings.
func (a *Analyzer) Analyze(ctx context.Context, changes []models.Change) (models.DependencySummary, []string) {
	summary := models.DependencySummary{
		PackagesByType: make(map[string]int),
	}
	var issues []string

	for _, change := range changes {
		if change.ChangeType == models.ChangeDelete {
			continue
		}
		cat := classify.Classify(change.Path, change.NewContent)
		if !cat.IsManifest() {
			continue
		}

		pkgs, err := ParseManifest(change.Path, change.NewContent)
		if err != nil {
			// Manifest analysis is best-effort; an unparseable file is
			// dropped, not fatal.
			slog.Debug("Skipping unparseable manifest", "path", change.Path, "error", err)
			continue
		}

		if a.enricher != nil {
			pkgs = a.enricher.Enrich(ctx, pkgs)
		}

		for _, pkg := range pkgs {
			summary.TotalPackagesExamined++
			summary.PackagesByType[pkg.Ecosystem]++

			if !pkg.Vulnerable {
				if entry, hit := lookupVulnerability(pkg.Ecosystem, pkg.Name, pkg.Version); hit {
					pkg.Vulnerable = true
					pkg.Advisory = entry.Advisory
					issues = append(issues, fmt.Sprintf(
						"CRITICAL: %s %s (%s) is vulnerable (%s, %s) - upgrade to a version outside %s",
						pkg.Name, pkg.Version, pkg.Ecosystem, entry.Advisory, entry.Detail, entry.Constraint))
				}
			} else if pkg.Advisory != "" {
				issues = append(issues, fmt.Sprintf(
					"CRITICAL: %s %s (%s) is vulnerable (%s)",
					pkg.Name, pkg.Version, pkg.Ecosystem, pkg.Advisory))
			}

			if pkg.Vulnerable {
				summary.VulnerablePackages++
				summary.VulnerableList = append(summary.VulnerableList,
					fmt.Sprintf("%s %s (%s): %s", pkg.Name, pkg.Version, pkg.Ecosystem, pkg.Advisory))
			}
		}
	}

	sort.Strings(summary.VulnerableList)
	summary.HasIssues = summary.VulnerablePackages > 0
	return summary, issues
}
