package osv

import (
	"context"
	"log/slog"
	"strings"

	"github.com/CosmoTheDev/prreview-agent/models"
)

// Enricher flags additional vulnerable packages by querying OSV.dev.
// It only ever adds information: packages already flagged by the built-in
// table keep their advisory, and any API failure leaves the input
// untouched. Reviews never block on it.
type Enricher struct {
	client *Client
}

// NewEnricher returns an Enricher backed by the public OSV API.
func NewEnricher() *Enricher {
	return &Enricher{client: New()}
}

// Enrich queries OSV for every package with a concrete version and marks
// hits as vulnerable with the advisory identifier.
func (e *Enricher) Enrich(ctx context.Context, pkgs []models.DependencyPackage) []models.DependencyPackage {
	var queries []PackageQuery
	var indices []int

	for i, pkg := range pkgs {
		if pkg.Vulnerable || pkg.Version == "" {
			continue
		}
		eco := osvEcosystem(pkg.Ecosystem)
		if eco == "" {
			continue
		}
		queries = append(queries, PackageQuery{
			Package: PackageID{Name: pkg.Name, Ecosystem: eco},
			Version: pkg.Version,
		})
		indices = append(indices, i)
	}
	if len(queries) == 0 {
		return pkgs
	}

	results, err := e.client.BatchQuery(ctx, queries)
	if err != nil {
		slog.Warn("OSV enrichment unavailable", "error", err)
		return pkgs
	}

	for qi, result := range results {
		if qi >= len(indices) || len(result.Vulns) == 0 {
			continue
		}
		i := indices[qi]
		pkgs[i].Vulnerable = true
		pkgs[i].Advisory = advisoryID(result.Vulns[0])
	}
	return pkgs
}

// osvEcosystem maps our manifest ecosystems onto OSV's naming.
func osvEcosystem(ecosystem string) string {
	switch ecosystem {
	case "javascript":
		return "npm"
	case "python":
		return "PyPI"
	case "csharp":
		return "NuGet"
	case "java":
		return "Maven"
	default:
		return ""
	}
}

// advisoryID prefers a CVE alias over the raw OSV identifier.
func advisoryID(v Vuln) string {
	for _, alias := range v.Aliases {
		if strings.HasPrefix(alias, "CVE-") {
			return alias
		}
	}
	return v.ID
}
