package osv

// PackageQuery is a single entry in a batch query request.
type PackageQuery struct {
	Package PackageID `json:"package"`
	Version string    `json:"version,omitempty"`
}

// PackageID identifies a package in the OSV ecosystem.
type PackageID struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

// BatchQueryRequest is the body for POST /v1/querybatch.
type BatchQueryRequest struct {
	Queries []PackageQuery `json:"queries"`
}

// BatchQueryResponse is the response from POST /v1/querybatch.
type BatchQueryResponse struct {
	Results []QueryResult `json:"results"`
}

// QueryResult is the result for a single package query.
type QueryResult struct {
	Vulns []Vuln `json:"vulns"`
}

// Vuln is the subset of an OSV vulnerability record the reviewer uses.
type Vuln struct {
	ID      string   `json:"id"`      // e.g. "GHSA-xxxx-yyyy-zzzz"
	Aliases []string `json:"aliases"` // e.g. ["CVE-2021-23337"]
	Summary string   `json:"summary"`
}
