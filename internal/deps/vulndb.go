package deps

import "strings"

// Ecosystem names, aligned with the package-manifest file categories.
const (
	EcosystemJavaScript = "javascript"
	EcosystemCSharp     = "csharp"
	EcosystemPython     = "python"
	EcosystemJava       = "java"
)

// vulnEntry describes one known-vulnerable package: a version constraint
// and the advisory it maps to.
type vulnEntry struct {
	Constraint string
	Advisory   string
	Detail     string
}

// knownVulnerabilities is the built-in lookup table, keyed by
// lowercase "ecosystem/name". It is intentionally small: the point is to
// catch well-known bad versions in changed manifests, not to replace a
// vulnerability database. OSV enrichment can widen coverage at runtime.
var knownVulnerabilities = map[string]vulnEntry{
	"javascript/lodash": {
		Constraint: "<4.17.21",
		Advisory:   "CVE-2021-23337",
		Detail:     "command injection via template",
	},
	"javascript/minimist": {
		Constraint: "<1.2.6",
		Advisory:   "CVE-2021-44906",
		Detail:     "prototype pollution",
	},
	"javascript/node-fetch": {
		Constraint: "<2.6.7",
		Advisory:   "CVE-2022-0235",
		Detail:     "credential exposure on cross-origin redirect",
	},
	"javascript/axios": {
		Constraint: "<0.21.2",
		Advisory:   "CVE-2021-3749",
		Detail:     "regular expression denial of service",
	},
	"javascript/express": {
		Constraint: "<4.17.3",
		Advisory:   "CVE-2022-24999",
		Detail:     "qs prototype poisoning",
	},
	"python/django": {
		Constraint: "<3.2.14",
		Advisory:   "CVE-2022-34265",
		Detail:     "SQL injection in Trunc/Extract",
	},
	"python/pyyaml": {
		Constraint: "<5.4",
		Advisory:   "CVE-2020-14343",
		Detail:     "arbitrary code execution in full_load",
	},
	"python/requests": {
		Constraint: "<2.31.0",
		Advisory:   "CVE-2023-32681",
		Detail:     "Proxy-Authorization header leak",
	},
	"python/flask": {
		Constraint: "<2.2.5",
		Advisory:   "CVE-2023-30861",
		Detail:     "session cookie disclosure via caching",
	},
	"csharp/newtonsoft.json": {
		Constraint: "<13.0.1",
		Advisory:   "GHSA-5crp-9r3c-p9vr",
		Detail:     "stack overflow on deeply nested input",
	},
	"csharp/system.data.sqlclient": {
		Constraint: "<4.8.5",
		Advisory:   "CVE-2022-41064",
		Detail:     "information disclosure",
	},
	"java/log4j-core": {
		Constraint: "<2.17.1",
		Advisory:   "CVE-2021-44228",
		Detail:     "remote code execution (Log4Shell)",
	},
	"java/jackson-databind": {
		Constraint: "<2.13.4",
		Advisory:   "CVE-2022-42003",
		Detail:     "deep wrapper array resource exhaustion",
	},
	"java/commons-text": {
		Constraint: "<1.10.0",
		Advisory:   "CVE-2022-42889",
		Detail:     "variable interpolation RCE (Text4Shell)",
	},
}

// lookupVulnerability checks a package against the built-in table.
func lookupVulnerability(ecosystem, name, version string) (vulnEntry, bool) {
	key := ecosystem + "/" + strings.ToLower(name)
	entry, ok := knownVulnerabilities[key]
	if !ok {
		return vulnEntry{}, false
	}
	if !matchesConstraint(version, entry.Constraint) {
		return vulnEntry{}, false
	}
	return entry, true
}
