// Package secscan performs line-level security pattern scanning over changed
// file content. Detection is purely textual: an ordered list of detectors
// runs per line, and all hits for one line are consolidated into a single
// finding so reviewers never see near-duplicate comments on the same defect.
package secscan

import (
	"regexp"
	"sort"
	"strings"

	"github.com/CosmoTheDev/prreview-agent/models"
)

// patternRule pairs a compiled pattern with the message emitted on match.
type patternRule struct {
	re      *regexp.Regexp
	message string
}

func rules(prefix string, defs [][2]string) []patternRule {
	out := make([]patternRule, 0, len(defs))
	for _, d := range defs {
		out = append(out, patternRule{
			re:      regexp.MustCompile("(?i)" + d[0]),
			message: prefix + ": " + d[1],
		})
	}
	return out
}

var passwordExposureRules = rules("PASSWORD EXPOSURE", [][2]string{
	{`\b(reveal|get|show|display|expose|return|fetch|retrieve).*password\b`, "Method exposes password"},
	{`\bpassword.*\.(get|show|reveal|display|expose|return|value|text)\b`, "Property exposes password"},
	{`\b(public|export|global).*password\s*[=:]`, "Public password assignment"},
	{`password\s*[:=]\s*["'][^"']{3,}["']`, "Hardcoded password value"},
	{`(http|api|url|uri).*[?&]password=`, "Password in URL parameter"},
	{`password\s*[!=]==?\s*["'][^"']+["']`, "Password comparison with literal"},
	{`["']\s*password\s*["']\s*:\s*["'][^"']+["']`, "Password in JSON/object structure"},
	{`\bpassword\s*\+\s*`, "Password concatenation (potential exposure)"},
	{`\$\{?password\}?`, "Password variable interpolation"},
})

var connectionStringRules = rules("CONNECTION STRING LEAK", [][2]string{
	{`\b(connection[_-]?string|connectionstring)\s*[:=]\s*["'][^"']*password[^"']*["']`, "Connection string with embedded password"},
	{`\b(data\s+source|server|database)\s*=.*password\s*=`, "Database connection with password"},
	{`\b(mongodb|mysql|postgresql|mssql|oracle)://[^\s]*:[^\s]*@`, "Database URL with credentials"},
	{`\b(trusted_connection|integrated\s+security)\s*=\s*(false|no).*password`, "Non-integrated auth with password"},
	{`\b(uid|user\s+id)\s*=.*pwd\s*=`, "Database connection with user/password"},
	{`\b(provider|driver)\s*=.*password\s*=`, "Data provider connection with password"},
})

var tokenRules = rules("TOKEN LEAK", [][2]string{
	{`\b(api[_-]?key|apikey)\s*[:=]\s*["'][a-zA-Z0-9]{16,}["']`, "Hardcoded API key"},
	{`\b(secret[_-]?key|secretkey)\s*[:=]\s*["'][a-zA-Z0-9]{16,}["']`, "Hardcoded secret key"},
	{`\b(access[_-]?token|accesstoken)\s*[:=]\s*["'][a-zA-Z0-9]{16,}["']`, "Hardcoded access token"},
	{`\b(bearer[_-]?token|bearertoken)\s*[:=]\s*["'][a-zA-Z0-9]{16,}["']`, "Hardcoded bearer token"},
	{`\b(refresh[_-]?token|refreshtoken)\s*[:=]\s*["'][a-zA-Z0-9]{16,}["']`, "Hardcoded refresh token"},
	{`\b(private[_-]?key|privatekey)\s*[:=]\s*["'][a-zA-Z0-9+/=]{32,}["']`, "Hardcoded private key"},
	{`\b(client[_-]?secret|clientsecret)\s*[:=]\s*["'][a-zA-Z0-9]{16,}["']`, "Hardcoded client secret"},
	{`\b(oauth[_-]?token|oauthtoken)\s*[:=]\s*["'][a-zA-Z0-9]{16,}["']`, "Hardcoded OAuth token"},
	{`\bauthorization\s*[:=]\s*["']bearer\s+[a-zA-Z0-9]{16,}["']`, "Authorization header with token"},
	{`\b(jwt|token)\s*[:=]\s*["']ey[a-zA-Z0-9+/=]{16,}["']`, "JWT token hardcoded"},
})

var cloudSecretRules = rules("CLOUD SECRET LEAK", [][2]string{
	{`\b(aws[_-]?access[_-]?key[_-]?id)\s*[:=]\s*["']AKIA[0-9A-Z]{16}["']`, "AWS Access Key ID"},
	{`\b(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["'][a-zA-Z0-9+/]{40}["']`, "AWS Secret Access Key"},
	{`\b(azure[_-]?client[_-]?secret)\s*[:=]\s*["'][a-zA-Z0-9~._-]{34,}["']`, "Azure Client Secret"},
	{`\b(gcp[_-]?service[_-]?account[_-]?key)\s*[:=]\s*["'][a-zA-Z0-9+/=]{500,}["']`, "GCP Service Account Key"},
})

var certificateRules = rules("CERTIFICATE LEAK", [][2]string{
	{`-----BEGIN\s+(PRIVATE\s+KEY|RSA\s+PRIVATE\s+KEY|CERTIFICATE)`, "Private key or certificate in code"},
	{`\b(ssl[_-]?cert|certificate)\s*[:=]\s*["'][^"']{50,}["']`, "SSL certificate hardcoded"},
	{`\b(thumbprint|fingerprint)\s*[:=]\s*["'][a-fA-F0-9]{40,}["']`, "Certificate thumbprint"},
})

var (
	longQuotedValueRe = regexp.MustCompile(`["']\s*[a-zA-Z0-9+/=]{20,}\s*["']`)
	base64ValueRe     = regexp.MustCompile(`["'][A-Za-z0-9+/]{40,}={0,2}["']`)
	envAccessRe       = regexp.MustCompile(`environment\.(get|getenv|getenvironmentvariable)`)
	sqlCredentialRe   = regexp.MustCompile(`(password|secret)\s*=`)
)

var loggingKeywords = []string{
	"console.writeline", "console.write", "console.log",
	"log.info", "log.debug", "log.warn", "log.error", "log.trace",
	"logger.info", "logger.debug", "logger.warn", "logger.error", "logger.trace",
	"system.out.print", "system.err.print",
	"debug.print", "trace.write",
	"print(", "println(",
	"response.write", "response.send",
}

var sensitiveKeywords = []string{
	"password", "passwd", "pwd",
	"secret", "token", "key",
	"credential", "auth",
	"connection", "connectionstring",
}

// Scan analyses file content for security issues, emitting at most one
// finding per line. It is a pure function of path and content; empty
// content yields no findings.
func Scan(filePath, content string) []models.SecurityFinding {
	if content == "" {
		return nil
	}

	var findings []models.SecurityFinding
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		lineNum := i + 1
		stripped := strings.TrimSpace(line)
		lower := strings.ToLower(line)

		if stripped == "" || isCommentLine(stripped, filePath) {
			continue
		}

		var issues []string

		// Exposure-method name match.
		if strings.Contains(lower, "revealpassword") &&
			(strings.Contains(lower, "public") || strings.Contains(lower, "private") || strings.Contains(lower, "protected")) {
			issues = append(issues, "CRITICAL: RevealPassword method exposes sensitive password information")
		}

		// Return statement handing back a sensitive value.
		if strings.HasPrefix(stripped, "return") && strings.Contains(lower, "password") {
			issues = append(issues, "CRITICAL: Method returns password value directly")
		}

		// Sensitive data reaching a log sink.
		if isLoggingStatement(lower) && containsSensitiveData(lower) {
			issues = append(issues, "CRITICAL: Sensitive data logged - passwords/secrets should never be logged")
		}

		// ToString-style serialisation over a password-bearing body.
		if strings.Contains(lower, "tostring") &&
			(strings.Contains(lower, "override") || strings.Contains(lower, "public")) &&
			bodyContainsPassword(lines, lineNum) {
			issues = append(issues, "CRITICAL: ToString method exposes password information")
		}

		for _, group := range [][]patternRule{
			passwordExposureRules, connectionStringRules, tokenRules, cloudSecretRules, certificateRules,
		} {
			for _, rule := range group {
				if rule.re.MatchString(line) && !isDuplicateIssue(rule.message, issues) {
					issues = append(issues, rule.message)
				}
			}
		}

		issues = append(issues, contextSpecificIssues(line, lower, filePath)...)

		if len(issues) == 0 {
			continue
		}

		findings = append(findings, models.SecurityFinding{
			FilePath:    filePath,
			LineNumber:  lineNum,
			Content:     "CRITICAL SECURITY: " + strings.Join(dedupe(issues), ", "),
			Severity:    models.CommentError,
			IssueType:   "security",
			LineContent: stripped,
		})
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].LineNumber < findings[j].LineNumber })
	return findings
}

// ScanChanges runs Scan over the new content of every change and returns
// all findings plus remediation recommendations.
func ScanChanges(changes []models.Change) ([]models.SecurityFinding, []string) {
	var all []models.SecurityFinding
	for _, c := range changes {
		if c.NewContent == "" {
			continue
		}
		all = append(all, Scan(c.Path, c.NewContent)...)
	}
	return all, Recommendations(all)
}

// Recommendations derives remediation guidance from a finding set.
func Recommendations(findings []models.SecurityFinding) []string {
	if len(findings) == 0 {
		return nil
	}
	return []string{
		"IMMEDIATE: Remove all methods that expose, return, or reveal password information",
		"REQUIRED: Ensure passwords are only used for validation/comparison, never exposed",
		"POLICY: No password values should ever be accessible through any public interface",
		"SECURITY: Review all logging statements to ensure no sensitive data is logged",
	}
}

// isCommentLine decides comment-ness by extension alone, never content
// sniffing. Unknown extensions are treated as non-comments.
func isCommentLine(stripped, filePath string) bool {
	switch {
	case hasSuffix(filePath, ".cs", ".java", ".js", ".ts", ".tsx", ".jsx"):
		return strings.HasPrefix(stripped, "//") || strings.HasPrefix(stripped, "/*") || strings.HasPrefix(stripped, "*")
	case hasSuffix(filePath, ".py"):
		return strings.HasPrefix(stripped, "#")
	case hasSuffix(filePath, ".sql"):
		return strings.HasPrefix(stripped, "--") || strings.HasPrefix(stripped, "/*")
	case hasSuffix(filePath, ".html", ".xml", ".xaml"):
		return strings.HasPrefix(stripped, "<!--")
	case hasSuffix(filePath, ".css"):
		return strings.HasPrefix(stripped, "/*")
	case hasSuffix(filePath, ".sh", ".bash"):
		return strings.HasPrefix(stripped, "#")
	}
	return false
}

func hasSuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func isLoggingStatement(lower string) bool {
	for _, kw := range loggingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func containsSensitiveData(lower string) bool {
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// bodyContainsPassword looks a few lines ahead of a method signature for a
// password reference.
func bodyContainsPassword(lines []string, start int) bool {
	end := min(len(lines), start+10)
	for i := start; i < end; i++ {
		if strings.Contains(strings.ToLower(lines[i]), "password") {
			return true
		}
	}
	return false
}

// isDuplicateIssue suppresses a message when it shares two or more words
// with an already-collected one, so pattern variants describing the same
// defect don't stack up.
func isDuplicateIssue(message string, existing []string) bool {
	words := strings.Fields(strings.ToLower(message))
	for _, e := range existing {
		have := make(map[string]bool)
		for _, w := range strings.Fields(strings.ToLower(e)) {
			have[w] = true
		}
		overlap := 0
		for _, w := range words {
			if have[w] {
				overlap++
			}
		}
		if overlap >= 2 {
			return true
		}
	}
	return false
}

func contextSpecificIssues(line, lower, filePath string) []string {
	var issues []string

	if hasSuffix(filePath, ".config", ".xml", ".json", ".yaml", ".yml", ".properties", ".env") {
		if longQuotedValueRe.MatchString(line) && containsAny(lower, "password", "secret", "key", "token") {
			issues = append(issues, "CONFIGURATION LEAK: Sensitive value in configuration file")
		}
	}

	if hasSuffix(filePath, ".cs", ".java", ".js", ".ts", ".py", ".php") {
		if base64ValueRe.MatchString(line) && containsAny(lower, "secret", "key", "token", "password") {
			issues = append(issues, "ENCODED SECRET: Base64 encoded secret detected")
		}
		// Reading secrets from the environment is fine unless the value
		// lands in a log statement.
		if envAccessRe.MatchString(lower) && containsAny(lower, "password", "secret", "key", "token") && isLoggingStatement(lower) {
			issues = append(issues, "ENVIRONMENT LEAK: Environment variable with secret being logged")
		}
	}

	if hasSuffix(filePath, ".sql", ".ddl") {
		if sqlCredentialRe.MatchString(lower) {
			issues = append(issues, "SQL CREDENTIAL: Password or secret in SQL file")
		}
	}

	return issues
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// FindingsAsComments converts scanner findings into raw review comments so
// they flow through the same consolidation path as agent comments.
func FindingsAsComments(findings []models.SecurityFinding) []models.RawComment {
	out := make([]models.RawComment, 0, len(findings))
	for _, f := range findings {
		out = append(out, models.RawComment{
			FilePath:   f.FilePath,
			LineNumber: f.LineNumber,
			Content:    f.Content,
			Severity:   f.Severity,
			IssueType:  f.IssueType,
		})
	}
	return out
}

func dedupe(issues []string) []string {
	seen := make(map[string]bool, len(issues))
	out := issues[:0]
	for _, s := range issues {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
