package prompt

import (
	"strings"

	"github.com/CosmoTheDev/prreview-agent/models"
)

// responseFormat is appended to every instruction set so the agent always
// returns the same JSON verdict shape.
const responseFormat = `
## Response Format

Format your response as JSON:
` + "```json" + `
{
    "approved": true/false,
    "severity": "approved/minor/major/critical",
    "summary": "Overall assessment of the changes",
    "comments": [
        {
            "file_path": "path/to/file",
            "line_number": 123,
            "content": "Specific feedback",
            "severity": "info/warning/error"
        }
    ],
    "test_suggestions": [
        {
            "test_name": "TestClassName.TestMethodName",
            "description": "What this test should verify",
            "test_code": "// Stubbed test code"
        }
    ]
}
` + "```" + `

## Severity Guidelines
- **approved**: Code meets standards, follows best practices
- **minor**: Style issues, minor improvements
- **major**: Performance, maintainability, or design issues
- **critical**: Security vulnerabilities, bugs, or data integrity issues

## Test Suggestions
For any bug fixes or new features, provide specific test suggestions with:
- Concrete test method names
- Description of what each test verifies
- Stubbed test code in the appropriate testing framework
- Focus on edge cases, error conditions, and critical paths
- For bug fixes: MUST include tests that verify the fix
`

// condensedGuidelines holds the short per-category guidance used when a
// change set mixes several significant categories.
var condensedGuidelines = map[models.FileCategory]string{
	models.CategoryCSharp: `- SOLID principles, dependency injection, async/await patterns
- Security: input validation, SQL injection prevention
- Performance: LINQ efficiency, memory management
- Null safety, error handling, proper disposal
`,
	models.CategoryRazorView: `- XSS prevention: proper encoding, avoid raw HTML output with user input
- CSRF protection: anti-forgery tokens in forms
- Performance: minimize view logic, avoid database calls
- Model binding, partial views, JavaScript integration
`,
	models.CategoryJavaScript: `- Use const/let (never var), strict equality (===)
- Async patterns: Promises, async/await, error handling
- DOM efficiency, event delegation, memory leaks
- Security: XSS prevention, no eval(), input validation
`,
	models.CategoryTypeScript: `- Type safety: avoid 'any', use unknown when needed
- Interfaces, generics, discriminated unions
- Strict mode compliance, null checks
- Proper import/export patterns
`,
	models.CategorySQL: `- SQL injection prevention: parameterized queries
- Performance: indexes, execution plans, set-based logic
- Transactions, error handling, constraints
- Proper NULL handling, data types
`,
	models.CategoryTestCSharp: `- Test coverage: edge cases, error conditions
- AAA pattern, single assertion per test
- Proper mocking, test independence
- Descriptive test names, fast execution
`,
	models.CategoryTestJavaScript: `- Test coverage: edge cases, async behaviour, error paths
- Deterministic tests: no shared state, no timing dependence
- Proper mocking of network and DOM dependencies
- Descriptive test names
`,
}

const defaultGuidelines = `- Follow language best practices
- Ensure security and performance
`

// fullInstructions returns the complete instruction block for a single
// dominant category.
func fullInstructions(cat models.FileCategory) string {
	guidance, ok := condensedGuidelines[cat]
	if !ok {
		guidance = defaultGuidelines
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(categoryTitle(cat))
	b.WriteString(" Code Review\n\n")
	b.WriteString("Review the pull request for code quality, security, performance, and best practices.\n\n")
	b.WriteString("## Review Guidelines\n")
	b.WriteString(guidance)
	b.WriteString(responseFormat)
	return b.String()
}

// defaultInstructions is used when the change set has no classifiable files.
func defaultInstructions() string {
	return "# Code Review\n\nReview the pull request for code quality, security, performance, and best practices.\n\n" +
		"## Review Guidelines\n" + defaultGuidelines + responseFormat
}

// categoryTitle renders "test_csharp" as "Test Csharp".
func categoryTitle(cat models.FileCategory) string {
	words := strings.Split(string(cat), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
