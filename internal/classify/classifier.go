// Package classify assigns a FileCategory to each changed file in a pull
// request and derives set-level facts (dominant category, mixed review)
// used to pick review instructions.
package classify

import (
	"path"
	"regexp"
	"strings"

	"github.com/CosmoTheDev/prreview-agent/models"
)

// extensionCategories maps file extensions to their category.
var extensionCategories = map[string]models.FileCategory{
	".cs":       models.CategoryCSharp,
	".cshtml":   models.CategoryRazorView,
	".razor":    models.CategoryRazorView,
	".js":       models.CategoryJavaScript,
	".jsx":      models.CategoryJavaScript,
	".ts":       models.CategoryTypeScript,
	".tsx":      models.CategoryTypeScript,
	".sql":      models.CategorySQL,
	".md":       models.CategoryMarkdown,
	".markdown": models.CategoryMarkdown,
	".json":     models.CategoryJSON,
	".xml":      models.CategoryXML,
	".config":   models.CategoryConfig,
	".css":      models.CategoryCSS,
	".scss":     models.CategoryCSS,
	".less":     models.CategoryCSS,
	".html":     models.CategoryHTML,
	".htm":      models.CategoryHTML,
	".py":       models.CategoryPython,
	".yml":      models.CategoryYAML,
	".yaml":     models.CategoryYAML,
	".java":     models.CategoryJava,
	".gradle":   models.CategoryPackageJava,
	".kts":      models.CategoryPackageJava, // Gradle Kotlin DSL
}

// manifestFiles maps well-known package-manifest filenames (lowercased) to
// their category. Matched case-insensitively, before any extension lookup.
var manifestFiles = map[string]models.FileCategory{
	// JavaScript / Node.js
	"package.json":       models.CategoryPackageJavaScript,
	"package-lock.json":  models.CategoryPackageJavaScript,
	"yarn.lock":          models.CategoryPackageJavaScript,
	"pnpm-lock.yaml":     models.CategoryPackageJavaScript,
	"npm-shrinkwrap.json": models.CategoryPackageJavaScript,
	// C# / .NET
	"packages.config":          models.CategoryPackageCSharp,
	"directory.packages.props": models.CategoryPackageCSharp,
	"directory.build.props":    models.CategoryPackageCSharp,
	"paket.dependencies":       models.CategoryPackageCSharp,
	"paket.lock":               models.CategoryPackageCSharp,
	// Python
	"requirements.txt":      models.CategoryPackagePython,
	"requirements-dev.txt":  models.CategoryPackagePython,
	"requirements-test.txt": models.CategoryPackagePython,
	"setup.py":              models.CategoryPackagePython,
	"setup.cfg":             models.CategoryPackagePython,
	"pyproject.toml":        models.CategoryPackagePython,
	"pipfile":               models.CategoryPackagePython,
	"pipfile.lock":          models.CategoryPackagePython,
	"poetry.lock":           models.CategoryPackagePython,
	"environment.yml":       models.CategoryPackagePython,
	"environment.yaml":      models.CategoryPackagePython,
	"conda.yaml":            models.CategoryPackagePython,
	// Java
	"pom.xml":             models.CategoryPackageJava,
	"build.gradle":        models.CategoryPackageJava,
	"build.gradle.kts":    models.CategoryPackageJava,
	"settings.gradle":     models.CategoryPackageJava,
	"settings.gradle.kts": models.CategoryPackageJava,
	"gradle.properties":   models.CategoryPackageJava,
	"ivy.xml":             models.CategoryPackageJava,
	"build.xml":           models.CategoryPackageJava, // Ant
}

// testPatterns matches test files across the supported language families.
var testPatterns = []*regexp.Regexp{
	// C#
	regexp.MustCompile(`(?i).*\.Tests?\.cs$`),
	regexp.MustCompile(`(?i).*Tests?\.cs$`),
	regexp.MustCompile(`(?i).*Spec\.cs$`),
	regexp.MustCompile(`(?i).*\.Tests?\.`),
	regexp.MustCompile(`(?i).*\.IntegrationTests?\.`),
	regexp.MustCompile(`(?i).*\.UnitTests?\.`),
	// JavaScript / TypeScript
	regexp.MustCompile(`(?i).*\.test\.(js|jsx|ts|tsx)$`),
	regexp.MustCompile(`(?i).*\.spec\.(js|ts)$`),
	regexp.MustCompile(`(?i)__tests__/.*\.(js|ts|jsx|tsx)$`),
	regexp.MustCompile(`(?i).*\.e2e\.(js|ts)$`),
}

var scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)

// significantCategories, in priority order, are the categories that drive
// instruction selection. Manifest, markup and config categories never
// trigger mixed review on their own.
var significantCategories = []models.FileCategory{
	models.CategoryCSharp,
	models.CategoryRazorView,
	models.CategoryTypeScript,
	models.CategoryJavaScript,
	models.CategorySQL,
	models.CategoryTestCSharp,
	models.CategoryTestJavaScript,
}

// Classify maps a file path (plus optional content) to exactly one category.
// It is total: every input yields a category, falling back to default.
func Classify(filePath, content string) models.FileCategory {
	filePath = strings.ReplaceAll(filePath, `\`, "/")
	name := strings.ToLower(path.Base(filePath))

	// Package manifests take priority over everything, extension included.
	if cat, ok := manifestFiles[name]; ok {
		return cat
	}
	if strings.HasSuffix(name, ".csproj") || strings.HasSuffix(name, ".vbproj") || strings.HasSuffix(name, ".fsproj") {
		return models.CategoryPackageCSharp
	}

	if isTestFile(filePath) {
		if strings.HasSuffix(filePath, ".cs") {
			return models.CategoryTestCSharp
		}
		for _, ext := range []string{".js", ".jsx", ".ts", ".tsx"} {
			if strings.HasSuffix(filePath, ext) {
				return models.CategoryTestJavaScript
			}
		}
	}

	ext := strings.ToLower(path.Ext(name))
	if ext == name {
		// Dotfiles like .gitignore have no real extension.
		ext = ""
	}
	if cat, ok := extensionCategories[ext]; ok {
		// A plain JSON file carrying a dependency list is a manifest in
		// disguise (renamed package.json).
		if cat == models.CategoryJSON && strings.Contains(content, "dependencies") {
			return models.CategoryPackageJavaScript
		}
		return cat
	}

	switch name {
	case "dockerfile", "containerfile", "makefile", "rakefile":
		return models.CategoryConfig
	}
	// Dotfiles like .gitignore, .env.
	if strings.HasPrefix(name, ".") && ext == "" {
		return models.CategoryConfig
	}

	return models.CategoryDefault
}

func isTestFile(filePath string) bool {
	for _, re := range testPatterns {
		if re.MatchString(filePath) {
			return true
		}
	}
	return false
}

// HasSignificantScript reports whether markup content embeds enough script
// to warrant keeping script-aware review guidance: total script-block length
// above 500 characters or above 20% of the file, or a scripts section marker.
func HasSignificantScript(content string) bool {
	scripts := scriptBlockRe.FindAllString(content, -1)
	if len(scripts) > 0 {
		total := 0
		for _, s := range scripts {
			total += len(s)
		}
		return total > 500 || float64(total) > float64(len(content))*0.2
	}
	return strings.Contains(content, "@section Scripts") || strings.Contains(content, "@section scripts")
}

// AnalyzeSet groups a change list by category. Content is taken from the
// new side, falling back to the old side for deletions.
func AnalyzeSet(changes []models.Change) map[models.FileCategory][]string {
	groups := make(map[models.FileCategory][]string)
	for _, c := range changes {
		content := c.NewContent
		if content == "" {
			content = c.OldContent
		}
		cat := Classify(c.Path, content)
		groups[cat] = append(groups[cat], c.Path)
	}
	return groups
}

// Dominant returns the category that should drive instruction selection:
// the first significant category present, in priority order, else the
// category with the most files (equal counts break on category name, so
// the result is stable across runs).
func Dominant(changes []models.Change) models.FileCategory {
	groups := AnalyzeSet(changes)
	if len(groups) == 0 {
		return models.CategoryDefault
	}

	for _, cat := range significantCategories {
		if len(groups[cat]) > 0 {
			return cat
		}
	}

	var best models.FileCategory
	max := -1
	for cat, files := range groups {
		if len(files) > max || (len(files) == max && cat < best) {
			best, max = cat, len(files)
		}
	}
	return best
}

// NeedsMixedReview reports whether more than one significant category is
// present in the change set.
func NeedsMixedReview(changes []models.Change) bool {
	groups := AnalyzeSet(changes)
	count := 0
	for _, cat := range significantCategories {
		if len(groups[cat]) > 0 {
			count++
		}
	}
	return count > 1
}

// SignificantCategories returns the priority-ordered significant category
// list. Callers must not mutate it.
func SignificantCategories() []models.FileCategory {
	return significantCategories
}

// IsTestPath reports whether a path matches any known test-file pattern,
// independent of category assignment.
func IsTestPath(filePath string) bool {
	return isTestFile(strings.ReplaceAll(filePath, `\`, "/"))
}
