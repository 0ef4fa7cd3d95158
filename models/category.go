package models

// FileCategory is the language/purpose tag assigned to a changed file.
// Exactly one category is assigned per change; manifest categories are
// mutually exclusive with language categories and take priority.
type FileCategory string

const (
	CategoryCSharp         FileCategory = "csharp"
	CategoryRazorView      FileCategory = "razor_view"
	CategoryJavaScript     FileCategory = "javascript"
	CategoryTypeScript     FileCategory = "typescript"
	CategorySQL            FileCategory = "sql"
	CategoryMarkdown       FileCategory = "markdown"
	CategoryTestCSharp     FileCategory = "test_csharp"
	CategoryTestJavaScript FileCategory = "test_javascript"
	CategoryConfig         FileCategory = "config"
	CategoryJSON           FileCategory = "json"
	CategoryXML            FileCategory = "xml"
	CategoryCSS            FileCategory = "css"
	CategoryHTML           FileCategory = "html"
	CategoryPython         FileCategory = "python"
	CategoryYAML           FileCategory = "yaml"
	CategoryJava           FileCategory = "java"

	CategoryPackageJavaScript FileCategory = "package_javascript"
	CategoryPackageCSharp     FileCategory = "package_csharp"
	CategoryPackagePython     FileCategory = "package_python"
	CategoryPackageJava       FileCategory = "package_java"

	CategoryDefault FileCategory = "default"
)

// IsManifest reports whether the category is a package-manifest category.
func (c FileCategory) IsManifest() bool {
	switch c {
	case CategoryPackageJavaScript, CategoryPackageCSharp, CategoryPackagePython, CategoryPackageJava:
		return true
	}
	return false
}

// IsTest reports whether the category is a test-source variant.
func (c FileCategory) IsTest() bool {
	return c == CategoryTestCSharp || c == CategoryTestJavaScript
}

func (c FileCategory) String() string {
	return string(c)
}
