package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CosmoTheDev/prreview-agent/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    models.FileCategory
	}{
		{"csharp source", "src/Services/UserService.cs", "", models.CategoryCSharp},
		{"razor view", "Views/Home/Index.cshtml", "", models.CategoryRazorView},
		{"typescript", "web/app.ts", "", models.CategoryTypeScript},
		{"sql script", "db/migrations/001.sql", "", models.CategorySQL},
		{"csharp test suffix", "tests/UserServiceTests.cs", "", models.CategoryTestCSharp},
		{"csharp dotted test", "src/Billing.Tests.cs", "", models.CategoryTestCSharp},
		{"js spec file", "web/app.spec.ts", "", models.CategoryTestJavaScript},
		{"jest tests dir", "src/__tests__/util.js", "", models.CategoryTestJavaScript},
		{"package.json", "web/package.json", "", models.CategoryPackageJavaScript},
		{"manifest case-insensitive", "src/Packages.Config", "", models.CategoryPackageCSharp},
		{"csproj project file", "src/Api/Api.csproj", "", models.CategoryPackageCSharp},
		{"requirements", "requirements.txt", "", models.CategoryPackagePython},
		{"pom", "service/pom.xml", "", models.CategoryPackageJava},
		{"plain json", "config/appsettings.json", "{\"Logging\":{}}", models.CategoryJSON},
		{"json with deps signature", "config/deps.json", "{\"dependencies\":{\"lodash\":\"^4\"}}", models.CategoryPackageJavaScript},
		{"dockerfile", "deploy/Dockerfile", "", models.CategoryConfig},
		{"dotfile", ".gitignore", "", models.CategoryConfig},
		{"windows path separators", `src\Services\OrderService.cs`, "", models.CategoryCSharp},
		{"unknown extension", "bin/tool.xyz", "", models.CategoryDefault},
		{"no extension", "LICENSE", "", models.CategoryDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path, tt.content))
		})
	}
}

func TestClassifyManifestBeatsTestPattern(t *testing.T) {
	// A manifest filename wins even when the path also looks test-like.
	got := Classify("tests/package.json", "")
	assert.Equal(t, models.CategoryPackageJavaScript, got)
}

func TestHasSignificantScript(t *testing.T) {
	long := "<script>" + strings.Repeat("var x = 1;\n", 60) + "</script>"
	assert.True(t, HasSignificantScript(long))
	assert.True(t, HasSignificantScript("<div></div>\n@section Scripts {\n}"))

	small := "<html><script>f()</script>" + strings.Repeat("<p>text</p>", 100) + "</html>"
	assert.False(t, HasSignificantScript(small))
	assert.False(t, HasSignificantScript("<html><body>static</body></html>"))
}

func TestAnalyzeSet(t *testing.T) {
	changes := []models.Change{
		{Path: "src/A.cs"},
		{Path: "src/B.cs"},
		{Path: "web/app.ts"},
		{Path: "package.json"},
	}

	groups := AnalyzeSet(changes)
	assert.Len(t, groups[models.CategoryCSharp], 2)
	assert.Len(t, groups[models.CategoryTypeScript], 1)
	assert.Len(t, groups[models.CategoryPackageJavaScript], 1)
}

func TestDominant(t *testing.T) {
	t.Run("priority beats count", func(t *testing.T) {
		changes := []models.Change{
			{Path: "a.ts"}, {Path: "b.ts"}, {Path: "c.ts"},
			{Path: "Service.cs"},
		}
		// C# outranks TypeScript despite fewer files.
		assert.Equal(t, models.CategoryCSharp, Dominant(changes))
	})

	t.Run("max count fallback", func(t *testing.T) {
		changes := []models.Change{
			{Path: "a.md"}, {Path: "b.md"}, {Path: "c.css"},
		}
		assert.Equal(t, models.CategoryMarkdown, Dominant(changes))
	})

	t.Run("equal counts break on category name", func(t *testing.T) {
		changes := []models.Change{
			{Path: "a.md"}, {Path: "b.css"}, {Path: "c.json"},
		}
		// One file each; "css" sorts before "json" and "markdown".
		for i := 0; i < 50; i++ {
			assert.Equal(t, models.CategoryCSS, Dominant(changes))
		}
	})

	t.Run("empty set", func(t *testing.T) {
		assert.Equal(t, models.CategoryDefault, Dominant(nil))
	})
}

func TestNeedsMixedReview(t *testing.T) {
	t.Run("two significant categories", func(t *testing.T) {
		changes := []models.Change{{Path: "a.cs"}, {Path: "b.ts"}}
		assert.True(t, NeedsMixedReview(changes))
	})

	t.Run("one significant plus docs", func(t *testing.T) {
		changes := []models.Change{{Path: "a.cs"}, {Path: "README.md"}, {Path: ".env"}}
		assert.False(t, NeedsMixedReview(changes))
	})

	t.Run("manifests never trigger mixed mode", func(t *testing.T) {
		changes := []models.Change{{Path: "package.json"}, {Path: "requirements.txt"}}
		assert.False(t, NeedsMixedReview(changes))
	})
}
