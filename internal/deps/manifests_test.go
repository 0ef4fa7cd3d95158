package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmoTheDev/prreview-agent/models"
)

func packagesByName(pkgs []models.DependencyPackage) map[string]models.DependencyPackage {
	m := make(map[string]models.DependencyPackage, len(pkgs))
	for _, p := range pkgs {
		m[p.Name] = p
	}
	return m
}

func TestParsePackageJSON(t *testing.T) {
	content := `{
		"name": "web",
		"dependencies": {"lodash": "^4.17.20", "axios": "~1.6.0"},
		"devDependencies": {"jest": ">=29.0.0"}
	}`

	pkgs, err := ParseManifest("web/package.json", content)
	require.NoError(t, err)
	require.Len(t, pkgs, 3)

	byName := packagesByName(pkgs)
	assert.Equal(t, "4.17.20", byName["lodash"].Version)
	assert.Equal(t, "1.6.0", byName["axios"].Version)
	assert.Equal(t, "29.0.0", byName["jest"].Version)
	assert.Equal(t, EcosystemJavaScript, byName["jest"].Ecosystem)
}

func TestParseRequirements(t *testing.T) {
	content := `# pinned deps
django==3.2.0
requests[socks]==2.31.0 ; python_version >= "3.8"
-r other.txt
flask>=2.0
`

	pkgs, err := ParseManifest("requirements.txt", content)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)

	byName := packagesByName(pkgs)
	assert.Equal(t, "3.2.0", byName["django"].Version)
	assert.Equal(t, "2.31.0", byName["requests"].Version)
	assert.Equal(t, EcosystemPython, byName["django"].Ecosystem)
}

func TestParsePackagesConfig(t *testing.T) {
	content := `<?xml version="1.0" encoding="utf-8"?>
<packages>
  <package id="Newtonsoft.Json" version="12.0.3" targetFramework="net48" />
  <package id="Dapper" version="2.0.123" targetFramework="net48" />
</packages>`

	pkgs, err := ParseManifest("src/packages.config", content)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, EcosystemCSharp, pkgs[0].Ecosystem)
}

func TestParseProjectFile(t *testing.T) {
	content := `<Project Sdk="Microsoft.NET.Sdk">
  <ItemGroup>
    <PackageReference Include="Newtonsoft.Json" Version="12.0.3" />
  </ItemGroup>
  <ItemGroup>
    <PackageReference Include="Serilog" Version="3.1.1" />
  </ItemGroup>
</Project>`

	pkgs, err := ParseManifest("src/Api/Api.csproj", content)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)

	byName := packagesByName(pkgs)
	assert.Equal(t, "12.0.3", byName["Newtonsoft.Json"].Version)
}

func TestParsePomXML(t *testing.T) {
	content := `<project>
  <dependencies>
    <dependency>
      <groupId>org.apache.logging.log4j</groupId>
      <artifactId>log4j-core</artifactId>
      <version>2.14.1</version>
    </dependency>
  </dependencies>
</project>`

	pkgs, err := ParseManifest("service/pom.xml", content)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "log4j-core", pkgs[0].Name)
	assert.Equal(t, EcosystemJava, pkgs[0].Ecosystem)
}

func TestParseCondaEnv(t *testing.T) {
	content := `name: analytics
dependencies:
  - python=3.11
  - numpy=1.26.0
  - pip:
      - somepkg==1.0
`

	pkgs, err := ParseManifest("environment.yml", content)
	require.NoError(t, err)

	byName := packagesByName(pkgs)
	assert.Equal(t, "3.11", byName["python"].Version)
	assert.Equal(t, "1.26.0", byName["numpy"].Version)
}

func TestParsePnpmLock(t *testing.T) {
	content := `lockfileVersion: '6.0'
dependencies:
  lodash:
    specifier: ^4.17.20
    version: 4.17.20
`

	pkgs, err := ParseManifest("pnpm-lock.yaml", content)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "4.17.20", pkgs[0].Version)
}

func TestParseManifestUnsupported(t *testing.T) {
	_, err := ParseManifest("build.gradle", `implementation "org.example:lib:1.0"`)
	assert.Error(t, err)
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"^4.17.20", "4.17.20"},
		{"~1.2.3", "1.2.3"},
		{">=2.0.0, <3.0.0", "2.0.0"},
		{"1.x || 2.x", "1.x"},
		{"!=1.0.0", "1.0.0"},
		{"  1.0.0  ", "1.0.0"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeVersion(tt.in), "input %q", tt.in)
	}
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, -1, compareVersions("4.17.20", "4.17.21"))
	assert.Equal(t, 1, compareVersions("4.18.0", "4.17.21"))
	assert.Equal(t, 0, compareVersions("1.2.3", "1.2.3"))
	assert.Equal(t, -1, compareVersions("1.2", "1.2.1"))
	assert.Equal(t, 0, compareVersions("1.2.3-beta", "1.2.3"))
	assert.Equal(t, -1, compareVersions("2.9.9", "2.10.0"))
}

func TestMatchesConstraint(t *testing.T) {
	assert.True(t, matchesConstraint("4.17.20", "<4.17.21"))
	assert.False(t, matchesConstraint("4.17.21", "<4.17.21"))
	assert.True(t, matchesConstraint("^4.17.20", "<4.17.21"))
	assert.True(t, matchesConstraint("3.2.0", "<3.2.14"))
	assert.True(t, matchesConstraint("1.0.0", "==1.0.0"))
	assert.False(t, matchesConstraint("", "<1.0.0"))
}
