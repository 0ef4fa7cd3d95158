package deps

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/CosmoTheDev/prreview-agent/models"
)

// ParseManifest parses a manifest file into its declared packages. The
// returned error marks an unparseable or unsupported manifest; the
// analyzer discards such results rather than failing the review.
func ParseManifest(filePath, content string) ([]models.DependencyPackage, error) {
	name := strings.ToLower(path.Base(strings.ReplaceAll(filePath, `\`, "/")))

	switch {
	case name == "package.json" || name == "npm-shrinkwrap.json":
		return parsePackageJSON(content)
	case name == "package-lock.json":
		return parseNpmLock(content)
	case name == "pnpm-lock.yaml":
		return parsePnpmLock(content)
	case name == "packages.config":
		return parsePackagesConfig(content)
	case strings.HasSuffix(name, ".csproj") || strings.HasSuffix(name, ".vbproj") || strings.HasSuffix(name, ".fsproj"):
		return parseProjectFile(content)
	case strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"):
		return parseRequirements(content)
	case name == "environment.yml" || name == "environment.yaml" || name == "conda.yaml":
		return parseCondaEnv(content)
	case name == "pom.xml":
		return parsePomXML(content)
	default:
		return nil, fmt.Errorf("unsupported manifest %s", name)
	}
}

func parsePackageJSON(content string) ([]models.DependencyPackage, error) {
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(content), &manifest); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}

	var pkgs []models.DependencyPackage
	for _, deps := range []map[string]string{manifest.Dependencies, manifest.DevDependencies} {
		for name, version := range deps {
			pkgs = append(pkgs, models.DependencyPackage{
				Ecosystem: EcosystemJavaScript,
				Name:      name,
				Version:   NormalizeVersion(version),
			})
		}
	}
	return pkgs, nil
}

func parseNpmLock(content string) ([]models.DependencyPackage, error) {
	var lock struct {
		Dependencies map[string]struct {
			Version string `json:"version"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal([]byte(content), &lock); err != nil {
		return nil, fmt.Errorf("parsing package-lock.json: %w", err)
	}

	var pkgs []models.DependencyPackage
	for name, entry := range lock.Dependencies {
		pkgs = append(pkgs, models.DependencyPackage{
			Ecosystem: EcosystemJavaScript,
			Name:      name,
			Version:   NormalizeVersion(entry.Version),
		})
	}
	return pkgs, nil
}

func parsePnpmLock(content string) ([]models.DependencyPackage, error) {
	var lock struct {
		Dependencies map[string]yaml.Node `yaml:"dependencies"`
	}
	if err := yaml.Unmarshal([]byte(content), &lock); err != nil {
		return nil, fmt.Errorf("parsing pnpm-lock.yaml: %w", err)
	}

	var pkgs []models.DependencyPackage
	for name, node := range lock.Dependencies {
		version := ""
		switch node.Kind {
		case yaml.ScalarNode:
			version = node.Value
		case yaml.MappingNode:
			var entry struct {
				Version string `yaml:"version"`
			}
			if err := node.Decode(&entry); err == nil {
				version = entry.Version
			}
		}
		pkgs = append(pkgs, models.DependencyPackage{
			Ecosystem: EcosystemJavaScript,
			Name:      name,
			Version:   NormalizeVersion(version),
		})
	}
	return pkgs, nil
}

func parsePackagesConfig(content string) ([]models.DependencyPackage, error) {
	var doc struct {
		Packages []struct {
			ID      string `xml:"id,attr"`
			Version string `xml:"version,attr"`
		} `xml:"package"`
	}
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("parsing packages.config: %w", err)
	}

	var pkgs []models.DependencyPackage
	for _, p := range doc.Packages {
		if p.ID == "" {
			continue
		}
		pkgs = append(pkgs, models.DependencyPackage{
			Ecosystem: EcosystemCSharp,
			Name:      p.ID,
			Version:   NormalizeVersion(p.Version),
		})
	}
	return pkgs, nil
}

func parseProjectFile(content string) ([]models.DependencyPackage, error) {
	var doc struct {
		ItemGroups []struct {
			PackageReferences []struct {
				Include string `xml:"Include,attr"`
				Version string `xml:"Version,attr"`
			} `xml:"PackageReference"`
		} `xml:"ItemGroup"`
	}
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("parsing project file: %w", err)
	}

	var pkgs []models.DependencyPackage
	for _, group := range doc.ItemGroups {
		for _, ref := range group.PackageReferences {
			if ref.Include == "" {
				continue
			}
			pkgs = append(pkgs, models.DependencyPackage{
				Ecosystem: EcosystemCSharp,
				Name:      ref.Include,
				Version:   NormalizeVersion(ref.Version),
			})
		}
	}
	return pkgs, nil
}

// parseRequirements handles pinned requirement lists: one "name==version"
// per line, comments and unpinned entries skipped.
func parseRequirements(content string) ([]models.DependencyPackage, error) {
	var pkgs []models.DependencyPackage
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		// Strip environment markers and inline comments.
		if i := strings.IndexAny(line, ";#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}

		name, version, found := strings.Cut(line, "==")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		if i := strings.Index(name, "["); i >= 0 { // extras like requests[socks]
			name = name[:i]
		}
		if name == "" {
			continue
		}
		pkgs = append(pkgs, models.DependencyPackage{
			Ecosystem: EcosystemPython,
			Name:      name,
			Version:   NormalizeVersion(version),
		})
	}
	return pkgs, nil
}

func parseCondaEnv(content string) ([]models.DependencyPackage, error) {
	var env struct {
		Dependencies []yaml.Node `yaml:"dependencies"`
	}
	if err := yaml.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("parsing conda environment: %w", err)
	}

	var pkgs []models.DependencyPackage
	for _, node := range env.Dependencies {
		if node.Kind != yaml.ScalarNode {
			// pip sub-sections and the like.
			continue
		}
		entry := node.Value
		name, version, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		version = strings.TrimPrefix(version, "=") // conda "name==version"
		pkgs = append(pkgs, models.DependencyPackage{
			Ecosystem: EcosystemPython,
			Name:      strings.TrimSpace(name),
			Version:   NormalizeVersion(version),
		})
	}
	return pkgs, nil
}

func parsePomXML(content string) ([]models.DependencyPackage, error) {
	var doc struct {
		Dependencies struct {
			Dependency []struct {
				GroupID    string `xml:"groupId"`
				ArtifactID string `xml:"artifactId"`
				Version    string `xml:"version"`
			} `xml:"dependency"`
		} `xml:"dependencies"`
	}
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("parsing pom.xml: %w", err)
	}

	var pkgs []models.DependencyPackage
	for _, d := range doc.Dependencies.Dependency {
		if d.ArtifactID == "" {
			continue
		}
		pkgs = append(pkgs, models.DependencyPackage{
			Ecosystem: EcosystemJava,
			Name:      d.ArtifactID,
			Version:   NormalizeVersion(d.Version),
		})
	}
	return pkgs, nil
}
