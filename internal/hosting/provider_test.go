package hosting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

func TestNewRequiresToken(t *testing.T) {
	for _, provider := range []string{"azure", "github", "gitlab"} {
		t.Run(provider, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Hosting.Provider = provider

			_, err := New(cfg)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "prreview config set")
		})
	}
}

func TestNewUnknownProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.Hosting.Provider = "bitkeeper"

	_, err := New(cfg)

	require.Error(t, err)
}

func TestDefaultRepositoryAzure(t *testing.T) {
	cfg := &config.Config{}
	cfg.Hosting.Provider = "azure"
	cfg.Hosting.Azure.Org = "acme"
	cfg.Hosting.Azure.Project = "platform"

	repo := DefaultRepository(cfg, "service")

	assert.Equal(t, models.Repository{
		Provider: "azure",
		Org:      "acme",
		Project:  "platform",
		Name:     "service",
	}, repo)
}

func TestDefaultRepositoryGitHubSplitsOwner(t *testing.T) {
	cfg := &config.Config{}
	cfg.Hosting.Provider = "github"

	repo := DefaultRepository(cfg, "acme/service")

	assert.Equal(t, "acme", repo.Org)
	assert.Equal(t, "service", repo.Name)
}

func TestSplitOwnerRepo(t *testing.T) {
	tests := []struct {
		in    string
		owner string
		repo  string
	}{
		{"acme/service", "acme", "service"},
		{"service", "", "service"},
		{"group/sub/service", "group/sub", "service"},
	}
	for _, tt := range tests {
		owner, repo := splitOwnerRepo(tt.in)
		assert.Equal(t, tt.owner, owner, tt.in)
		assert.Equal(t, tt.repo, repo, tt.in)
	}
}

func TestNormalizeChangeType(t *testing.T) {
	tests := []struct {
		raw  string
		want models.ChangeType
	}{
		{"add", models.ChangeAdd},
		{"edit", models.ChangeEdit},
		{"edit, rename", models.ChangeEdit},
		{"delete", models.ChangeDelete},
		{"remove", models.ChangeDelete},
		{"sourceRename", models.ChangeEdit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeChangeType(tt.raw), tt.raw)
	}
}
