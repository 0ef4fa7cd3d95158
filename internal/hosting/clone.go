package hosting

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// CloneFallback serves file content through shallow clones when a hosting
// content API cannot. Clones are cached per repository+branch for the
// lifetime of the process; call Close to remove the temp directories.
type CloneFallback struct {
	token string

	mu     sync.Mutex
	clones map[string]string // cloneURL@branch -> worktree dir
}

func NewCloneFallback(token string) *CloneFallback {
	return &CloneFallback{token: token, clones: make(map[string]string)}
}

// FileContent returns the content of path on branch in the repository at
// cloneURL. path may carry a leading slash (Azure DevOps item paths do).
func (c *CloneFallback) FileContent(ctx context.Context, cloneURL, branch, path string) (string, error) {
	dir, err := c.worktree(ctx, cloneURL, branch)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(path, "/"))) // #nosec G304 -- path comes from the hosting API change list
	if err != nil {
		return "", fmt.Errorf("reading %s from clone: %w", path, err)
	}
	return string(data), nil
}

func (c *CloneFallback) worktree(ctx context.Context, cloneURL, branch string) (string, error) {
	key := cloneURL + "@" + branch
	c.mu.Lock()
	defer c.mu.Unlock()
	if dir, ok := c.clones[key]; ok {
		return dir, nil
	}

	tmpDir, err := os.MkdirTemp("", "prreview-clone-*")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}

	cloneOpts := &gogit.CloneOptions{
		URL:   cloneURL,
		Depth: 1, // shallow clone for speed
	}
	if c.token != "" {
		cloneOpts.Auth = &githttp.BasicAuth{
			Username: "prreview",
			Password: c.token,
		}
	}
	if branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		cloneOpts.SingleBranch = true
	}

	slog.Debug("cloning repository for content fallback",
		"url", cloneURL, "branch", branch, "dest", tmpDir)

	if _, err := gogit.PlainCloneContext(ctx, tmpDir, false, cloneOpts); err != nil {
		os.RemoveAll(tmpDir)
		return "", fmt.Errorf("cloning %s: %w", cloneURL, err)
	}

	c.clones[key] = tmpDir
	return tmpDir, nil
}

// Close removes all cached clone directories.
func (c *CloneFallback) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, dir := range c.clones {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to clean up clone directory", "path", dir, "error", err)
		}
		delete(c.clones, key)
	}
}
