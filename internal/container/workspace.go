package container

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// workspace owns deployment-specific working directories under a common
// root, refusing to touch anything outside it.
type workspace struct {
	root string
}

func newWorkspace(root string) (*workspace, error) {
	if root == "" {
		return nil, fmt.Errorf("container: workspace root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("container: create workspace root: %w", err)
	}
	return &workspace{root: root}, nil
}

// prepare removes any existing directory for projectSlug/prNumber, then
// creates a fresh one at <root>/<projectSlug>/pr-<N>/ (spec.md §3, §6).
func (w *workspace) prepare(projectSlug string, prNumber int) (string, error) {
	if projectSlug == "" {
		return "", fmt.Errorf("container: workspace projectSlug cannot be empty")
	}
	dir := w.dirFor(projectSlug, prNumber)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("container: clear workspace: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("container: create workspace: %w", err)
	}
	return dir, nil
}

func (w *workspace) dirFor(projectSlug string, prNumber int) string {
	return filepath.Join(w.root, projectSlug, fmt.Sprintf("pr-%d", prNumber))
}

// cleanup removes projectSlug/prNumber's working directory, refusing to
// act on any path outside the workspace root.
func (w *workspace) cleanup(projectSlug string, prNumber int) error {
	if projectSlug == "" {
		return fmt.Errorf("container: workspace projectSlug cannot be empty")
	}
	dir := w.dirFor(projectSlug, prNumber)
	rel, err := filepath.Rel(w.root, dir)
	if err != nil || rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("container: refusing to clean up path outside workspace root")
	}
	return os.RemoveAll(dir)
}
