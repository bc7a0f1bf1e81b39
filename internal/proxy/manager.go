// Package proxy owns the reverse-proxy route-config directory: one file
// per preview deployment, reloaded into the running proxy after each
// write or removal (spec.md §4.6).
package proxy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Reloader is the injected capability that makes a route-file change take
// effect. Production implementations shell out to the proxy binary or
// exec the same commands inside its container; tests use a no-op.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Manager writes and removes per-deployment nginx route-config files and
// triggers a Reloader after each change.
type Manager struct {
	ConfigDir string
	Reload    Reloader
}

// New returns a Manager writing route files under configDir.
func New(configDir string, reloader Reloader) *Manager {
	return &Manager{ConfigDir: configDir, Reload: reloader}
}

func routeFileName(slug string, prNumber int) string {
	return fmt.Sprintf("%s-pr-%d.conf", slug, prNumber)
}

// AddPreview writes (or overwrites) the route file for slug/prNumber
// proxying to localhost:appPort, then reloads the proxy. The block is
// meant for inclusion inside an existing server block — it never wraps
// itself in "server { ... }".
func (m *Manager) AddPreview(ctx context.Context, slug string, prNumber, appPort int) error {
	if err := os.MkdirAll(m.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("proxy: create config dir: %w", err)
	}

	content := fmt.Sprintf(`location /%s/pr-%d/ {
    proxy_pass http://localhost:%d/;
    proxy_http_version 1.1;
    proxy_set_header Upgrade $http_upgrade;
    proxy_set_header Connection "upgrade";
    proxy_set_header Host $host;
    proxy_set_header X-Real-IP $remote_addr;
    proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
    proxy_set_header X-Forwarded-Proto $scheme;
}
`, slug, prNumber, appPort)

	path := filepath.Join(m.ConfigDir, routeFileName(slug, prNumber))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("proxy: write route file %s: %w", path, err)
	}

	return m.Reload.Reload(ctx)
}

// RemovePreview deletes slug/prNumber's route file, if present, and
// reloads the proxy. Removal is idempotent: a missing file is not an
// error.
func (m *Manager) RemovePreview(ctx context.Context, slug string, prNumber int) error {
	path := filepath.Join(m.ConfigDir, routeFileName(slug, prNumber))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("proxy: remove route file %s: %w", path, err)
	}
	return m.Reload.Reload(ctx)
}
