package proxy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type countingReloader struct {
	calls int
	err   error
}

func (r *countingReloader) Reload(ctx context.Context) error {
	r.calls++
	return r.err
}

func TestAddPreviewWritesRouteFileAndReloads(t *testing.T) {
	dir := t.TempDir()
	reloader := &countingReloader{}
	m := New(dir, reloader)

	if err := m.AddPreview(context.Background(), "acme-api", 42, 8000); err != nil {
		t.Fatalf("AddPreview: %v", err)
	}

	path := filepath.Join(dir, "acme-api-pr-42.conf")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("route file not written: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "location /acme-api/pr-42/") {
		t.Errorf("missing location block: %s", content)
	}
	if !strings.Contains(content, "proxy_pass http://localhost:8000/") {
		t.Errorf("missing proxy_pass: %s", content)
	}
	if strings.Contains(content, "server {") {
		t.Errorf("route file must not wrap itself in a server block: %s", content)
	}
	if reloader.calls != 1 {
		t.Errorf("reload calls = %d, want 1", reloader.calls)
	}
}

func TestRemovePreviewIdempotentOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	reloader := &countingReloader{}
	m := New(dir, reloader)

	if err := m.RemovePreview(context.Background(), "acme-api", 42); err != nil {
		t.Fatalf("RemovePreview on missing file should not error: %v", err)
	}
	if reloader.calls != 1 {
		t.Errorf("reload calls = %d, want 1 (still reloads)", reloader.calls)
	}
}

func TestRemovePreviewDeletesExistingFile(t *testing.T) {
	dir := t.TempDir()
	reloader := &countingReloader{}
	m := New(dir, reloader)
	if err := m.AddPreview(context.Background(), "acme-api", 42, 8000); err != nil {
		t.Fatalf("AddPreview: %v", err)
	}
	if err := m.RemovePreview(context.Background(), "acme-api", 42); err != nil {
		t.Fatalf("RemovePreview: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "acme-api-pr-42.conf")); !os.IsNotExist(err) {
		t.Errorf("expected route file removed, stat err = %v", err)
	}
}
