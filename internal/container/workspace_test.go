package container

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspacePrepareClearsExisting(t *testing.T) {
	root := t.TempDir()
	ws, err := newWorkspace(root)
	if err != nil {
		t.Fatalf("newWorkspace: %v", err)
	}

	dir, err := ws.prepare("acme-api", 1)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if want := filepath.Join(root, "acme-api", "pr-1"); dir != want {
		t.Errorf("dir = %q, want %q", dir, want)
	}
	stray := filepath.Join(dir, "stray.txt")
	if err := os.WriteFile(stray, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	dir2, err := ws.prepare("acme-api", 1)
	if err != nil {
		t.Fatalf("prepare (second): %v", err)
	}
	if dir2 != dir {
		t.Errorf("dir2 = %q, want same path %q", dir2, dir)
	}
	if _, err := os.Stat(stray); !os.IsNotExist(err) {
		t.Error("expected stray file removed by re-prepare")
	}
}

func TestWorkspaceCleanupRemovesDir(t *testing.T) {
	root := t.TempDir()
	ws, err := newWorkspace(root)
	if err != nil {
		t.Fatalf("newWorkspace: %v", err)
	}
	dir, err := ws.prepare("acme-api", 1)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := ws.cleanup("acme-api", 1); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("expected workspace directory removed")
	}
}

func TestWorkspaceCleanupEmptyProjectSlugRejected(t *testing.T) {
	root := t.TempDir()
	ws, err := newWorkspace(root)
	if err != nil {
		t.Fatalf("newWorkspace: %v", err)
	}
	if err := ws.cleanup("", 1); err == nil {
		t.Fatal("expected error for empty projectSlug")
	}
}
