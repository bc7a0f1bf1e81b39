package framework

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveConfigOverride(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "go.mod", "module example.com/foo\n")
	if got := Resolve(dir, "rust"); got != "rust" {
		t.Errorf("Resolve = %q, want rust (config override)", got)
	}
}

func TestResolveNestCliJSON(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "nest-cli.json", "{}")
	if got := Resolve(dir, ""); got != NestJS {
		t.Errorf("Resolve = %q, want nestjs", got)
	}
}

func TestResolveNestPackageJSON(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "package.json", `{"dependencies":{"@nestjs/core":"^10.0.0"}}`)
	if got := Resolve(dir, ""); got != NestJS {
		t.Errorf("Resolve = %q, want nestjs", got)
	}
}

func TestResolveGoMod(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "go.mod", "module example.com/foo\n")
	if got := Resolve(dir, ""); got != Go {
		t.Errorf("Resolve = %q, want go", got)
	}
}

func TestResolveLaravel(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "composer.json", `{"require":{"laravel/framework":"^10.0"}}`)
	if got := Resolve(dir, ""); got != Laravel {
		t.Errorf("Resolve = %q, want laravel", got)
	}
}

func TestResolveOrderNestBeforeGo(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "nest-cli.json", "{}")
	write(t, dir, "go.mod", "module example.com/foo\n")
	if got := Resolve(dir, ""); got != NestJS {
		t.Errorf("Resolve = %q, want nestjs (detector order)", got)
	}
}

func TestResolveDefaultsToNestJS(t *testing.T) {
	dir := t.TempDir()
	if got := Resolve(dir, ""); got != NestJS {
		t.Errorf("Resolve = %q, want nestjs default", got)
	}
}

func TestResolveNonNestPackageJSONFallsThrough(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "package.json", `{"dependencies":{"express":"^4.0.0"}}`)
	write(t, dir, "composer.json", `{"require":{"laravel/framework":"^10.0"}}`)
	if got := Resolve(dir, ""); got != Laravel {
		t.Errorf("Resolve = %q, want laravel", got)
	}
}
