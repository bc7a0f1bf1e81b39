package compose

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/previewhost/prevd/internal/framework"
	"github.com/previewhost/prevd/internal/repoconfig"
)

func baseParams() Params {
	return Params{
		ProjectSlug:    "acme-api",
		PRNumber:       42,
		Framework:      framework.Go,
		DBType:         "postgres",
		AppPort:        8080,
		AppPortEnv:     "PORT",
		ExposedAppPort: 8000,
		ExposedDBPort:  9000,
	}
}

func baseConfig() *repoconfig.Config {
	return &repoconfig.Config{
		Framework:     "go",
		Database:      "postgres",
		AppPort:       8080,
		AppPortEnv:    "PORT",
		AppEntrypoint: "server",
	}
}

func TestMaterializeTemplateGenerated(t *testing.T) {
	dir := t.TempDir()
	path, err := Materialize(dir, baseParams(), baseConfig())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if filepath.Base(path) != generatedComposeOut {
		t.Errorf("output path = %s, want %s", path, generatedComposeOut)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read generated compose: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse generated compose: %v", err)
	}
	services := doc["services"].(map[string]any)
	if _, ok := services["postgres"]; !ok {
		t.Errorf("expected postgres service, got %v", services)
	}
	app := services["app"].(map[string]any)
	env := app["environment"].(map[string]any)
	if !strings.HasPrefix(env["DATABASE_URL"].(string), "postgres://") {
		t.Errorf("DATABASE_URL = %v, want postgres:// scheme", env["DATABASE_URL"])
	}

	dockerfilePath := filepath.Join(dir, "Dockerfile")
	if !fileExists(dockerfilePath) {
		t.Error("expected Dockerfile to be written")
	}
}

func TestMaterializeStartupCommandsWrapEntrypoint(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.StartupCommands = []string{"./migrate", "./seed"}
	path, err := Materialize(dir, baseParams(), cfg)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	data, _ := os.ReadFile(path)
	var doc map[string]any
	_ = yaml.Unmarshal(data, &doc)
	app := doc["services"].(map[string]any)["app"].(map[string]any)
	entrypoint := app["entrypoint"].([]any)
	if len(entrypoint) != 4 {
		t.Fatalf("entrypoint = %v, want 4 elements", entrypoint)
	}
	script := entrypoint[2].(string)
	if !strings.Contains(script, "./migrate && ./seed") || !strings.Contains(script, `exec "$@"`) {
		t.Errorf("entrypoint script = %q, missing expected chain", script)
	}
	cmd := app["command"].([]any)
	if len(cmd) != 1 || cmd[0] != "./server" {
		t.Errorf("command = %v, want [./server]", cmd)
	}
}

func TestMaterializeRepoOwnedComposeNormalizesYAMLExtension(t *testing.T) {
	dir := t.TempDir()
	content := `services:
  app:
    build: .
    ports:
      - "1234:1234"
`
	if err := os.WriteFile(filepath.Join(dir, repoOwnedYAML), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := Materialize(dir, baseParams(), baseConfig())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	if fileExists(filepath.Join(dir, repoOwnedYAML)) {
		t.Error("expected .yaml file to be renamed away")
	}
	if !fileExists(filepath.Join(dir, repoOwnedYML)) {
		t.Error("expected normalized .yml file to exist")
	}

	data, _ := os.ReadFile(path)
	var doc map[string]any
	_ = yaml.Unmarshal(data, &doc)
	app := doc["services"].(map[string]any)["app"].(map[string]any)
	ports := app["ports"].([]any)
	if len(ports) != 1 || ports[0] != "8000:8080" {
		t.Errorf("ports = %v, want host authority override [8000:8080]", ports)
	}
}

func TestResolveDockerfileUsesExisting(t *testing.T) {
	dir := t.TempDir()
	custom := "FROM scratch\n"
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ResolveDockerfile(dir, framework.Go, "server", 8080, "postgres"); err != nil {
		t.Fatalf("ResolveDockerfile: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	if string(data) != custom {
		t.Errorf("Dockerfile was overwritten, want existing content preserved")
	}
}

func TestResolveDockerfileCopiesLowercase(t *testing.T) {
	dir := t.TempDir()
	custom := "FROM alpine\n"
	if err := os.WriteFile(filepath.Join(dir, "dockerfile"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ResolveDockerfile(dir, framework.Go, "server", 8080, "postgres"); err != nil {
		t.Fatalf("ResolveDockerfile: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	if err != nil {
		t.Fatalf("Dockerfile not created: %v", err)
	}
	if string(data) != custom {
		t.Errorf("Dockerfile content = %q, want copied lowercase content", data)
	}
}

func TestResolveDockerfileRendersTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := ResolveDockerfile(dir, framework.Python, "main:app", 9090, "postgres"); err != nil {
		t.Fatalf("ResolveDockerfile: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	if err != nil {
		t.Fatalf("Dockerfile not created: %v", err)
	}
	if !strings.Contains(string(data), "uvicorn") || !strings.Contains(string(data), "9090") {
		t.Errorf("rendered Dockerfile missing expected content: %s", data)
	}
}
