package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/previewhost/prevd/internal/repoconfig"
)

const (
	repoOwnedYML        = "docker-compose.preview.yml"
	repoOwnedYAML       = "docker-compose.preview.yaml"
	generatedComposeOut = "docker-compose.preview.generated.yml"
)

// findRepoOwnedCompose returns the path to the repo's own preview compose
// file, normalizing a ".yaml" name to ".yml" by renaming it in place, or
// "" if neither exists.
func findRepoOwnedCompose(workDir string) (string, error) {
	ymlPath := filepath.Join(workDir, repoOwnedYML)
	if fileExists(ymlPath) {
		return ymlPath, nil
	}
	yamlPath := filepath.Join(workDir, repoOwnedYAML)
	if fileExists(yamlPath) {
		if err := os.Rename(yamlPath, ymlPath); err != nil {
			return "", fmt.Errorf("compose: normalize %s to .yml: %w", yamlPath, err)
		}
		return ymlPath, nil
	}
	return "", nil
}

// materializeRepoOwned parses the repo's own compose file and injects the
// host port mapping and repo-config env/startup overrides onto its app
// service, per spec.md §4.5.
func materializeRepoOwned(path string, p Params, cfg *repoconfig.Config) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compose: read %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("compose: parse %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	services, _ := doc["services"].(map[string]any)
	if services == nil {
		services = map[string]any{}
	}

	app, _ := services["app"].(map[string]any)
	if app == nil {
		app = map[string]any{}
	}

	// The host is the sole authority on host ports: any ports the repo
	// declared for app are overwritten.
	app["ports"] = []string{fmt.Sprintf("%d:%d", p.ExposedAppPort, cfg.AppPort)}

	env := stringMapOf(app["environment"])
	env[p.AppPortEnv] = fmt.Sprintf("%d", cfg.AppPort)
	applyRepoConfigToApp(app, env, p, cfg)
	app["environment"] = env

	services["app"] = app
	doc["services"] = services
	return doc, nil
}

// stringMapOf coerces a compose "environment" value (map or list form) into
// a plain string map for merging.
func stringMapOf(v any) map[string]string {
	out := map[string]string{}
	switch vv := v.(type) {
	case map[string]any:
		for k, val := range vv {
			out[k] = fmt.Sprintf("%v", val)
		}
	case []any:
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				continue
			}
			parts := strings.SplitN(s, "=", 2)
			if len(parts) == 2 {
				out[parts[0]] = parts[1]
			}
		}
	}
	return out
}
