package compose

import (
	"fmt"
	"strings"

	"github.com/previewhost/prevd/internal/framework"
	"github.com/previewhost/prevd/internal/repoconfig"
)

// Params carries everything the materializer needs to render a
// docker-compose document for one deployment (spec.md §4.5).
type Params struct {
	ProjectSlug    string
	PRNumber       int
	Framework      string
	DBType         string
	AppPort        int
	AppPortEnv     string
	ExposedAppPort int
	ExposedDBPort  int
}

// generate builds a template-generated compose document: a per-framework
// app service plus one block per (database ∪ extra_services) entry,
// merged per spec.md §4.5's env/depends_on rules.
func generate(p Params, cfg *repoconfig.Config) map[string]any {
	app := map[string]any{
		"build": map[string]any{"context": "."},
		"ports": []string{fmt.Sprintf("%d:%d", p.ExposedAppPort, p.AppPort)},
		"environment": map[string]string{
			p.AppPortEnv: fmt.Sprintf("%d", p.AppPort),
		},
	}

	services := map[string]any{}
	dependsOn := map[string]any{}
	env := app["environment"].(map[string]string)

	if db, ok := dbServices[p.DBType]; ok {
		services[db.name] = db.serviceBlock()
		env["DATABASE_URL"] = db.databaseURL(p.PRNumber)
		dependsOn[db.name] = map[string]string{"condition": "service_healthy"}
	}

	for _, svc := range cfg.ExtraServices {
		builder, ok := extraServices[svc]
		if !ok {
			continue
		}
		services[svc] = builder()
		if svc == "redis" {
			env["REDIS_URL"] = "redis://redis:6379"
		}
		dependsOn[svc] = map[string]string{"condition": "service_healthy"}
	}

	if len(dependsOn) > 0 {
		app["depends_on"] = dependsOn
	}

	applyRepoConfigToApp(app, env, p, cfg)

	services["app"] = app
	return map[string]any{
		"services": services,
	}
}

// applyRepoConfigToApp layers repoConfig.env/env_file/startup_commands onto
// the app service, per spec.md §4.5.
func applyRepoConfigToApp(app map[string]any, env map[string]string, p Params, cfg *repoconfig.Config) {
	for _, kv := range cfg.Env {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	if cfg.EnvFile != "" {
		app["env_file"] = []string{cfg.EnvFile}
	}

	if len(cfg.StartupCommands) == 0 {
		return
	}

	script := strings.Join(cfg.StartupCommands, " && ") + ` && exec "$@"`
	app["entrypoint"] = []string{"/bin/sh", "-c", script, "--"}
	app["command"] = defaultProcessArgv(p.Framework, cfg.AppEntrypoint, p.AppPort)
}

// defaultProcessArgv is the framework's default process argv, used as the
// compose "command" behind a startup_commands entrypoint wrapper.
func defaultProcessArgv(fw, appEntrypoint string, appPort int) []string {
	switch fw {
	case framework.NestJS:
		return []string{"node", appEntrypoint}
	case framework.Go, framework.Rust:
		return []string{"./" + appEntrypoint}
	case framework.Python:
		return []string{"uvicorn", appEntrypoint, "--host", "0.0.0.0", "--port", fmt.Sprintf("%d", appPort)}
	case framework.Laravel:
		return []string{"php", "artisan", "serve", "--host=0.0.0.0", fmt.Sprintf("--port=%d", appPort)}
	default:
		return []string{"./" + appEntrypoint}
	}
}
