package repoconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const fileName = "preview-config.yml"

// Parse reads and validates preview-config.yml from the root of a cloned
// repository at dir. There are no defaults for required fields: every
// required field must be present and well-formed, or parsing fails.
func Parse(dir string) (*Config, error) {
	path := filepath.Join(dir, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigMissing
		}
		return nil, fmt.Errorf("repoconfig: read %s: %w", path, err)
	}
	return parseBytes(data)
}

func parseBytes(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	cfg := &Config{}

	framework, err := requiredString(raw, "framework")
	if err != nil {
		return nil, err
	}
	if !validFrameworks[framework] {
		return nil, fmt.Errorf("%w: unknown framework %q", ErrConfigInvalid, framework)
	}
	cfg.Framework = framework

	database, err := requiredString(raw, "database")
	if err != nil {
		return nil, err
	}
	if !validDatabases[database] {
		return nil, fmt.Errorf("%w: unknown database %q", ErrConfigInvalid, database)
	}
	cfg.Database = database

	healthPath, err := requiredString(raw, "health_check_path")
	if err != nil {
		return nil, err
	}
	cfg.HealthCheckPath = normalizeHealthPath(healthPath)

	appPort, err := requiredInt(raw, "app_port")
	if err != nil {
		return nil, err
	}
	if appPort <= 0 {
		return nil, fmt.Errorf("%w: app_port must be positive, got %d", ErrConfigInvalid, appPort)
	}
	cfg.AppPort = appPort

	appPortEnv, err := requiredString(raw, "app_port_env")
	if err != nil {
		return nil, err
	}
	cfg.AppPortEnv = appPortEnv

	appEntrypoint, err := requiredString(raw, "app_entrypoint")
	if err != nil {
		return nil, err
	}
	cfg.AppEntrypoint = appEntrypoint

	cfg.BuildCommands, err = optionalStringSlice(raw, "build_commands")
	if err != nil {
		return nil, err
	}

	cfg.ExtraServices, err = optionalStringSlice(raw, "extra_services")
	if err != nil {
		return nil, err
	}
	for _, svc := range cfg.ExtraServices {
		if !validExtraServices[svc] {
			return nil, fmt.Errorf("%w: unknown extra_service %q", ErrConfigInvalid, svc)
		}
	}

	cfg.Env, err = optionalStringSlice(raw, "env")
	if err != nil {
		return nil, err
	}

	if v, ok := raw["env_file"]; ok {
		switch vv := v.(type) {
		case string:
			cfg.EnvFile = vv
		case []any:
			return nil, fmt.Errorf("%w: env_file must be a single scalar path, not a sequence", ErrConfigInvalid)
		default:
			return nil, fmt.Errorf("%w: env_file must be a string", ErrConfigInvalid)
		}
	}

	cfg.StartupCommands, err = optionalStringSlice(raw, "startup_commands")
	if err != nil {
		return nil, err
	}

	if v, ok := raw["dockerfile"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: dockerfile must be a string", ErrConfigInvalid)
		}
		cfg.Dockerfile = s
	}

	return cfg, nil
}

// Serialize renders cfg back to YAML, used by tests verifying the
// parse-serialize round trip (spec.md §8 invariant 6).
func Serialize(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func normalizeHealthPath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

func requiredString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok {
		return "", fmt.Errorf("%w: missing required field %q", ErrConfigInvalid, key)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: field %q must be a non-empty string", ErrConfigInvalid, key)
	}
	return s, nil
}

func requiredInt(raw map[string]any, key string) (int, error) {
	v, ok := raw[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing required field %q", ErrConfigInvalid, key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: field %q must be an integer", ErrConfigInvalid, key)
	}
}

func optionalStringSlice(raw map[string]any, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: field %q must be a list of strings", ErrConfigInvalid, key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must contain only strings", ErrConfigInvalid, key)
		}
		out = append(out, s)
	}
	return out, nil
}
