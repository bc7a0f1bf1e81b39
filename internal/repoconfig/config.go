// Package repoconfig reads and validates the per-repository
// preview-config.yml that drives how a pull-request preview is built and
// run (spec.md §3, §4.2).
package repoconfig

// Config is the validated content of preview-config.yml.
type Config struct {
	Framework       string   `yaml:"framework"`
	Database        string   `yaml:"database"`
	HealthCheckPath string   `yaml:"health_check_path"`
	AppPort         int      `yaml:"app_port"`
	AppPortEnv      string   `yaml:"app_port_env"`
	AppEntrypoint   string   `yaml:"app_entrypoint"`
	BuildCommands   []string `yaml:"build_commands,omitempty"`
	ExtraServices   []string `yaml:"extra_services,omitempty"`
	Env             []string `yaml:"env,omitempty"`
	EnvFile         string   `yaml:"env_file,omitempty"`
	StartupCommands []string `yaml:"startup_commands,omitempty"`
	Dockerfile      string   `yaml:"dockerfile,omitempty"`
}
