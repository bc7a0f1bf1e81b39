package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all runtime configuration for the orchestrator daemon,
// loaded once at startup from the environment variables in spec.md §6.
type Config struct {
	GitHubToken         string
	WebhookSecret       string
	AllowedRepos        []string
	PreviewBaseURL      string
	DeploymentsDir      string
	NginxConfigDir      string
	DeploymentsDBPath   string
	CleanupTTLDays      int
	OrchestratorPort    int
	LogLevel            string
	NginxReloadCommand  string
	NginxContainerName  string
	UseDockerExecReload bool
	RateLimitRedisAddr  string
	RateLimitRedisPass  string
	RateLimitRedisDB    int
	HealthCheckTimeout  time.Duration
	HealthCheckInterval time.Duration
	HealthCheckAttempts int
	ReconcileInterval   time.Duration
}

// Load reads Config from the environment, returning an error naming every
// missing required variable.
func Load() (Config, error) {
	cfg := Config{
		GitHubToken:         GetString("GITHUB_TOKEN", ""),
		WebhookSecret:       GetString("GITHUB_WEBHOOK_SECRET", ""),
		PreviewBaseURL:      strings.TrimRight(GetString("PREVIEW_BASE_URL", ""), "/"),
		DeploymentsDir:      GetString("DEPLOYMENTS_DIR", "/opt/preview-deployments"),
		NginxConfigDir:      GetString("NGINX_CONFIG_DIR", "/etc/nginx/preview-configs"),
		DeploymentsDBPath:   GetString("DEPLOYMENTS_DB", "/opt/preview-deployer/deployments.json"),
		CleanupTTLDays:      GetInt("CLEANUP_TTL_DAYS", 7),
		OrchestratorPort:    GetInt("ORCHESTRATOR_PORT", 3000),
		LogLevel:            GetString("LOG_LEVEL", "info"),
		NginxReloadCommand:  GetString("NGINX_RELOAD_COMMAND", "nginx -s reload"),
		NginxContainerName:  GetString("NGINX_CONTAINER_NAME", ""),
		UseDockerExecReload: GetBool("NGINX_RELOAD_VIA_DOCKER", false),
		RateLimitRedisAddr:  GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass:  GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:    GetInt("RATE_LIMIT_REDIS_DB", 0),
		HealthCheckTimeout:  time.Duration(GetInt("HEALTH_CHECK_TIMEOUT_SECONDS", 2)) * time.Second,
		HealthCheckInterval: time.Duration(GetInt("HEALTH_CHECK_INTERVAL_SECONDS", 5)) * time.Second,
		HealthCheckAttempts: GetInt("HEALTH_CHECK_ATTEMPTS", 15),
		ReconcileInterval:   time.Duration(GetInt("CLEANUP_INTERVAL_HOURS", 6)) * time.Hour,
	}

	raw := GetString("ALLOWED_REPOS", "")
	for _, r := range strings.Split(raw, ",") {
		r = strings.TrimSpace(r)
		if r != "" {
			cfg.AllowedRepos = append(cfg.AllowedRepos, r)
		}
	}

	var missing []string
	if cfg.GitHubToken == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if cfg.WebhookSecret == "" {
		missing = append(missing, "GITHUB_WEBHOOK_SECRET")
	}
	if len(cfg.AllowedRepos) == 0 {
		missing = append(missing, "ALLOWED_REPOS")
	}
	if cfg.PreviewBaseURL == "" {
		missing = append(missing, "PREVIEW_BASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// IsRepoAllowed reports whether fullName ("owner/name") is in the configured
// allow-list.
func (c Config) IsRepoAllowed(fullName string) bool {
	for _, r := range c.AllowedRepos {
		if r == fullName {
			return true
		}
	}
	return false
}
