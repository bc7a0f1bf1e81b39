package repoconfig

import "errors"

// Sentinel errors surfaced to the webhook/deploy path per spec.md §7.
var (
	// ErrConfigMissing indicates preview-config.yml does not exist at the
	// repository root.
	ErrConfigMissing = errors.New("repoconfig: preview-config.yml not found")
	// ErrConfigInvalid indicates a YAML parse failure or a schema violation.
	// The returned error always wraps this sentinel with the offending
	// field or parse detail via fmt.Errorf("%w: ...", ErrConfigInvalid, ...).
	ErrConfigInvalid = errors.New("repoconfig: preview-config.yml invalid")
)

var validFrameworks = map[string]bool{
	"nestjs":  true,
	"go":      true,
	"laravel": true,
	"rust":    true,
	"python":  true,
}

var validDatabases = map[string]bool{
	"postgres": true,
	"mysql":    true,
	"mongodb":  true,
}

var validExtraServices = map[string]bool{
	"redis": true,
}
