package container

import "errors"

// Sentinel errors for the deploy-path error kinds of spec.md §7. Callers
// (e.g. the webhook handler) can match on these with errors.Is even
// after the concrete command/reason text is wrapped in.
var (
	// ErrBuildCommandFailed: a build_commands[i] entry exited non-zero.
	ErrBuildCommandFailed = errors.New("container: build command failed")
	// ErrContainerUp: `compose up` exited non-zero.
	ErrContainerUp = errors.New("container: compose up failed")
	// ErrHealthCheckTimeout: the health-check poll loop exhausted its
	// attempt budget without a 2xx response.
	ErrHealthCheckTimeout = errors.New("container: health check timed out")
)
