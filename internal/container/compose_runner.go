package container

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
)

// composeProjectName is the character class compose accepts for -p.
var composeProjectName = regexp.MustCompile(`^[a-z0-9_-]+$`)

// composeUp runs `docker compose -p <projectID> -f <composeFile> up -d --build`
// in dir, after checking projectID against composeProjectName.
func composeUp(ctx context.Context, dir, composeFile, projectID string) error {
	if !composeProjectName.MatchString(projectID) {
		return fmt.Errorf("%w: invalid compose project name %q", ErrContainerUp, projectID)
	}
	cmd := exec.CommandContext(ctx, "docker", "compose", "-p", projectID, "-f", composeFile, "up", "-d", "--build")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %v: %s", ErrContainerUp, err, out)
	}
	return nil
}

// composeDown runs `docker compose -p <projectID> -f <composeFile> down -v`
// in dir. Errors are returned, not swallowed; callers decide whether a
// missing compose file makes the error ignorable.
func composeDown(ctx context.Context, dir, composeFile, projectID string) error {
	cmd := exec.CommandContext(ctx, "docker", "compose", "-p", projectID, "-f", composeFile, "down", "-v")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("container: compose down failed: %w: %s", err, out)
	}
	return nil
}

// runBuildCommand runs one build_commands entry in dir via /bin/sh -c.
func runBuildCommand(ctx context.Context, dir, command string) error {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %q: %v: %s", ErrBuildCommandFailed, command, err, out)
	}
	return nil
}
