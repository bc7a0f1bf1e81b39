package container

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// gitClone clones cloneURL into dir (which must already exist and be
// empty), matching the teacher's terminal-prompt-disabled invocation.
func gitClone(ctx context.Context, cloneURL, dir string) error {
	if cloneURL == "" {
		return fmt.Errorf("container: clone URL cannot be empty")
	}
	cmd := exec.CommandContext(ctx, "git", "clone", cloneURL, ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("container: git clone failed: %w: %s", err, out)
	}
	return nil
}

func gitCheckout(ctx context.Context, dir, branch string) error {
	cmd := exec.CommandContext(ctx, "git", "checkout", branch)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("container: git checkout %s failed: %w: %s", branch, err, out)
	}
	return nil
}

func gitResetHard(ctx context.Context, dir, sha string) error {
	cmd := exec.CommandContext(ctx, "git", "reset", "--hard", sha)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("container: git reset --hard %s failed: %w: %s", sha, err, out)
	}
	return nil
}

func gitFetchOrigin(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, "git", "fetch", "origin")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("container: git fetch origin failed: %w: %s", err, out)
	}
	return nil
}
