package proxy

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

// ShellReloader runs the proxy binary's config-test-then-reload pair on
// the host, e.g. "nginx -t && nginx -s reload". This is the default
// reload strategy.
type ShellReloader struct {
	TestCommand   []string
	ReloadCommand []string
}

// NewShellReloader returns the default nginx test-then-reload pair.
func NewShellReloader() *ShellReloader {
	return &ShellReloader{
		TestCommand:   []string{"nginx", "-t"},
		ReloadCommand: []string{"nginx", "-s", "reload"},
	}
}

func (r *ShellReloader) Reload(ctx context.Context) error {
	if out, err := runCommand(ctx, r.TestCommand); err != nil {
		return fmt.Errorf("%w: config test: %v\n%s", ErrProxyReload, err, out)
	}
	if out, err := runCommand(ctx, r.ReloadCommand); err != nil {
		return fmt.Errorf("%w: reload: %v\n%s", ErrProxyReload, err, out)
	}
	return nil
}

func runCommand(ctx context.Context, argv []string) (string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// execPollInterval is how often a running exec is re-inspected while
// waiting for it to finish.
const execPollInterval = 50 * time.Millisecond

// execClient is the subset of *client.Client the Docker-exec reloader
// needs; an interface so tests can inject a fake.
type execClient interface {
	ContainerExecCreate(ctx context.Context, container string, config container.ExecOptions) (container.ExecCreateResponse, error)
	ContainerExecStart(ctx context.Context, execID string, config container.ExecStartOptions) error
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
	Close() error
}

// DockerExecReloader reloads nginx running inside a named container by
// exec'ing the test-then-reload pair in it, rather than on the host.
type DockerExecReloader struct {
	client    execClient
	container string
}

// NewDockerExecReloader dials the local Docker engine and targets the
// named nginx container.
func NewDockerExecReloader(container string) (*DockerExecReloader, error) {
	container = strings.TrimSpace(container)
	if container == "" {
		return nil, fmt.Errorf("proxy: container name required")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("proxy: docker client: %w", err)
	}
	return &DockerExecReloader{client: cli, container: container}, nil
}

func (r *DockerExecReloader) Reload(ctx context.Context) error {
	if err := r.exec(ctx, []string{"nginx", "-t"}); err != nil {
		return fmt.Errorf("%w: config test in %s: %v", ErrProxyReload, r.container, err)
	}
	if err := r.exec(ctx, []string{"nginx", "-s", "reload"}); err != nil {
		return fmt.Errorf("%w: reload in %s: %v", ErrProxyReload, r.container, err)
	}
	return nil
}

// exec creates and starts argv inside the container, then polls
// ContainerExecInspect until it finishes so a non-zero exit is actually
// surfaced — ContainerExecStart only confirms the daemon accepted the
// start request, not that the command succeeded.
func (r *DockerExecReloader) exec(ctx context.Context, argv []string) error {
	created, err := r.client.ContainerExecCreate(ctx, r.container, container.ExecOptions{
		Cmd:          argv,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("nginx container %s not found", r.container)
		}
		return err
	}
	if err := r.client.ContainerExecStart(ctx, created.ID, container.ExecStartOptions{}); err != nil {
		return err
	}

	for {
		inspect, err := r.client.ContainerExecInspect(ctx, created.ID)
		if err != nil {
			return fmt.Errorf("inspect exec %s: %w", created.ID, err)
		}
		if inspect.Running {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(execPollInterval):
				continue
			}
		}
		if inspect.ExitCode != 0 {
			return fmt.Errorf("%w: %q exited %d", ErrProxyReload, strings.Join(argv, " "), inspect.ExitCode)
		}
		return nil
	}
}

func (r *DockerExecReloader) Close() error {
	return r.client.Close()
}

// NoopReloader performs no action; used by tests.
type NoopReloader struct{}

func (NoopReloader) Reload(ctx context.Context) error { return nil }
