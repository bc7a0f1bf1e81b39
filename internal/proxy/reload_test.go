package proxy

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types/container"
)

// fakeExecClient fakes just enough of the Docker SDK for
// DockerExecReloader.exec to be tested without a real daemon.
type fakeExecClient struct {
	execIDs   int
	exitCodes map[string]int64
	createErr error
	startErr  error
}

func (f *fakeExecClient) ContainerExecCreate(ctx context.Context, containerID string, config container.ExecOptions) (container.ExecCreateResponse, error) {
	if f.createErr != nil {
		return container.ExecCreateResponse{}, f.createErr
	}
	f.execIDs++
	id := string(rune('a' + f.execIDs))
	return container.ExecCreateResponse{ID: id}, nil
}

func (f *fakeExecClient) ContainerExecStart(ctx context.Context, execID string, config container.ExecStartOptions) error {
	return f.startErr
}

func (f *fakeExecClient) ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error) {
	return container.ExecInspect{
		Running:  false,
		ExitCode: int(f.exitCodes[execID]),
	}, nil
}

func (f *fakeExecClient) Close() error { return nil }

func TestDockerExecReloaderSucceedsOnZeroExit(t *testing.T) {
	fake := &fakeExecClient{exitCodes: map[string]int64{}}
	r := &DockerExecReloader{client: fake, container: "nginx-preview"}

	if err := r.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
}

func TestDockerExecReloaderFailsOnNonZeroExit(t *testing.T) {
	fake := &fakeExecClient{exitCodes: map[string]int64{"b": 1}}
	r := &DockerExecReloader{client: fake, container: "nginx-preview"}

	err := r.Reload(context.Background())
	if err == nil {
		t.Fatal("expected error for non-zero exec exit code")
	}
	if !errors.Is(err, ErrProxyReload) {
		t.Errorf("error = %v, want wrapping ErrProxyReload", err)
	}
}

func TestDockerExecReloaderSurfacesStartError(t *testing.T) {
	fake := &fakeExecClient{startErr: errors.New("daemon unreachable")}
	r := &DockerExecReloader{client: fake, container: "nginx-preview"}

	if err := r.Reload(context.Background()); err == nil {
		t.Fatal("expected error when exec start fails")
	}
}
