// Package dockerengine is a thin wrapper around the Docker SDK used to
// query the host's container engine: which host ports are currently
// bound, and an app container's run state (spec.md §4.8).
package dockerengine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Client wraps the Docker SDK client.
type Client struct {
	inner *client.Client
}

// New creates a Docker client using environment defaults (DOCKER_HOST,
// DOCKER_TLS_VERIFY, etc.).
func New() (*Client, error) {
	inner, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("dockerengine: create client: %w", err)
	}
	return &Client{inner: inner}, nil
}

// Ping validates connectivity to the Docker daemon.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.inner.Ping(ctx); err != nil {
		return fmt.Errorf("dockerengine: ping: %w", err)
	}
	return nil
}

// Close releases resources held by the underlying client.
func (c *Client) Close() error {
	return c.inner.Close()
}

// ListBoundHostPorts returns every host port currently published by any
// running container, used as the exclude set for port allocation.
func (c *Client) ListBoundHostPorts(ctx context.Context) ([]int, error) {
	containers, err := c.inner.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("dockerengine: list containers: %w", err)
	}

	seen := map[int]bool{}
	var ports []int
	for _, ctr := range containers {
		for _, p := range ctr.Ports {
			if p.PublicPort == 0 || seen[int(p.PublicPort)] {
				continue
			}
			seen[int(p.PublicPort)] = true
			ports = append(ports, int(p.PublicPort))
		}
	}
	return ports, nil
}

// Status is an app container's observed run state.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusFailed  Status = "failed"
)

// ContainerStatus inspects the container named name and classifies its
// state. A missing container is reported as StatusStopped.
func (c *Client) ContainerStatus(ctx context.Context, name string) (Status, error) {
	info, err := c.inner.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return StatusStopped, nil
		}
		return "", fmt.Errorf("dockerengine: inspect %s: %w", name, err)
	}
	if info.State == nil {
		return StatusStopped, nil
	}

	switch {
	case info.State.Running:
		return StatusRunning, nil
	case info.State.ExitCode != 0:
		return StatusFailed, nil
	default:
		return StatusStopped, nil
	}
}

// containerName builds the canonical app container name
// "<projectSlug>-pr-<N>-app". This is not the name compose assigns under
// its project id ("<projectId>-app-1" for a service named "app").
func containerName(projectSlug string, prNumber int) string {
	return strings.Join([]string{projectSlug, "pr-" + strconv.Itoa(prNumber), "app"}, "-")
}

// ContainerName returns the well-known app container name for a
// deployment, per spec.md §4.8.
func ContainerName(projectSlug string, prNumber int) string {
	return containerName(projectSlug, prNumber)
}
