// Package container drives the per-deployment lifecycle: cloning a repo,
// building its Dockerfile/compose file, bringing it up, health-gating it,
// and tearing it down again (spec.md §4.8).
package container

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/previewhost/prevd/internal/compose"
	"github.com/previewhost/prevd/internal/dockerengine"
	"github.com/previewhost/prevd/internal/framework"
	"github.com/previewhost/prevd/internal/repoconfig"
	"github.com/previewhost/prevd/internal/tracker"
)

// DockerEngine is the subset of dockerengine.Client the manager needs;
// an interface so tests can inject a fake.
type DockerEngine interface {
	ListBoundHostPorts(ctx context.Context) ([]int, error)
	ContainerStatus(ctx context.Context, name string) (dockerengine.Status, error)
}

// Progress receives best-effort build/health-check progress lines. A
// nil-safe no-op implementation is used when log streaming is disabled.
type Progress interface {
	Publish(deploymentID, line string)
}

type noopProgress struct{}

func (noopProgress) Publish(string, string) {}

// Request is the input to deployPreview: everything derived from the
// webhook payload and C1's slug/id computation.
type Request struct {
	DeploymentID string
	ProjectSlug  string
	PRNumber     int
	RepoOwner    string
	RepoName     string
	Branch       string
	CommitSHA    string
	CloneURL     string
}

// Result is what deployPreview/updatePreview hand back to the webhook
// handler to persist via the tracker.
type Result struct {
	URL            string
	AppPort        int
	ExposedAppPort int
	ExposedDBPort  int
	Framework      string
	DBType         string
}

// Manager orchestrates clone → build → compose up → health-check for one
// deployment at a time (callers serialize per-deploymentId via
// internal/locks).
type Manager struct {
	store          *tracker.Store
	workspace      *workspace
	engine         DockerEngine
	previewBaseURL string
	health         healthPollConfig
	log            *slog.Logger
	progress       Progress
}

// New constructs a Manager. workDir is the root under which per-deployment
// working trees are created.
func New(store *tracker.Store, workDir string, engine DockerEngine, previewBaseURL string, log *slog.Logger) (*Manager, error) {
	ws, err := newWorkspace(workDir)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:          store,
		workspace:      ws,
		engine:         engine,
		previewBaseURL: previewBaseURL,
		health:         defaultHealthPollConfig(),
		log:            log,
		progress:       noopProgress{},
	}, nil
}

// WithProgress attaches a Progress sink (e.g. the logstream hub) for
// build/health-check lines.
func (m *Manager) WithProgress(p Progress) *Manager {
	if p != nil {
		m.progress = p
	}
	return m
}

func (m *Manager) publish(id, format string, args ...any) {
	m.progress.Publish(id, fmt.Sprintf(format, args...))
}

// DeployPreview implements the full deploy algorithm of spec.md §4.8. On
// any failure it invokes CleanupPreview and returns the original error.
func (m *Manager) DeployPreview(ctx context.Context, req Request) (*Result, error) {
	result, err := m.deploy(ctx, req, req.CommitSHA)
	if err != nil {
		if cleanupErr := m.CleanupPreview(ctx, req.DeploymentID); cleanupErr != nil {
			m.log.Error("container: cleanup after failed deploy also failed", "deploymentId", req.DeploymentID, "error", cleanupErr)
		}
		return nil, err
	}
	return result, nil
}

func (m *Manager) deploy(ctx context.Context, req Request, commitSHA string) (*Result, error) {
	m.publish(req.DeploymentID, "preparing workspace")
	workDir, err := m.workspace.prepare(req.ProjectSlug, req.PRNumber)
	if err != nil {
		return nil, err
	}

	excludePorts, err := m.engine.ListBoundHostPorts(ctx)
	if err != nil {
		m.log.Warn("container: list bound host ports failed, degrading to empty exclude set", "error", err)
		excludePorts = nil
	}
	alloc, err := m.store.AllocatePorts(req.DeploymentID, excludePorts)
	if err != nil {
		return nil, fmt.Errorf("container: allocate ports: %w", err)
	}

	m.publish(req.DeploymentID, "cloning %s", req.CloneURL)
	if err := gitClone(ctx, req.CloneURL, workDir); err != nil {
		return nil, err
	}
	if err := gitCheckout(ctx, workDir, req.Branch); err != nil {
		return nil, err
	}
	if err := gitResetHard(ctx, workDir, commitSHA); err != nil {
		return nil, err
	}

	repoCfg, err := repoconfig.Parse(workDir)
	if err != nil {
		return nil, err
	}
	fw := framework.Resolve(workDir, repoCfg.Framework)

	m.publish(req.DeploymentID, "running build commands")
	for i, cmd := range repoCfg.BuildCommands {
		if err := runBuildCommand(ctx, workDir, cmd); err != nil {
			return nil, fmt.Errorf("container: build command %d failed: %w", i, err)
		}
	}

	composeParams := compose.Params{
		ProjectSlug:    req.ProjectSlug,
		PRNumber:       req.PRNumber,
		Framework:      fw,
		DBType:         repoCfg.Database,
		AppPort:        repoCfg.AppPort,
		AppPortEnv:     repoCfg.AppPortEnv,
		ExposedAppPort: alloc.ExposedAppPort,
		ExposedDBPort:  alloc.ExposedDBPort,
	}
	composeFile, err := compose.Materialize(workDir, composeParams, repoCfg)
	if err != nil {
		return nil, err
	}

	m.publish(req.DeploymentID, "building and starting containers")
	if err := composeUp(ctx, workDir, composeFile, req.DeploymentID); err != nil {
		return nil, err
	}

	healthURL := fmt.Sprintf("http://localhost:%d%s", alloc.ExposedAppPort, repoCfg.HealthCheckPath)
	m.publish(req.DeploymentID, "polling %s", healthURL)
	if err := pollHealth(healthURL, m.health, func(attempt int, attemptErr error) {
		if attemptErr != nil {
			m.publish(req.DeploymentID, "health check attempt %d failed: %v", attempt, attemptErr)
		} else {
			m.publish(req.DeploymentID, "health check passed on attempt %d", attempt)
		}
	}); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/pr-%d/", m.previewBaseURL, req.ProjectSlug, req.PRNumber)
	return &Result{
		URL:            url,
		AppPort:        repoCfg.AppPort,
		ExposedAppPort: alloc.ExposedAppPort,
		ExposedDBPort:  alloc.ExposedDBPort,
		Framework:      fw,
		DBType:         repoCfg.Database,
	}, nil
}

// UpdatePreview re-syncs the working tree to newSHA and re-runs the
// compose-up/health-check steps, per spec.md §4.8.
func (m *Manager) UpdatePreview(ctx context.Context, deploymentID, newSHA string) (*Result, error) {
	d, err := m.store.GetDeployment(deploymentID)
	if err != nil {
		return nil, err
	}

	workDir := m.workspace.dirFor(d.ProjectSlug, d.PRNumber)
	m.publish(deploymentID, "fetching updates")
	if err := gitFetchOrigin(ctx, workDir); err != nil {
		return nil, err
	}
	if err := gitResetHard(ctx, workDir, newSHA); err != nil {
		return nil, err
	}

	repoCfg, err := repoconfig.Parse(workDir)
	if err != nil {
		return nil, err
	}
	fw := framework.Resolve(workDir, repoCfg.Framework)

	for i, cmd := range repoCfg.BuildCommands {
		if err := runBuildCommand(ctx, workDir, cmd); err != nil {
			return nil, fmt.Errorf("container: build command %d failed: %w", i, err)
		}
	}

	alloc, err := m.store.AllocatePorts(deploymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("container: allocate ports: %w", err)
	}

	composeParams := compose.Params{
		ProjectSlug:    d.ProjectSlug,
		PRNumber:       d.PRNumber,
		Framework:      fw,
		DBType:         repoCfg.Database,
		AppPort:        repoCfg.AppPort,
		AppPortEnv:     repoCfg.AppPortEnv,
		ExposedAppPort: alloc.ExposedAppPort,
		ExposedDBPort:  alloc.ExposedDBPort,
	}
	composeFile, err := compose.Materialize(workDir, composeParams, repoCfg)
	if err != nil {
		return nil, err
	}

	m.publish(deploymentID, "rebuilding and restarting containers")
	if err := composeUp(ctx, workDir, composeFile, deploymentID); err != nil {
		return nil, err
	}

	healthURL := fmt.Sprintf("http://localhost:%d%s", alloc.ExposedAppPort, repoCfg.HealthCheckPath)
	if err := pollHealth(healthURL, m.health, func(attempt int, attemptErr error) {
		if attemptErr != nil {
			m.publish(deploymentID, "health check attempt %d failed: %v", attempt, attemptErr)
		}
	}); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/pr-%d/", m.previewBaseURL, d.ProjectSlug, d.PRNumber)
	return &Result{
		URL:            url,
		AppPort:        repoCfg.AppPort,
		ExposedAppPort: alloc.ExposedAppPort,
		ExposedDBPort:  alloc.ExposedDBPort,
		Framework:      fw,
		DBType:         repoCfg.Database,
	}, nil
}

// CleanupPreview tears down a deployment's containers and working tree
// and releases its ports. Unknown deploymentIds are not an error: ports
// are released defensively and cleanup returns.
func (m *Manager) CleanupPreview(ctx context.Context, deploymentID string) error {
	d, err := m.store.GetDeployment(deploymentID)
	if err != nil {
		return m.store.ReleasePorts(deploymentID)
	}

	var teardownErr error

	workDir := m.workspace.dirFor(d.ProjectSlug, d.PRNumber)
	composeFile := filepath.Join(workDir, "docker-compose.preview.generated.yml")
	if _, statErr := os.Stat(composeFile); statErr == nil {
		if err := composeDown(ctx, workDir, composeFile, deploymentID); err != nil {
			teardownErr = multierr.Append(teardownErr, fmt.Errorf("compose down: %w", err))
		}
	}

	if err := m.workspace.cleanup(d.ProjectSlug, d.PRNumber); err != nil {
		teardownErr = multierr.Append(teardownErr, fmt.Errorf("workspace cleanup: %w", err))
	}

	if teardownErr != nil {
		m.log.Warn("container: cleanup had non-fatal teardown errors", "deploymentId", deploymentID, "error", teardownErr)
	}

	return m.store.ReleasePorts(deploymentID)
}

// GetPreviewStatus inspects the app container's run state by its
// well-known name.
func (m *Manager) GetPreviewStatus(ctx context.Context, deploymentID string) (dockerengine.Status, error) {
	d, err := m.store.GetDeployment(deploymentID)
	if err != nil {
		return "", err
	}
	name := dockerengine.ContainerName(d.ProjectSlug, d.PRNumber)
	return m.engine.ContainerStatus(ctx, name)
}
