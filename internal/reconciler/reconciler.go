// Package reconciler runs the periodic TTL/PR-status cleanup sweep
// (spec.md §4.10): deployments past their TTL or whose PR is no longer
// open are torn down the same way a manual cleanup would be.
package reconciler

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"github.com/previewhost/prevd/internal/container"
	"github.com/previewhost/prevd/internal/forge"
	"github.com/previewhost/prevd/internal/locks"
	"github.com/previewhost/prevd/internal/proxy"
	"github.com/previewhost/prevd/internal/tracker"
)

// Reconciler periodically sweeps the tracker for stale deployments.
type Reconciler struct {
	store    *tracker.Store
	manager  *container.Manager
	proxyMgr *proxy.Manager
	forge    forge.Client
	locks    *locks.KeyedMutex
	ttlDays  int
	interval time.Duration
	log      *slog.Logger
	done     chan struct{}
}

// New constructs a Reconciler. ttlDays and interval come from config
// (CLEANUP_TTL_DAYS, CLEANUP_INTERVAL_HOURS).
func New(store *tracker.Store, manager *container.Manager, proxyMgr *proxy.Manager, forgeClient forge.Client, keyedLocks *locks.KeyedMutex, ttlDays int, interval time.Duration, log *slog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		manager:  manager,
		proxyMgr: proxyMgr,
		forge:    forgeClient,
		locks:    keyedLocks,
		ttlDays:  ttlDays,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start runs an immediate sweep, then schedules a sweep every interval
// on a background goroutine.
func (r *Reconciler) Start() {
	go r.loop()
	r.log.Info("reconciler: started", "interval", r.interval, "ttlDays", r.ttlDays)
}

// Stop halts the scheduler. In-flight webhook work is unaffected; only
// the next scheduled sweep is prevented from starting.
func (r *Reconciler) Stop() {
	close(r.done)
	r.log.Info("reconciler: stopped")
}

func (r *Reconciler) loop() {
	r.Sweep(context.Background())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep(context.Background())
		case <-r.done:
			return
		}
	}
}

// Sweep examines every tracked deployment once. Per-deployment errors are
// logged and never abort the sweep (spec.md §4.10).
func (r *Reconciler) Sweep(ctx context.Context) {
	deployments := r.store.GetAllDeployments()
	r.log.Info("reconciler: sweep started", "deployments", len(deployments))

	for _, d := range deployments {
		r.locks.WithLock(d.DeploymentID, func() {
			r.evaluate(ctx, d)
		})
	}
}

func (r *Reconciler) evaluate(ctx context.Context, d *tracker.Deployment) {
	ageDays, err := r.store.GetDeploymentAge(d.DeploymentID)
	if err != nil {
		r.log.Warn("reconciler: could not compute age, skipping", "deploymentId", d.DeploymentID, "error", err)
		return
	}

	open := true
	status, err := r.forge.CheckPRStatus(d.RepoOwner, d.RepoName, d.PRNumber)
	if err != nil {
		r.log.Warn("reconciler: PR status check failed, assuming open", "deploymentId", d.DeploymentID, "error", err)
	} else {
		open = status.Open
	}

	if ageDays <= r.ttlDays && open {
		return
	}

	r.log.Info("reconciler: evicting deployment", "deploymentId", d.DeploymentID, "ageDays", ageDays, "prOpen", open)
	if err := r.evict(ctx, d); err != nil {
		r.log.Warn("reconciler: eviction had errors", "deploymentId", d.DeploymentID, "error", err)
	}
}

func (r *Reconciler) evict(ctx context.Context, d *tracker.Deployment) error {
	var evictErr error
	if err := r.manager.CleanupPreview(ctx, d.DeploymentID); err != nil {
		evictErr = multierr.Append(evictErr, err)
	}
	if err := r.proxyMgr.RemovePreview(ctx, d.ProjectSlug, d.PRNumber); err != nil {
		evictErr = multierr.Append(evictErr, err)
	}
	if err := r.store.DeleteDeployment(d.DeploymentID); err != nil {
		evictErr = multierr.Append(evictErr, err)
	}
	return evictErr
}
