// Package webhook validates and dispatches inbound GitHub pull_request
// webhooks into the deploy/update/cleanup lifecycle (spec.md §4.9).
package webhook

import (
	"context"
	"log/slog"

	"github.com/previewhost/prevd/internal/container"
	"github.com/previewhost/prevd/internal/forge"
	"github.com/previewhost/prevd/internal/locks"
	"github.com/previewhost/prevd/internal/proxy"
	"github.com/previewhost/prevd/internal/slugutil"
	"github.com/previewhost/prevd/internal/tracker"
)

// Handler wires the webhook dispatch to the container manager, proxy
// manager, deployment tracker, and source-forge client.
type Handler struct {
	store    *tracker.Store
	manager  *container.Manager
	proxyMgr *proxy.Manager
	forge    forge.Client
	locks    *locks.KeyedMutex
	log      *slog.Logger
}

// New constructs a Handler.
func New(store *tracker.Store, manager *container.Manager, proxyMgr *proxy.Manager, forgeClient forge.Client, keyedLocks *locks.KeyedMutex, log *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		manager:  manager,
		proxyMgr: proxyMgr,
		forge:    forgeClient,
		locks:    keyedLocks,
		log:      log,
	}
}

// Handle dispatches payload per its action, per spec.md §4.9. Any action
// other than opened/reopened/synchronize/closed is logged and ignored.
func (h *Handler) Handle(ctx context.Context, p Payload) error {
	owner := p.Repository.Owner.Login
	repo := p.Repository.Name
	projectSlug := slugutil.ProjectSlug(owner, repo)
	deploymentID := slugutil.DeploymentID(projectSlug, p.PullRequest.Number)

	switch p.Action {
	case "opened", "reopened":
		return h.withLock(ctx, deploymentID, func() error {
			return h.deployPath(ctx, p, projectSlug, deploymentID)
		})
	case "synchronize":
		return h.withLock(ctx, deploymentID, func() error {
			return h.updatePath(ctx, p, projectSlug, deploymentID)
		})
	case "closed":
		return h.withLock(ctx, deploymentID, func() error {
			return h.cleanupPath(ctx, deploymentID)
		})
	default:
		h.log.Info("webhook: ignoring unsupported action", "action", p.Action)
		return nil
	}
}

func (h *Handler) withLock(ctx context.Context, deploymentID string, fn func() error) error {
	h.locks.Lock(deploymentID)
	defer h.locks.Unlock(deploymentID)
	return fn()
}

// deployPath creates a new deployment, or delegates to the update path if
// one already exists for this id (idempotent re-open).
func (h *Handler) deployPath(ctx context.Context, p Payload, projectSlug, deploymentID string) error {
	if _, err := h.store.GetDeployment(deploymentID); err == nil {
		return h.updatePath(ctx, p, projectSlug, deploymentID)
	}

	owner := p.Repository.Owner.Login
	repo := p.Repository.Name

	commentID, err := h.forge.PostComment(owner, repo, p.PullRequest.Number, forge.FormatComment(forge.CommentBuilding, ""))
	if err != nil {
		h.log.Warn("webhook: post building comment failed", "deploymentId", deploymentID, "error", err)
	}

	req := container.Request{
		DeploymentID: deploymentID,
		ProjectSlug:  projectSlug,
		PRNumber:     p.PullRequest.Number,
		RepoOwner:    owner,
		RepoName:     repo,
		Branch:       p.PullRequest.Head.Ref,
		CommitSHA:    p.PullRequest.Head.SHA,
		CloneURL:     p.Repository.CloneURL,
	}

	result, err := h.manager.DeployPreview(ctx, req)
	if err != nil {
		h.reportFailure(owner, repo, p.PullRequest.Number, commentID, err)
		return err
	}

	if err := h.proxyMgr.AddPreview(ctx, projectSlug, p.PullRequest.Number, result.ExposedAppPort); err != nil {
		h.reportFailure(owner, repo, p.PullRequest.Number, commentID, err)
		return err
	}

	d := &tracker.Deployment{
		DeploymentID:   deploymentID,
		PRNumber:       p.PullRequest.Number,
		RepoOwner:      owner,
		RepoName:       repo,
		ProjectSlug:    projectSlug,
		Branch:         req.Branch,
		CommitSHA:      req.CommitSHA,
		CloneURL:       req.CloneURL,
		Framework:      result.Framework,
		DBType:         result.DBType,
		AppPort:        result.AppPort,
		ExposedAppPort: result.ExposedAppPort,
		ExposedDBPort:  result.ExposedDBPort,
		Status:         tracker.StatusRunning,
		URL:            result.URL,
		CommentID:      commentID,
	}
	if err := h.store.SaveDeployment(d); err != nil {
		h.reportFailure(owner, repo, p.PullRequest.Number, commentID, err)
		return err
	}

	if commentID != 0 {
		if err := h.forge.UpdateComment(owner, repo, commentID, forge.FormatComment(forge.CommentSuccess, result.URL)); err != nil {
			h.log.Warn("webhook: success comment update failed", "deploymentId", deploymentID, "error", err)
		}
	}
	return nil
}

// updatePath re-deploys an existing deployment to its new head commit. If
// the deployment is unknown, it falls through to the deploy path.
func (h *Handler) updatePath(ctx context.Context, p Payload, projectSlug, deploymentID string) error {
	d, err := h.store.GetDeployment(deploymentID)
	if err != nil {
		return h.deployPath(ctx, p, projectSlug, deploymentID)
	}

	owner := d.RepoOwner
	repo := d.RepoName

	if d.CommentID != 0 {
		if err := h.forge.UpdateComment(owner, repo, d.CommentID, forge.FormatComment(forge.CommentBuilding, "")); err != nil {
			h.log.Warn("webhook: building comment update failed", "deploymentId", deploymentID, "error", err)
		}
	}

	result, err := h.manager.UpdatePreview(ctx, deploymentID, p.PullRequest.Head.SHA)
	if err != nil {
		h.reportFailure(owner, repo, d.PRNumber, d.CommentID, err)
		return err
	}

	d.CommitSHA = p.PullRequest.Head.SHA
	d.Status = tracker.StatusRunning
	d.URL = result.URL
	if err := h.store.SaveDeployment(d); err != nil {
		h.reportFailure(owner, repo, d.PRNumber, d.CommentID, err)
		return err
	}

	if d.CommentID != 0 {
		if err := h.forge.UpdateComment(owner, repo, d.CommentID, forge.FormatComment(forge.CommentSuccess, result.URL)); err != nil {
			h.log.Warn("webhook: success comment update failed", "deploymentId", deploymentID, "error", err)
		}
	}
	return nil
}

// cleanupPath tears down an existing deployment. An unknown deploymentID
// is logged and ignored, not an error.
func (h *Handler) cleanupPath(ctx context.Context, deploymentID string) error {
	d, err := h.store.GetDeployment(deploymentID)
	if err != nil {
		h.log.Info("webhook: cleanup requested for unknown deployment", "deploymentId", deploymentID)
		return nil
	}

	if err := h.manager.CleanupPreview(ctx, deploymentID); err != nil {
		h.log.Warn("webhook: cleanup preview failed", "deploymentId", deploymentID, "error", err)
	}
	if err := h.proxyMgr.RemovePreview(ctx, d.ProjectSlug, d.PRNumber); err != nil {
		h.log.Warn("webhook: remove proxy route failed", "deploymentId", deploymentID, "error", err)
	}
	return h.store.DeleteDeployment(deploymentID)
}

// reportFailure posts (or updates) a failure comment on the pull request.
// If no building comment exists yet — e.g. the initial PostComment call
// itself failed — it falls back to posting a fresh one, per spec.md
// §4.9: a failure comment is posted regardless of prior comment state.
func (h *Handler) reportFailure(owner, repo string, prNumber int, commentID int64, cause error) {
	h.log.Error("webhook: deploy path failed", "owner", owner, "repo", repo, "error", cause)
	if commentID == 0 {
		if _, err := h.forge.PostComment(owner, repo, prNumber, forge.FormatComment(forge.CommentFailure, "")); err != nil {
			h.log.Warn("webhook: failure comment post failed", "error", err)
		}
		return
	}
	if err := h.forge.UpdateComment(owner, repo, commentID, forge.FormatComment(forge.CommentFailure, "")); err != nil {
		h.log.Warn("webhook: failure comment update failed", "error", err)
	}
}
