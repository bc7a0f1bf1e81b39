// Command prevd is the per-pull-request preview environment orchestrator
// daemon (spec.md §4.12).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/previewhost/prevd/internal/config"
	"github.com/previewhost/prevd/internal/container"
	"github.com/previewhost/prevd/internal/dockerengine"
	"github.com/previewhost/prevd/internal/forge"
	"github.com/previewhost/prevd/internal/httpapi"
	"github.com/previewhost/prevd/internal/locks"
	"github.com/previewhost/prevd/internal/logging"
	"github.com/previewhost/prevd/internal/logstream"
	"github.com/previewhost/prevd/internal/proxy"
	"github.com/previewhost/prevd/internal/reconciler"
	"github.com/previewhost/prevd/internal/tracker"
	"github.com/previewhost/prevd/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("prevd", "info").Error("startup: invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logging.New("prevd", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := tracker.Open(cfg.DeploymentsDBPath)
	if err != nil {
		log.Error("startup: could not open deployment tracker", "error", err)
		os.Exit(1)
	}

	engine, err := dockerengine.New()
	if err != nil {
		log.Error("startup: could not create docker client", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	hub := logstream.NewHub()

	manager, err := container.New(store, cfg.DeploymentsDir, engine, cfg.PreviewBaseURL, log)
	if err != nil {
		log.Error("startup: could not create container manager", "error", err)
		os.Exit(1)
	}
	manager.WithProgress(hub)

	var reloader proxy.Reloader
	if cfg.UseDockerExecReload {
		dockerReloader, err := proxy.NewDockerExecReloader(cfg.NginxContainerName)
		if err != nil {
			log.Error("startup: could not create docker-exec proxy reloader", "error", err)
			os.Exit(1)
		}
		reloader = dockerReloader
	} else {
		reloader = proxy.NewShellReloader()
	}
	proxyMgr := proxy.New(cfg.NginxConfigDir, reloader)

	forgeClient := forge.New(cfg.GitHubToken)
	keyedLocks := locks.NewKeyedMutex()

	webhookSvc := webhook.New(store, manager, proxyMgr, forgeClient, keyedLocks, log)

	limiter := httpapi.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpapi.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("startup: redis rate limiter unavailable, falling back to in-memory", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpapi.New(log, cfg, store, manager, proxyMgr, webhookSvc, hub, limiter)
	defer router.Close()

	recon := reconciler.New(store, manager, proxyMgr, forgeClient, keyedLocks, cfg.CleanupTTLDays, cfg.ReconcileInterval, log)
	recon.Start()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.OrchestratorPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("prevd: http server starting", "port", cfg.OrchestratorPort)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		recon.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("prevd: graceful shutdown failed", "error", err)
		}
		log.Info("prevd: stopped")
	case err := <-errCh:
		recon.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("prevd: server error", "error", err)
			os.Exit(1)
		}
	}
}
