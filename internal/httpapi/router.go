// Package httpapi exposes the daemon's HTTP surface: the GitHub webhook
// receiver, the previews API (list, fetch, delete), live log streaming, and a health
// endpoint (spec.md §5, supplemented features C11a/C11b).
package httpapi

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/previewhost/prevd/internal/config"
	"github.com/previewhost/prevd/internal/container"
	"github.com/previewhost/prevd/internal/logstream"
	"github.com/previewhost/prevd/internal/proxy"
	"github.com/previewhost/prevd/internal/tracker"
	"github.com/previewhost/prevd/internal/webhook"
)

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitWebhook   = 120
	rateLimitAPIRead   = 120
	rateLimitAPIWrite  = 60
	rateLimitWebsocket = 30
	maxWebhookBodyByte = 10 << 20 // 10MB, spec.md §4.9
)

// Router wires HTTP endpoints to the container manager, proxy manager,
// tracker, and webhook dispatcher.
type Router struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	cfg           config.Config
	store         *tracker.Store
	manager       *container.Manager
	proxyMgr      *proxy.Manager
	webhookSvc    *webhook.Handler
	hub           *logstream.Hub
	upgrader      websocket.Upgrader
	limiter       RateLimiter
	webhookSecret []byte
}

// New assembles the router. limiter may be nil, in which case an
// in-memory limiter is constructed.
func New(logger *slog.Logger, cfg config.Config, store *tracker.Store, manager *container.Manager, proxyMgr *proxy.Manager, webhookSvc *webhook.Handler, hub *logstream.Hub, limiter RateLimiter) *Router {
	r := &Router{
		mux:        http.NewServeMux(),
		logger:     logger,
		cfg:        cfg,
		store:      store,
		manager:    manager,
		proxyMgr:   proxyMgr,
		webhookSvc: webhookSvc,
		hub:        hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		limiter:       limiter,
		webhookSecret: []byte(cfg.WebhookSecret),
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources (the rate limiter's sweep loop).
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/health", r.audit(r.handleHealth))
	r.mux.HandleFunc("/webhook/github", r.audit(r.withRateLimit(rateLimitWebhook, rateWindowDefault, rateLimitKeyIP, r.handleWebhook)))
	r.mux.HandleFunc("/api/previews", r.audit(r.withRateLimit(rateLimitAPIRead, rateWindowDefault, rateLimitKeyIP, r.handlePreviewsCollection)))
	r.mux.HandleFunc("/api/previews/", r.audit(r.withRateLimit(rateLimitAPIWrite, rateWindowDefault, rateLimitKeyIP, r.handlePreviewsItem)))
	r.mux.HandleFunc("/openapi.json", r.audit(r.handleOpenAPI))
	r.mux.HandleFunc("/api-docs", r.audit(r.handleAPIDocs))
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleWebhook(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	req.Body = http.MaxBytesReader(w, req.Body, maxWebhookBodyByte)
	body, err := io.ReadAll(req.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body, or body exceeds 10MB")
		return
	}
	signature := req.Header.Get("X-Hub-Signature-256")
	if !webhook.VerifySignature(body, r.webhookSecret, signature) {
		writeError(w, http.StatusUnauthorized, "invalid webhook signature")
		return
	}

	var payload webhook.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !r.cfg.IsRepoAllowed(payload.Repository.FullName) {
		writeError(w, http.StatusInternalServerError, "repository is not in the allow-list")
		return
	}

	if err := r.webhookSvc.Handle(req.Context(), payload); err != nil {
		r.logger.Error("webhook: dispatch failed", "repo", payload.Repository.FullName, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (r *Router) handlePreviewsCollection(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"previews": r.store.GetAllDeployments()})
}

// handlePreviewsItem routes /api/previews/{deploymentId} and
// /api/previews/{deploymentId}/logs/stream.
func (r *Router) handlePreviewsItem(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/api/previews/")
	parts := strings.Split(trimmed, "/")
	deploymentID := parts[0]
	if deploymentID == "" {
		writeError(w, http.StatusBadRequest, "deploymentId is required")
		return
	}

	if len(parts) == 3 && parts[1] == "logs" && parts[2] == "stream" {
		r.handleLogsStream(w, req, deploymentID)
		return
	}
	if len(parts) > 1 {
		r.notFound(w)
		return
	}

	switch req.Method {
	case http.MethodGet:
		d, err := r.store.GetDeployment(deploymentID)
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown deployment")
			return
		}
		writeJSON(w, http.StatusOK, d)
	case http.MethodDelete:
		d, err := r.store.GetDeployment(deploymentID)
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown deployment")
			return
		}
		if err := r.manager.CleanupPreview(req.Context(), deploymentID); err != nil {
			r.logger.Warn("api: cleanup preview failed", "deploymentId", deploymentID, "error", err)
		}
		if err := r.proxyMgr.RemovePreview(req.Context(), d.ProjectSlug, d.PRNumber); err != nil {
			r.logger.Warn("api: remove proxy route failed", "deploymentId", deploymentID, "error", err)
		}
		if err := r.store.DeleteDeployment(deploymentID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		r.methodNotAllowed(w)
	}
}

// handleLogsStream upgrades to a WebSocket and replays the deployment's
// progress lines as they are published (C11a).
func (r *Router) handleLogsStream(w http.ResponseWriter, req *http.Request, deploymentID string) {
	if _, err := r.store.GetDeployment(deploymentID); err != nil {
		writeError(w, http.StatusNotFound, "unknown deployment")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("httpapi: websocket upgrade failed", "error", err)
		return
	}
	client := logstream.NewWSClient(conn, r.logger)
	r.hub.Register(deploymentID, client)
	go func() {
		defer func() {
			r.hub.Unregister(deploymentID, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleOpenAPI(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, openAPIDocument)
}

func (r *Router) handleAPIDocs(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(apiDocsHTML))
}

// audit wraps a handler with structured request logging and a generated
// correlation id (spec.md §2's ambient logging stack).
func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		requestID := strings.TrimSpace(req.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
			"request_id", requestID,
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
