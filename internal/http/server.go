// Package http exposes the ledger over a JSON API. Handlers stay thin:
// they decode, call a service, and map the error taxonomy to status
// codes.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hasnin090/iq-sub001/internal/services"
)

type Server struct {
	http.Server
	ledger      *services.LedgerService
	deferred    *services.DeferredService
	rateLimiter *rateLimiter
}

// NewServer configures routes and middleware, returning a
// ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, deferred *services.DeferredService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      ledger,
		deferred:    deferred,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/fund/deposit", s.withMiddleware(s.handleDeposit))
	mux.HandleFunc("GET /api/fund", s.withMiddleware(s.handleBalanceSheet))

	mux.HandleFunc("POST /api/projects", s.withMiddleware(s.handleCreateProject))
	mux.HandleFunc("GET /api/projects", s.withMiddleware(s.handleListProjects))
	mux.HandleFunc("GET /api/projects/{id}", s.withMiddleware(s.handleGetProject))
	mux.HandleFunc("DELETE /api/projects/{id}", s.withMiddleware(s.handleDeleteProject))
	mux.HandleFunc("POST /api/projects/{id}/archive", s.withMiddleware(s.handleArchiveProject))

	mux.HandleFunc("POST /api/expense-types", s.withMiddleware(s.handleCreateExpenseType))
	mux.HandleFunc("GET /api/expense-types", s.withMiddleware(s.handleListExpenseTypes))
	mux.HandleFunc("PUT /api/expense-types/{id}", s.withMiddleware(s.handleUpdateExpenseType))

	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/deferred", s.withMiddleware(s.handleCreateDeferred))
	mux.HandleFunc("GET /api/deferred", s.withMiddleware(s.handleListDeferred))
	mux.HandleFunc("GET /api/deferred/{id}", s.withMiddleware(s.handleGetDeferred))
	mux.HandleFunc("POST /api/deferred/{id}/pay", s.withMiddleware(s.handlePayInstallment))
	mux.HandleFunc("GET /api/deferred/{id}/installments", s.withMiddleware(s.handleListInstallments))

	mux.HandleFunc("POST /api/ledger/transfer-receivables", s.withMiddleware(s.handleTransferReceivables))
	mux.HandleFunc("POST /api/ledger/reclassify-transactions", s.withMiddleware(s.handleReclassify))
	mux.HandleFunc("GET /api/ledger/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("GET /api/ledger/beneficiary/{name}", s.withMiddleware(s.handleBeneficiaryStatement))

	return s
}

// withMiddleware adds request-id tracing, security headers, rate
// limiting on mutating methods, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Simple in-memory rate limiter, keyed by client IP.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// allow admits up to 60 requests per client per minute.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}

// Shutdown stops the rate-limiter cleanup goroutine and then shuts down
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.stop()
	}
	return s.Server.Shutdown(ctx)
}
