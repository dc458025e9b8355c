// Package gateway exposes the local REST surface mirroring the upstream
// brokerage API, serving the same JSON the upstream returns plus the
// funds-guard redirect flow on order placement and modification.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tradegate/internal/domain"
	"tradegate/internal/guard"
	"tradegate/internal/metrics"
	"tradegate/internal/upstox"
	"tradegate/internal/util"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// Server hosts the gateway HTTP API. All configuration is injected at
// construction; handlers never read ambient process state.
type Server struct {
	upstream *upstox.Client
	guard    *guard.Guard
	token    string
	topUpURL string
	limiter  *util.RateLimiter
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewServer creates a gateway server. token is only inspected for presence:
// guarded routes fail fast with 401 before any upstream call when it is
// empty.
func NewServer(
	upstream *upstox.Client,
	g *guard.Guard,
	token string,
	topUpURL string,
	limiter *util.RateLimiter,
	m *metrics.Metrics,
	log *slog.Logger,
) *Server {
	return &Server{
		upstream: upstream,
		guard:    g,
		token:    token,
		topUpURL: topUpURL,
		limiter:  limiter,
		metrics:  m,
		log:      log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Unauthenticated surface.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Token-guarded brokerage surface.
	mux.HandleFunc("GET /api/v1/profile", s.guarded(s.handleProfile))
	mux.HandleFunc("GET /api/v1/portfolio", s.guarded(s.handlePortfolio))
	mux.HandleFunc("GET /api/v1/holdings", s.guarded(s.handleHoldings))
	mux.HandleFunc("GET /api/v1/orders", s.guarded(s.handleListOrders))
	mux.HandleFunc("GET /api/v1/orders/{id}", s.guarded(s.handleGetOrder))
	mux.HandleFunc("POST /api/v1/orders", s.guarded(s.handlePlaceOrder))
	mux.HandleFunc("POST /api/v1/buy", s.guarded(s.handleBuy))
	mux.HandleFunc("POST /api/v1/sell", s.guarded(s.handleSell))
	mux.HandleFunc("PUT /api/v1/orders/{id}", s.guarded(s.handleModifyOrder))
	mux.HandleFunc("DELETE /api/v1/orders/{id}", s.guarded(s.handleCancelOrder))
	mux.HandleFunc("GET /api/v1/market-quote", s.guarded(s.handleQuote))
	mux.HandleFunc("GET /api/v1/funds", s.guarded(s.handleFunds))
	mux.HandleFunc("GET /api/v1/funds/add", s.guarded(s.handleAddFunds))
}

// Handler returns the full handler chain: routes wrapped in rate limiting,
// request metrics, and CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(s.withMetrics(s.withRateLimit(mux)))
}

// guarded wraps a handler with the token-presence check. The check runs
// before any request parsing or upstream I/O.
func (s *Server) guarded(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			writeError(w, domain.ErrTokenMissing.HTTPStatus(), domain.ErrTokenMissing.Message)
			return
		}
		next(w, r)
	}
}

// withRateLimit applies the per-minute request budget to the /api surface.
// Health and metrics probes are never limited.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") && !s.limiter.Allow() {
			s.metrics.RateLimited.Inc()
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withMetrics records request counts and latency.
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.ObserveRequest(r.URL.Path, r.Method, rec.status, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// ---------------------------------------------------------------------------
// Response helpers — the single normalization boundary
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Status: "error", Code: status, Message: msg})
}

// writeDomainError normalizes any error through the domain taxonomy.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	de := domain.AsError(err)
	if de.Kind != domain.KindClientInput {
		s.log.Error("request failed", "kind", int(de.Kind), "error", err)
	}
	writeError(w, de.HTTPStatus(), de.Message)
}

// relay passes a successful upstream response through verbatim and
// normalizes everything else to the error envelope, preserving the upstream
// status code.
func (s *Server) relay(w http.ResponseWriter, resp *upstox.Response) {
	if resp.OK() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if _, err := w.Write(resp.Body); err != nil {
			s.log.Error("writing passthrough response", "error", err)
		}
		return
	}

	msg := upstreamMessage(resp.Body)
	s.log.Error("upstream rejected request", "status", resp.StatusCode, "message", msg)
	writeError(w, resp.StatusCode, msg)
}

// upstreamMessage extracts a human-readable message from an upstream error
// body, falling back to the raw text.
func upstreamMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Errors) > 0 && envelope.Errors[0].Message != "" {
			return envelope.Errors[0].Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return "Unknown error"
}

// redirectToTopUp answers 303 with the funds top-up URL carrying the reason,
// the instrument, and (for modify flows) the order id.
func (s *Server) redirectToTopUp(w http.ResponseWriter, reason, instrumentKey, orderID string) {
	target := s.topUpURL
	if u, err := url.Parse(s.topUpURL); err == nil {
		q := u.Query()
		if reason != "" {
			q.Set("reason", reason)
		}
		if instrumentKey != "" {
			q.Set("instrument_key", instrumentKey)
		}
		if orderID != "" {
			q.Set("order_id", orderID)
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	w.Header().Set("Location", target)
	writeJSON(w, http.StatusSeeOther, redirectResponse{
		Status:      "redirect",
		Message:     reason,
		RedirectURL: target,
	})
}
