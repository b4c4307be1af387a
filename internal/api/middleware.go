package api

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader        = "X-Request-ID"
	maxRequestIDLength     = 64
	rateLimiterVisitorTTL  = 5 * time.Minute
	minimumCleanupInterval = 30 * time.Second
)

// Middleware represents an HTTP middleware that wraps a handler.
type Middleware func(http.Handler) http.Handler

// ApplyMiddlewares applies the provided middleware in order, where the
// first middleware in the list is the outermost handler.
func ApplyMiddlewares(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RateLimitConfig configures the token bucket rate limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// Proxies lists trusted proxies whose X-Forwarded-For header is
	// honored when identifying clients.
	Proxies *TrustedProxyConfig
}

// Enabled reports whether rate limiting should be enforced.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerSecond > 0 && c.Burst > 0
}

// RequestIDMiddleware ensures every request carries a stable request ID.
func RequestIDMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := sanitizeRequestID(r.Header.Get(requestIDHeader))
			if requestID == "" {
				requestID = uuid.New().String()
			}
			ctx := WithRequestID(r.Context(), requestID)
			r = r.WithContext(ctx)
			w.Header().Set(requestIDHeader, requestID)
			next.ServeHTTP(w, r)
		})
	}
}

func sanitizeRequestID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxRequestIDLength {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return ""
		}
	}
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware records structured request logs and wires Sentry tracing.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			hub := sentry.GetHubFromContext(ctx)
			if hub == nil {
				hub = sentry.CurrentHub().Clone()
				ctx = sentry.SetHubOnContext(ctx, hub)
				r = r.WithContext(ctx)
			}

			transaction := sentry.StartTransaction(
				ctx,
				fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				sentry.WithOpName("http.server"),
				sentry.ContinueFromRequest(r),
				sentry.WithTransactionSource(sentry.SourceURL),
			)
			defer transaction.Finish()
			r = r.WithContext(transaction.Context())
			ctx = r.Context()

			hub.Scope().SetRequest(r)

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			var panicRecovered any

			defer func() {
				if rec := recover(); rec != nil {
					panicRecovered = rec
					transaction.Status = sentry.SpanStatusInternalError
					hub.RecoverWithContext(ctx, rec)
					attrs := appendRequestID(ctx, []any{
						"method", r.Method,
						"path", r.URL.Path,
					})
					attrs = append(attrs, "panic", rec)
					logger.ErrorContext(ctx, "panic recovered", attrs...)
					writeJSON(recorder, http.StatusInternalServerError, apiError{Error: "internal server error"})
				}
			}()

			next.ServeHTTP(recorder, r)

			if panicRecovered != nil {
				return
			}

			transaction.Status = sentry.HTTPtoSpanStatus(recorder.status)
			duration := time.Since(start)
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration_ms", duration.Milliseconds(),
			}
			attrs = appendRequestID(r.Context(), attrs)

			switch {
			case recorder.status >= 500:
				logger.ErrorContext(r.Context(), "request completed", attrs...)
			case recorder.status >= 400:
				logger.WarnContext(r.Context(), "request completed", attrs...)
			default:
				logger.InfoContext(r.Context(), "request completed", attrs...)
			}
		})
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware enforces per-client rate limiting using a token
// bucket. It adds X-RateLimit-Limit, X-RateLimit-Remaining, and
// X-RateLimit-Reset headers to all responses and returns 429 with a
// Retry-After header when the limit is exceeded.
func RateLimitMiddleware(cfg RateLimitConfig, logger *slog.Logger) Middleware {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		mu          sync.Mutex
		visitors    = make(map[string]*clientLimiter)
		lastCleanup time.Time
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			key := clientKey(r, cfg.Proxies)

			mu.Lock()
			v, ok := visitors[key]
			if !ok {
				v = &clientLimiter{
					limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
					lastSeen: now,
				}
				visitors[key] = v
			} else {
				v.lastSeen = now
			}

			if lastCleanup.IsZero() || now.Sub(lastCleanup) > minimumCleanupInterval {
				for k, limiter := range visitors {
					if now.Sub(limiter.lastSeen) > rateLimiterVisitorTTL {
						delete(visitors, k)
					}
				}
				lastCleanup = now
			}
			mu.Unlock()

			w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64))

			tokens := v.limiter.Tokens()
			remaining := int(math.Floor(tokens))
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			resetTime := now.Add(time.Duration(float64(time.Second) / cfg.RequestsPerSecond))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !v.limiter.AllowN(now, 1) {
				attrs := appendRequestID(r.Context(), []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", http.StatusTooManyRequests,
				})
				logger.WarnContext(r.Context(), "rate limit exceeded", attrs...)
				retryAfter := int(math.Ceil(1 / cfg.RequestsPerSecond))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSON(w, http.StatusTooManyRequests, apiError{Error: "too many requests"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TrustedProxyConfig holds trusted proxy CIDRs for X-Forwarded-For handling.
type TrustedProxyConfig struct {
	CIDRs []netip.Prefix
}

// ParseTrustedProxies parses a list of CIDR strings.
func ParseTrustedProxies(raw []string) (*TrustedProxyConfig, error) {
	var cidrs []netip.Prefix
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy CIDR %q: %w", s, err)
		}
		cidrs = append(cidrs, prefix)
	}
	return &TrustedProxyConfig{CIDRs: cidrs}, nil
}

// IsTrusted checks if the remote address is from a trusted proxy.
func (tc *TrustedProxyConfig) IsTrusted(remoteAddr string) bool {
	if tc == nil || len(tc.CIDRs) == 0 {
		return false
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	for _, cidr := range tc.CIDRs {
		if cidr.Contains(addr) {
			return true
		}
	}
	return false
}

// clientKey extracts the client IP, only trusting X-Forwarded-For from
// trusted proxies.
func clientKey(r *http.Request, proxies *TrustedProxyConfig) string {
	if proxies.IsTrusted(r.RemoteAddr) {
		if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
			parts := strings.SplitN(xff, ",", 2)
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
