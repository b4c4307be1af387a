package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddlewareGenerates(t *testing.T) {
	var seen string
	h := ApplyMiddlewares(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}), RequestIDMiddleware())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("request ID not stored in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("response header = %q, context = %q", got, seen)
	}
}

func TestRequestIDMiddlewarePropagates(t *testing.T) {
	var seen string
	h := ApplyMiddlewares(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}), RequestIDMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "client-supplied-id" {
		t.Errorf("request ID = %q, want client-supplied-id", seen)
	}
}

func TestSanitizeRequestID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc-123_x.y", "abc-123_x.y"},
		{"  trimmed  ", "trimmed"},
		{"", ""},
		{"has spaces", ""},
		{"inject\nheader", ""},
		{"<script>", ""},
		{string(make([]byte, 100)), ""},
	}
	for _, tt := range tests {
		if got := sanitizeRequestID(tt.in); got != tt.want {
			t.Errorf("sanitizeRequestID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, Burst: 2}
	h := ApplyMiddlewares(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), RateLimitMiddleware(cfg, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4000"

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("missing X-RateLimit-Limit header")
	}
}

func TestRateLimitMiddlewarePerClient(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, Burst: 1}
	h := ApplyMiddlewares(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), RateLimitMiddleware(cfg, nil))

	reqA := httptest.NewRequest(http.MethodGet, "/", nil)
	reqA.RemoteAddr = "203.0.113.1:1000"
	reqB := httptest.NewRequest(http.MethodGet, "/", nil)
	reqB.RemoteAddr = "203.0.113.2:1000"

	recA := httptest.NewRecorder()
	h.ServeHTTP(recA, reqA)
	if recA.Code != http.StatusOK {
		t.Fatalf("client A: status = %d, want 200", recA.Code)
	}

	// A second client gets its own bucket.
	recB := httptest.NewRecorder()
	h.ServeHTTP(recB, reqB)
	if recB.Code != http.StatusOK {
		t.Fatalf("client B: status = %d, want 200", recB.Code)
	}
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	h := ApplyMiddlewares(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), RateLimitMiddleware(RateLimitConfig{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}
}

func TestTrustedProxyConfig(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.0/24"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}

	if !proxies.IsTrusted("10.1.2.3:8080") {
		t.Error("10.1.2.3 should be trusted")
	}
	if proxies.IsTrusted("203.0.113.5:8080") {
		t.Error("203.0.113.5 should not be trusted")
	}
	if proxies.IsTrusted("not-an-addr") {
		t.Error("malformed remote addr should not be trusted")
	}

	var nilConfig *TrustedProxyConfig
	if nilConfig.IsTrusted("10.1.2.3:8080") {
		t.Error("nil config should trust nothing")
	}
}

func TestParseTrustedProxiesInvalid(t *testing.T) {
	if _, err := ParseTrustedProxies([]string{"not-a-cidr"}); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
}

func TestClientKey(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		proxies    *TrustedProxyConfig
		want       string
	}{
		{"direct", "203.0.113.9:4000", "", nil, "203.0.113.9"},
		{"xff ignored without trust", "203.0.113.9:4000", "198.51.100.7", proxies, "203.0.113.9"},
		{"xff honored from trusted proxy", "10.0.0.5:4000", "198.51.100.7", proxies, "198.51.100.7"},
		{"first xff entry wins", "10.0.0.5:4000", "198.51.100.7, 10.0.0.5", proxies, "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientKey(r, tt.proxies); got != tt.want {
				t.Errorf("clientKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyMiddlewaresOrder(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := ApplyMiddlewares(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mk("outer"), mk("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
