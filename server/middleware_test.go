package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &rateLimiterConfig{enabled: true, requestsPerIP: 3, window: time.Minute}
	rl := newIPRateLimiter(ctx, cfg)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("4th request should be denied")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other IPs have their own budget")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("10.0.0.1") {
		t.Error("requests should be allowed again after the window")
	}

	now = now.Add(3 * time.Minute)
	rl.cleanup()
	rl.mu.Lock()
	n := len(rl.visitors)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("cleanup left %d visitors", n)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := newIPRateLimiter(ctx, &rateLimiterConfig{enabled: false, requestsPerIP: 1, window: time.Minute})
	for i := 0; i < 5; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatal("disabled limiter must allow everything")
		}
	}
}

func TestLoadRateLimiterConfigEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"0", false},
		{"false", false},
		{"FALSE", false},
		{"nope", true},
	}
	for _, tt := range tests {
		t.Setenv("RATE_LIMIT_ENABLED", tt.value)
		if got := loadRateLimiterConfig().enabled; got != tt.want {
			t.Errorf("RATE_LIMIT_ENABLED=%q: enabled = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestSubmitRateLimited(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS_PER_IP", "2")
	h, _ := newTestMux(t, newFakeAPI(), nil)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := postJSON(t, h, `{"video_id":"vod","api_key":"k"}`)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	// Reads are never limited.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/state", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("GET /state = %d", rr.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name, remote, fwd, want string
	}{
		{"remote with port", "192.0.2.1:1234", "", "192.0.2.1"},
		{"forwarded single", "10.0.0.1:80", "203.0.113.5", "203.0.113.5"},
		{"forwarded chain", "10.0.0.1:80", "203.0.113.5, 10.0.0.2", "203.0.113.5"},
		{"ipv6", "[2001:db8::1]:443", "", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.fwd != "" {
				r.Header.Set("X-Forwarded-For", tt.fwd)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"https://app.example.com", "*.widgets.io"}
	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.example.com", true},
		{"https://evil.com", false},
		{"https://a.widgets.io", true},
		{"https://widgets.io", true},
		{"https://widgets.io.evil.com", false},
	}
	for _, tt := range tests {
		if got := isOriginAllowed(tt.origin, allowed); got != tt.want {
			t.Errorf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("permissive preflight", func(t *testing.T) {
		cfg := &corsConfig{permissive: true}
		rr := httptest.NewRecorder()
		cfg.middleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/session", nil))
		if rr.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rr.Code)
		}
		if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected wildcard origin")
		}
	})

	t.Run("restricted", func(t *testing.T) {
		cfg := &corsConfig{allowedOrigins: []string{"https://ok.test"}}
		for origin, want := range map[string]string{"https://ok.test": "https://ok.test", "https://no.test": ""} {
			req := httptest.NewRequest(http.MethodGet, "/state", nil)
			req.Header.Set("Origin", origin)
			rr := httptest.NewRecorder()
			cfg.middleware(next).ServeHTTP(rr, req)
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != want {
				t.Errorf("origin %s: allow-origin = %q, want %q", origin, got, want)
			}
		}
		if cfg.allows("https://no.test") {
			t.Error("websocket origin check should reject unlisted origins")
		}
		if !cfg.allows("") {
			t.Error("same-origin requests carry no Origin and must pass")
		}
	})

	t.Run("permissive override", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("CORS_PERMISSIVE", "TRUE")
		if !loadCORSConfig().permissive {
			t.Error("CORS_PERMISSIVE=TRUE should win over ENV")
		}
		t.Setenv("ENV", "")
		t.Setenv("CORS_PERMISSIVE", "0")
		if loadCORSConfig().permissive {
			t.Error("CORS_PERMISSIVE=0 should disable dev permissiveness")
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.test , ,https://b.test")
		cfg := loadCORSConfig()
		if cfg.permissive {
			t.Error("production should not be permissive")
		}
		if strings.Join(cfg.allowedOrigins, "|") != "https://a.test|https://b.test" {
			t.Errorf("origins = %v", cfg.allowedOrigins)
		}
	})
}

func TestCorrelationID(t *testing.T) {
	h := withCorrelation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Correlation-ID"); got != "abc-123" {
		t.Errorf("expected correlation id echoed, got %q", got)
	}
	if rr.Code != http.StatusTeapot {
		t.Errorf("status not passed through: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rr.Header().Get("X-Correlation-ID")) != 36 {
		t.Errorf("expected generated uuid, got %q", rr.Header().Get("X-Correlation-ID"))
	}
}
