package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/custodia/internal/model"
)

func TestRecoverMiddleware(t *testing.T) {
	handler := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/items", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestLoggingMiddlewareRequestID(t *testing.T) {
	var seen string
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("expected generated uuid, got %q", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("expected X-Request-ID %q, got %q", seen, rec.Header().Get("X-Request-ID"))
	}

	// A valid incoming id is kept; anything else is replaced.
	incoming := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", incoming)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Errorf("expected incoming id %q, got %q", incoming, seen)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "<script>")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "<script>" {
		t.Error("expected invalid request id to be replaced")
	}
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	handler := RequireRole(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	env := setupTestServerWith(t, Options{LoginRate: 1, LoginBurst: 2})

	// setupTestServerWith already used one attempt for the admin login.
	env.expect(t, "POST", "/api/login", "", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	}, http.StatusUnauthorized, nil)

	resp := env.do(t, "POST", "/api/login", "", map[string]string{
		"email": "admin@example.com", "password": "password",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", resp.StatusCode)
	}

	// Authenticated routes are not limited.
	env.expect(t, "GET", "/api/me", env.adminToken, nil, http.StatusOK, nil)
}

func TestIPRateLimiterPrunesIdleVisitors(t *testing.T) {
	now := time.Now()
	l := newIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") {
		t.Fatal("expected first request to pass")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("expected second request to be limited")
	}
	if !l.allow("10.0.0.2") {
		t.Fatal("expected other IPs to have their own bucket")
	}

	now = now.Add(limiterIdle + time.Minute)
	l.allow("10.0.0.3")

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.visitors) != 1 {
		t.Errorf("expected idle visitors to be pruned, have %d", len(l.visitors))
	}
}
