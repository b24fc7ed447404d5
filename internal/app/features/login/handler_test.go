package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/camphub/internal/app/features/errors"
	"github.com/dalemusser/camphub/internal/app/features/login"
	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/app/system/ratelimit"
	"github.com/dalemusser/camphub/internal/testutil"
	"go.uber.org/zap"
)

const sessionName = "test-session"

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", sessionName, "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	limiter := ratelimit.NewLoginLimiter()
	t.Cleanup(limiter.Close)

	// nil audit logger is a no-op
	handler := login.NewHandler(db, sessionMgr, errLog, nil, limiter, false, logger)
	return handler, testutil.NewFixtures(t, db)
}

func postLogin(h *login.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	// The error paths render a template, which may panic without an engine.
	func() {
		defer func() { _ = recover() }()
		h.HandleLoginPost(rec, req)
	}()
	return rec
}

func hasSessionCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName && c.MaxAge >= 0 {
			return true
		}
	}
	return false
}

func TestHandleLoginPost_Success(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateAdmin(ctx, "Camp Admin", "admin@example.com")

	rec := postLogin(handler, url.Values{
		"email":    {"Admin@Example.com "},
		"password": {testutil.TestPassword},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location: got %q, want %q", loc, "/dashboard")
	}
	if !hasSessionCookie(rec) {
		t.Error("expected session cookie to be set")
	}
}

func TestHandleLoginPost_WithReturnURL(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateViewer(ctx, "Camp Viewer", "viewer@example.com")

	rec := postLogin(handler, url.Values{
		"email":    {"viewer@example.com"},
		"password": {testutil.TestPassword},
		"return":   {"/groups?tab=2"},
	})

	if loc := rec.Header().Get("Location"); loc != "/groups?tab=2" {
		t.Errorf("Location: got %q, want %q", loc, "/groups?tab=2")
	}
}

func TestHandleLoginPost_RejectsOffsiteReturn(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateViewer(ctx, "Camp Viewer", "viewer@example.com")

	rec := postLogin(handler, url.Values{
		"email":    {"viewer@example.com"},
		"password": {testutil.TestPassword},
		"return":   {"//evil.example.com/"},
	})

	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location: got %q, want /dashboard", loc)
	}
}

func TestHandleLoginPost_WrongPassword(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateAdmin(ctx, "Camp Admin", "admin@example.com")

	rec := postLogin(handler, url.Values{
		"email":    {"admin@example.com"},
		"password": {"not the password"},
	})

	if rec.Header().Get("Location") != "" {
		t.Errorf("wrong password should not redirect, got %q", rec.Header().Get("Location"))
	}
	if hasSessionCookie(rec) {
		t.Error("wrong password must not create a session")
	}
}

func TestHandleLoginPost_UnknownUser(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postLogin(handler, url.Values{
		"email":    {"nobody@example.com"},
		"password": {"whatever-password"},
	})

	if hasSessionCookie(rec) {
		t.Error("unknown user must not create a session")
	}
}

func TestHandleLoginPost_DisabledUser(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDisabledUser(ctx, "Former Admin", "former@example.com")

	rec := postLogin(handler, url.Values{
		"email":    {"former@example.com"},
		"password": {testutil.TestPassword},
	})

	if hasSessionCookie(rec) {
		t.Error("disabled user must not create a session")
	}
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateAdmin(ctx, "Camp Admin", "admin@example.com")

	bad := url.Values{"email": {"admin@example.com"}, "password": {"wrong-password"}}
	for i := 0; i < 5; i++ {
		postLogin(handler, bad)
	}

	// Even the right password is refused once the per-email budget is spent.
	rec := postLogin(handler, url.Values{
		"email":    {"admin@example.com"},
		"password": {testutil.TestPassword},
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
	if hasSessionCookie(rec) {
		t.Error("rate-limited attempt must not create a session")
	}
}

func TestHandleLoginPost_MissingFields(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postLogin(handler, url.Values{"email": {"admin@example.com"}})
	if rec.Header().Get("Location") != "" {
		t.Error("missing password should re-render the form")
	}
}

func TestServeLogin_SignedInRedirects(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/login", testutil.AdminUser())
	rec := httptest.NewRecorder()
	handler.ServeLogin(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location: got %q, want /dashboard", loc)
	}
}
