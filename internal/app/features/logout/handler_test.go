package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/camphub/internal/app/features/logout"
	"github.com/dalemusser/camphub/internal/app/system/auditlog"
	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestServeLogout_RedirectsToHome(t *testing.T) {
	handler := logout.NewHandler(newSessionManager(t), nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want %q", loc, "/")
	}
}

func TestServeLogout_ClearsSessionCookie(t *testing.T) {
	sm := newSessionManager(t)
	handler := logout.NewHandler(sm, nil, zap.NewNop())

	// Sign in first so there is a real cookie to clear.
	setup := httptest.NewRecorder()
	if err := sm.SignIn(setup, httptest.NewRequest(http.MethodGet, "/", nil), auth.SessionUser{ID: "abc", Role: "admin"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, c := range setup.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, req)

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("cookie MaxAge: got %d, want negative (delete)", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set for deletion")
	}
}

func TestServeLogout_HTMX_ReturnsHXRedirect(t *testing.T) {
	handler := logout.NewHandler(newSessionManager(t), nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, req)

	if got := rec.Header().Get("HX-Redirect"); got != "/" {
		t.Errorf("HX-Redirect: got %q, want %q", got, "/")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d for HTMX, got %d", http.StatusOK, rec.Code)
	}
}

func TestServeLogout_AuditsSignedInUser(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{})
	handler := logout.NewHandler(newSessionManager(t), audit, zap.NewNop())

	user := testutil.AdminUser()
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/logout", user))

	entries := logs.FilterField(zap.String("event_type", "logout")).All()
	if len(entries) != 1 {
		t.Fatalf("expected one logout audit entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["user_id"]; got != user.ID {
		t.Errorf("user_id = %v, want %s", got, user.ID)
	}
}

func TestRoutes_RequireSignedIn(t *testing.T) {
	sm := newSessionManager(t)
	router := logout.Routes(logout.NewHandler(sm, nil, zap.NewNop()), sm)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect to login, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); len(loc) < 6 || loc[:6] != "/login" {
		t.Errorf("Location: got %q, want /login...", loc)
	}
}
