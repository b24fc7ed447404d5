package authgoogle_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/camphub/internal/app/features/authgoogle"
	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/testutil"
	"go.uber.org/zap"
)

const testKey = "test-session-key-for-testing-only"

func newHandler(t *testing.T, clientID, clientSecret string) *authgoogle.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager(testKey, "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	return authgoogle.NewHandler(db, sessionMgr, nil,
		clientID, clientSecret, "http://localhost:8080", testKey, false, logger)
}

func newTestHandler(t *testing.T) *authgoogle.Handler {
	return newHandler(t, "test-client-id", "test-client-secret")
}

func assertLoginError(t *testing.T, rec *httptest.ResponseRecorder, code string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, code) {
		t.Errorf("Location = %q, want to contain %q", loc, code)
	}
}

// startFlow runs ServeLogin and returns the state sent to Google plus the state cookie.
func startFlow(t *testing.T, h *authgoogle.Handler, target string) (string, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, target, nil))

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "camphub_oauth_state" {
			return loc.Query().Get("state"), c
		}
	}
	t.Fatal("state cookie not set")
	return "", nil
}

func TestIsConfigured(t *testing.T) {
	if !newTestHandler(t).IsConfigured() {
		t.Error("IsConfigured() should return true with client ID and secret")
	}
	if newHandler(t, "", "").IsConfigured() {
		t.Error("IsConfigured() should return false without client ID and secret")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h := newHandler(t, "", "")

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	assertLoginError(t, rec, "google_not_configured")
}

func TestServeLogin_RedirectsToGoogle(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Errorf("expected status %d, got %d", http.StatusTemporaryRedirect, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "accounts.google.com") {
		t.Errorf("Location = %q, want to contain 'accounts.google.com'", loc)
	}
}

func TestServeLogin_SetsSignedStateCookie(t *testing.T) {
	h := newTestHandler(t)

	state, cookie := startFlow(t, h, "/auth/google?return=/groups")
	if state == "" {
		t.Fatal("expected state in the Google redirect")
	}
	if !cookie.HttpOnly {
		t.Error("state cookie should be HttpOnly")
	}
	if strings.Contains(cookie.Value, state) {
		t.Error("state cookie should be encoded, not plain")
	}
}

func TestServeCallback_GoogleError(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied", nil))

	assertLoginError(t, rec, "google_denied")
}

func TestServeCallback_MissingStateCookie(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=abc&code=test-code", nil))

	assertLoginError(t, rec, "invalid_state")
}

func TestServeCallback_StateMismatch(t *testing.T) {
	h := newTestHandler(t)
	_, cookie := startFlow(t, h, "/auth/google")

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=forged&code=test-code", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, req)

	assertLoginError(t, rec, "invalid_state")
}

func TestServeCallback_TamperedCookie(t *testing.T) {
	h := newTestHandler(t)
	state, cookie := startFlow(t, h, "/auth/google")

	cookie.Value = "x" + cookie.Value
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+url.QueryEscape(state)+"&code=test-code", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, req)

	assertLoginError(t, rec, "invalid_state")
}

func TestServeCallback_ValidStateMissingCode(t *testing.T) {
	h := newTestHandler(t)
	state, cookie := startFlow(t, h, "/auth/google")

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+url.QueryEscape(state), nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, req)

	assertLoginError(t, rec, "invalid_code")
}

func TestRoutes(t *testing.T) {
	if authgoogle.Routes(newTestHandler(t)) == nil {
		t.Fatal("Routes() returned nil")
	}
}
