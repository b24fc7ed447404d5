package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	userEmail = "user_email"
	userRole  = "user_role"
	flashKey  = "_flash"
)

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// IsAdmin reports whether the user holds the admin role.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, "admin")
}

// UserFetcher reloads a signed-in user on every request so that disabled
// accounts and role changes take effect without waiting for the cookie to
// expire. A nil user with a nil error means the account is gone or disabled.
type UserFetcher interface {
	FetchUser(ctx context.Context, id string) (*SessionUser, error)
}

// SessionManager owns the cookie store and the auth middleware.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	log     *zap.Logger
	fetcher UserFetcher
}

// NewSessionManager builds the cookie store. In production (secure=true)
// cookies are Secure + SameSite=None; over http://localhost use secure=false.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "camphub-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher enables per-request revalidation of the session user.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) {
	sm.fetcher = f
}

func (sm *SessionManager) session(r *http.Request) *sessions.Session {
	// Get returns a fresh session alongside a decode error for stale cookies.
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		sm.log.Debug("discarding unreadable session cookie", zap.Error(err))
	}
	return sess
}

// SignIn stores the user in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess := sm.session(r)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userEmail] = u.Email
	sess.Values[userRole] = u.Role
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut clears the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess := sm.session(r)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// AddFlash queues a one-shot message for the next page render.
func (sm *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, msg string) {
	sess := sm.session(r)
	sess.AddFlash(msg, flashKey)
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("save flash failed", zap.Error(err))
	}
}

// Flashes pops queued messages. It writes the session, so call it before
// the response body is written.
func (sm *SessionManager) Flashes(w http.ResponseWriter, r *http.Request) []string {
	sess := sm.session(r)
	raw := sess.Flashes(flashKey)
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("save session after flashes failed", zap.Error(err))
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u the way LoadSessionUser does. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// LoadSessionUser injects the user into context if they are logged in.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sm.session(r)
		isAuth, _ := sess.Values[isAuthKey].(bool)
		if !isAuth {
			next.ServeHTTP(w, r)
			return
		}

		u := &SessionUser{
			ID:    getString(sess, userIDKey),
			Name:  getString(sess, userName),
			Email: getString(sess, userEmail),
			Role:  getString(sess, userRole),
		}
		if sm.fetcher != nil {
			fresh, err := sm.fetcher.FetchUser(r.Context(), u.ID)
			switch {
			case err != nil:
				// Keep the cached identity; a database hiccup should not sign everyone out.
				sm.log.Warn("reload session user failed", zap.String("user_id", u.ID), zap.Error(err))
			case fresh == nil:
				sm.log.Info("session user no longer active", zap.String("user_id", u.ID))
				_ = sm.SignOut(w, r)
				next.ServeHTTP(w, r)
				return
			default:
				u = fresh
			}
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		toLogin(w, r)
	})
}

// RequireRole ensures the signed-in user holds one of the allowed roles.
// Wrong role goes to /forbidden (HTML/HTMX) or 403 (API).
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				toLogin(w, r)
				return
			}

			if _, has := set[strings.ToLower(u.Role)]; !has {
				if r.Header.Get("HX-Request") == "true" {
					w.Header().Set("HX-Redirect", "/forbidden")
					w.WriteHeader(http.StatusForbidden)
					return
				}
				if wantsHTML(r) {
					http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func toLogin(w http.ResponseWriter, r *http.Request) {
	ret := url.QueryEscape(currentURI(r))

	// HTMX: full-page client redirect (no partial swap)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login?return="+ret)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

// wantsHTML treats HTMX and Accept: text/html requests as browser traffic.
func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// SafeReturn accepts only same-site relative paths for ?return= targets.
func SafeReturn(ret, fallback string) string {
	ret = strings.TrimSpace(ret)
	if ret == "" || !strings.HasPrefix(ret, "/") || strings.HasPrefix(ret, "//") || strings.Contains(ret, `\`) {
		return fallback
	}
	return ret
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}
