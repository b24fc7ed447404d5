// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	userstore "github.com/dalemusser/camphub/internal/app/store/users"
	"github.com/dalemusser/camphub/internal/app/system/auditlog"
	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/app/system/normalize"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookie = "camphub_oauth_state"
	stateTTL    = 10 * time.Minute
)

// Handler handles Google OAuth authentication.
type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://camp.example.org/auth/google/callback"
	Secure       bool   // mark the state cookie Secure

	codec *securecookie.SecureCookie
}

// NewHandler creates a new Google OAuth handler. stateKey signs the
// short-lived state cookie; the session key is a fine choice.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL, stateKey string,
	secure bool,
	logger *zap.Logger,
) *Handler {
	codec := securecookie.New([]byte(stateKey), nil)
	codec.MaxAge(int(stateTTL / time.Second))

	return &Handler{
		Users:        userstore.New(db),
		Log:          logger,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Secure:       secure,
		codec:        codec,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// oauthState is what the signed state cookie carries across the round trip.
type oauthState struct {
	State  string
	Return string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := auth.SafeReturn(query.Get(r, "return"), "")

	encoded, err := h.codec.Encode(stateCookie, oauthState{State: state, Return: returnURL})
	if err != nil {
		h.Log.Error("failed to encode OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    encoded,
		Path:     "/auth/google",
		MaxAge:   int(stateTTL / time.Second),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.oauth2Config().AuthCodeURL(state)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the Google profile, matches it to an existing    |
| account by email, and signs the user in. No accounts are created here.      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	saved, ok := h.readState(r)
	h.clearState(w)
	if !ok || saved.State == "" || saved.State != r.URL.Query().Get("state") {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}
	if !googleUser.EmailVerified {
		http.Redirect(w, r, "/login?error=unverified_email", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctxTimeout, googleUser.Email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.Log.Info("Google OAuth: user not found", zap.String("email", googleUser.Email))
		h.AuditLog.LoginFailedUserNotFound(ctx, r, googleUser.Email)
		http.Redirect(w, r, "/login?error=no_account", http.StatusSeeOther)
		return
	case err != nil:
		h.Log.Error("failed to look up user", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if normalize.Status(u.Status) == models.StatusDisabled {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, googleUser.Email)
		http.Redirect(w, r, "/login?error=account_disabled", http.StatusSeeOther)
		return
	}

	h.createSessionAndRedirect(ctxTimeout, w, r, u, saved.Return)
}

func (h *Handler) readState(r *http.Request) (oauthState, bool) {
	var st oauthState
	c, err := r.Cookie(stateCookie)
	if err != nil {
		return st, false
	}
	if err := h.codec.Decode(stateCookie, c.Value, &st); err != nil {
		h.Log.Debug("OAuth state cookie rejected", zap.Error(err))
		return st, false
	}
	return st, true
}

func (h *Handler) clearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
	})
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session creation                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) createSessionAndRedirect(ctx context.Context, w http.ResponseWriter, r *http.Request, u *models.User, returnURL string) {
	su := auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  normalize.Role(u.Role),
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", su.ID))
		http.Redirect(w, r, "/login?error=session", http.StatusSeeOther)
		return
	}
	if err := h.Users.TouchLogin(ctx, u.ID); err != nil {
		h.Log.Warn("record last login failed", zap.Error(err), zap.String("user_id", su.ID))
	}

	h.AuditLog.LoginSuccess(ctx, r, u.ID, models.AuthGoogle, u.Email)
	h.Log.Info("user logged in via Google OAuth", zap.String("user_id", su.ID))

	http.Redirect(w, r, auth.SafeReturn(returnURL, "/dashboard"), http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
