// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/camphub/internal/app/features/errors"
	userstore "github.com/dalemusser/camphub/internal/app/store/users"
	"github.com/dalemusser/camphub/internal/app/system/auditlog"
	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/app/system/normalize"
	"github.com/dalemusser/camphub/internal/app/system/ratelimit"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/dalemusser/camphub/internal/app/system/viewdata"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users         *userstore.Store
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	Limiter       *ratelimit.LoginLimiter
	GoogleEnabled bool // True if Google OAuth is configured
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:         userstore.New(db),
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		AuditLog:      audit,
		Limiter:       limiter,
		GoogleEnabled: googleEnabled,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	ReturnURL     string
	GoogleEnabled bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := query.Get(r, "return")

	// Already signed in: nothing to do here.
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, auth.SafeReturn(ret, "/dashboard"), http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewPage(w, r, "Sign in", "/"),
		ReturnURL:     ret,
		GoogleEnabled: h.GoogleEnabled,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if email == "" || password == "" {
		h.renderFormWithError(w, r, "Please enter your email and password.", email, ret)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, email)
			w.WriteHeader(http.StatusTooManyRequests)
			h.renderFormWithError(w, r, reason, email, ret)
			return
		}
	}

	u, err := h.Users.Authenticate(ctx, email, password)
	switch {
	case err == nil:
		// authenticated
	case errors.Is(err, userstore.ErrInvalidCredentials) && u == nil:
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		h.renderFormWithError(w, r, "Incorrect email or password.", email, ret)
		return
	case errors.Is(err, userstore.ErrInvalidCredentials):
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
		msg := "Incorrect email or password."
		if u.PasswordHash == "" && h.GoogleEnabled {
			msg = "This account signs in with Google."
		}
		h.renderFormWithError(w, r, msg, email, ret)
		return
	case errors.Is(err, userstore.ErrUserDisabled):
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, email)
		h.renderFormWithError(w, r, "Your account is currently disabled. Please contact an administrator.", email, ret)
		return
	default:
		h.ErrLog.LogServerError(w, r, "authenticate user", err, "A server error occurred.", "/login")
		return
	}

	h.signIn(ctx, w, r, u, models.AuthPassword, ret)
}

// signIn creates the session and redirects to the return target.
func (h *Handler) signIn(ctx context.Context, w http.ResponseWriter, r *http.Request, u *models.User, method, ret string) {
	su := auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  normalize.Role(u.Role),
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", su.ID))
		h.renderFormWithError(w, r, "Unable to create session. Please try again.", u.Email, ret)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(u.Email)
	}
	if err := h.Users.TouchLogin(ctx, u.ID); err != nil {
		h.Log.Warn("record last login failed", zap.Error(err), zap.String("user_id", su.ID))
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, method, u.Email)

	http.Redirect(w, r, auth.SafeReturn(ret, "/dashboard"), http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, ret string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:         msg,
		Email:         email,
		ReturnURL:     ret,
		GoogleEnabled: h.GoogleEnabled,
	})
}
