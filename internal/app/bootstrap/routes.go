// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"net/http"
	"sync"

	auditlogfeature "github.com/dalemusser/camphub/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/camphub/internal/app/features/authgoogle"
	dashboardfeature "github.com/dalemusser/camphub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/camphub/internal/app/features/errors"
	groupsfeature "github.com/dalemusser/camphub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/camphub/internal/app/features/health"
	homefeature "github.com/dalemusser/camphub/internal/app/features/home"
	loginfeature "github.com/dalemusser/camphub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/camphub/internal/app/features/logout"
	participantsfeature "github.com/dalemusser/camphub/internal/app/features/participants"
	registerfeature "github.com/dalemusser/camphub/internal/app/features/register"
	auditstore "github.com/dalemusser/camphub/internal/app/store/audit"
	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	userstore "github.com/dalemusser/camphub/internal/app/store/users"
	"github.com/dalemusser/camphub/internal/app/system/auditlog"
	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/app/system/inflight"
	"github.com/dalemusser/camphub/internal/app/system/ratelimit"
	"github.com/dalemusser/camphub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

var (
	bgMu      sync.Mutex
	bgClosers []func()
)

// onShutdown registers cleanup for resources BuildHandler starts.
func onShutdown(fn func()) {
	bgMu.Lock()
	bgClosers = append(bgClosers, fn)
	bgMu.Unlock()
}

func closeBackground() {
	bgMu.Lock()
	defer bgMu.Unlock()
	for _, fn := range bgClosers {
		fn()
	}
	bgClosers = nil
}

// csrfKey derives the 32-byte CSRF key from the session key.
func csrfKey(sessionKey string) []byte {
	sum := sha256.Sum256([]byte("csrf:" + sessionKey))
	return sum[:]
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It boots the template engine, applies
// session and CSRF middleware, and mounts every feature router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.CampHubMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Revalidate the session user on each request so role changes and
	// disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	viewdata.Init(appCfg.EventName, appCfg.SiteNotice, sessionMgr)

	errLog := errorsfeature.NewErrorLogger(logger)
	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth: appCfg.AuditLogAuth,
		Data: appCfg.AuditLogData,
	})
	limiter := ratelimit.NewLoginLimiter()
	onShutdown(limiter.Close)
	guard := inflight.New()
	registrants := registrantstore.New(db, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.CampHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	errorsHandler := errorsfeature.NewHandler()

	participantsHandler := participantsfeature.NewHandler(registrants, participantsfeature.Config{
		EventName:      appCfg.EventName,
		ConflictKeys:   appCfg.ImportConflictKeys,
		MaxRows:        appCfg.ImportMaxRows,
		ValidationRows: appCfg.TemplateValidationRows,
	}, sessionMgr, errLog, audit, guard, logger)

	// Everything with a form sits behind CSRF protection.
	r.Group(func(pr chi.Router) {
		// The upload cap must apply before CSRF reads the multipart body.
		pr.Use(participantsHandler.LimitImportBody("/participants/import"))
		if !secure {
			// Plain http:// in dev; skip the Referer check meant for TLS.
			pr.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, csrf.PlaintextHTTPRequest(req))
				})
			})
		}
		pr.Use(csrf.Protect(csrfKey(appCfg.SessionKey),
			csrf.Secure(secure),
			csrf.Path("/"),
			csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				logger.Warn("CSRF validation failed",
					zap.String("path", req.URL.Path),
					zap.Error(csrf.FailureReason(req)))
				errorsfeature.RenderForbidden(w, req, "Your form expired. Go back, reload the page and try again.", "")
			})),
		))

		// Public pages
		homeHandler := homefeature.NewHandler(logger)
		pr.Get("/", homeHandler.ServeRoot)

		// Authentication
		googleEnabled := appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""
		loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, audit, limiter, googleEnabled, logger)
		pr.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, audit, logger)
		pr.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		if googleEnabled {
			googleHandler := authgooglefeature.NewHandler(db, sessionMgr, audit,
				appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, appCfg.SessionKey,
				secure, logger)
			pr.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
		}

		// Error pages
		pr.Get("/forbidden", errorsHandler.Forbidden)
		pr.Get("/unauthorized", errorsHandler.Unauthorized)

		// Statistics
		dashboardHandler := dashboardfeature.NewHandler(db, logger)
		pr.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		// Single registration
		registerHandler := registerfeature.NewHandler(registrants, sessionMgr, errLog, audit, logger)
		pr.Mount("/register", registerfeature.Routes(registerHandler, sessionMgr))

		// Participant list, spreadsheets and group assignment
		pr.Mount("/participants", participantsfeature.Routes(participantsHandler, sessionMgr))

		// Group tabs
		groupsHandler := groupsfeature.NewHandler(registrants, logger)
		pr.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

		// Audit trail
		activityHandler := auditlogfeature.NewHandler(auditstore.New(db), userstore.New(db), errLog, logger)
		pr.Mount("/activity", auditlogfeature.Routes(activityHandler, sessionMgr))
	})

	r.NotFound(errorsHandler.NotFound)

	logger.Info("routes mounted",
		zap.String("event", appCfg.EventName),
		zap.Bool("google_sign_in", appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""),
		zap.Strings("import_conflict_keys", appCfg.ImportConflictKeys))

	return r, nil
}
