// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/app/system/auditlog"
	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every app environment variable (CAMPHUB_MONGO_URI, ...).
const EnvPrefix = "CAMPHUB"

// appConfigKeys defines the configuration keys for CampHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CAMPHUB_MONGO_URI, CAMPHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "camphub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 50, Desc: "MongoDB max connection pool size (default: 50)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "camphub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session lifetime (e.g., 12h, 30m)"},

	// Event
	{Name: "event_name", Default: rules.EventName, Desc: "Event title shown on pages and exports"},
	{Name: "site_notice", Default: "", Desc: "Banner shown on every page (simple HTML allowed)"},

	// Spreadsheets
	{Name: "import_conflict_keys", Default: "", Desc: "Comma-separated registrant fields that identify an existing record on import (full_name, age, gender, church_location); blank inserts every row"},
	{Name: "import_max_rows", Default: 5000, Desc: "Maximum data rows per imported workbook"},
	{Name: "template_validation_rows", Default: 1000, Desc: "Rows with dropdown validation in the import template"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL, used for the OAuth callback"},

	// Admin bootstrap
	{Name: "admin_name", Default: "Camp Administrator", Desc: "Display name of the bootstrap admin"},
	{Name: "admin_email", Default: "", Desc: "Email of the bootstrap admin (created on startup when no admin exists)"},
	{Name: "admin_password", Default: "", Desc: "Password of the bootstrap admin"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_data", Default: "all", Desc: "Data event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "timeout_batch", Default: "90s", Desc: "Deadline for import, export and group assignment"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CAMPHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 12*time.Hour),

		EventName:  appValues.String("event_name"),
		SiteNotice: appValues.String("site_notice"),

		ImportConflictKeys:     splitList(appValues.String("import_conflict_keys")),
		ImportMaxRows:          appValues.Int("import_max_rows"),
		TemplateValidationRows: appValues.Int("template_validation_rows"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		BaseURL:            strings.TrimRight(appValues.String("base_url"), "/"),

		AdminName:     appValues.String("admin_name"),
		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		AuditLogAuth: appValues.String("audit_log_auth"),
		AuditLogData: appValues.String("audit_log_data"),

		TimeoutBatch: appValues.Duration("timeout_batch", 90*time.Second),
	}

	return coreCfg, appCfg, nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validAuditMode(m string) bool {
	switch m {
	case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		return true
	}
	return false
}

// ValidateConfig performs app-specific config validation.
//
// It rejects a malformed MongoDB URI, unknown conflict keys, non-positive
// limits and unknown audit modes before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)", appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}

	for _, k := range appCfg.ImportConflictKeys {
		if !registrantstore.ValidConflictKey(k) {
			return fmt.Errorf("import_conflict_keys: unknown field %q (allowed: full_name, age, gender, church_location)", k)
		}
	}
	if appCfg.ImportMaxRows <= 0 {
		return fmt.Errorf("import_max_rows must be positive, got %d", appCfg.ImportMaxRows)
	}
	if appCfg.TemplateValidationRows <= 0 {
		return fmt.Errorf("template_validation_rows must be positive, got %d", appCfg.TemplateValidationRows)
	}
	if appCfg.SessionMaxAge <= 0 {
		return fmt.Errorf("session_max_age must be positive")
	}
	if appCfg.TimeoutBatch <= 0 {
		return fmt.Errorf("timeout_batch must be positive")
	}

	if !validAuditMode(appCfg.AuditLogAuth) || !validAuditMode(appCfg.AuditLogData) {
		return fmt.Errorf("audit_log_auth/audit_log_data must be one of all, db, log, off")
	}

	if (appCfg.AdminEmail == "") != (appCfg.AdminPassword == "") {
		return fmt.Errorf("admin_email and admin_password must be set together")
	}

	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return fmt.Errorf("session_key must be changed in production")
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		logger.Warn("Google sign-in disabled: both google_client_id and google_client_secret are required")
	}

	return nil
}
