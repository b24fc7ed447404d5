// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework side (ports, TLS, logging, request limits); everything here is
// specific to the camp registration app.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: camphub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Session lifetime

	// Event
	EventName  string // Title on pages and exports
	SiteNotice string // Optional banner shown on every page; simple HTML allowed

	// Spreadsheet import/export
	ImportConflictKeys     []string // Registrant fields that identify an existing record; empty means plain inserts
	ImportMaxRows          int      // Data rows accepted per workbook
	TemplateValidationRows int      // Rows in the template that get dropdown validation

	// Google OAuth (optional)
	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string // e.g., "https://camp.example.org"; used for the OAuth callback

	// Bootstrap admin, created on startup when no active admin exists
	AdminName     string
	AdminEmail    string
	AdminPassword string

	// Audit logging destinations: all, db, log, off
	AuditLogAuth string
	AuditLogData string

	// Deadline for import, export and assignment
	TimeoutBatch time.Duration
}
