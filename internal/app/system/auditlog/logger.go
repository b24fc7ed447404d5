// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/camphub/internal/app/store/audit"
	"github.com/dalemusser/camphub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/camphub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for one category of events.
const (
	ModeAll = "all" // MongoDB and zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config selects a destination per category. Empty means ModeAll.
type Config struct {
	Auth string // sign-in and sign-out
	Data string // template, import, export, assignment, registration, user creation
}

// Logger writes audit events to MongoDB and zap according to Config.
// A nil *Logger is a no-op so handlers and tests can omit it.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryData:
		m = l.config.Data
	}
	if m == "" {
		return ModeAll
	}
	return m
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's mode.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	m := l.mode(event.Category)
	if m == ModeOff {
		return
	}
	if m == ModeAll || m == ModeLog {
		l.logToZap(event)
	}
	if (m == ModeAll || m == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// base fills the request-derived fields. r is nil for CLI actions.
func base(r *http.Request, category, eventType string, success bool) audit.Event {
	e := audit.Event{Category: category, EventType: eventType, Success: success, IP: "cli"}
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// --- Authentication ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, authMethod, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"auth_method": authMethod, "email": email}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": email}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.UserID = idPtr(userID)
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedUserDisabled, false)
	e.UserID = idPtr(userID)
	e.FailureReason = "user disabled"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, false)
	e.FailureReason = "rate limited"
	e.Details = map[string]string{"attempted_email": email}
	l.Log(ctx, e)
}

// Logout takes the session's hex ID; malformed IDs are logged without a user.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDHex string) {
	e := base(r, audit.CategoryAuth, audit.EventLogout, true)
	if oid, err := primitive.ObjectIDFromHex(userIDHex); err == nil {
		e.UserID = &oid
	}
	l.Log(ctx, e)
}

// --- Data ---

func (l *Logger) TemplateDownloaded(ctx context.Context, r *http.Request, actorID primitive.ObjectID) {
	e := base(r, audit.CategoryData, audit.EventTemplateDownloaded, true)
	e.ActorID = idPtr(actorID)
	l.Log(ctx, e)
}

// ImportSummary is the part of an import result worth keeping.
type ImportSummary struct {
	BatchID   string
	Filename  string
	Processed int
	Inserted  int64
	Skipped   int
	Success   bool
	Message   string
}

func (l *Logger) ParticipantsImported(ctx context.Context, r *http.Request, actorID primitive.ObjectID, s ImportSummary) {
	e := base(r, audit.CategoryData, audit.EventParticipantsImported, s.Success)
	e.ActorID = idPtr(actorID)
	if !s.Success {
		e.FailureReason = htmlsanitize.PlainText(s.Message)
	}
	e.Details = map[string]string{
		"batch_id":  s.BatchID,
		"filename":  htmlsanitize.PlainText(s.Filename),
		"processed": strconv.Itoa(s.Processed),
		"inserted":  strconv.FormatInt(s.Inserted, 10),
		"skipped":   strconv.Itoa(s.Skipped),
	}
	l.Log(ctx, e)
}

// ImportUndone records the removal of the rows one import created.
func (l *Logger) ImportUndone(ctx context.Context, r *http.Request, actorID primitive.ObjectID, batchID string, deleted int64, err error) {
	e := base(r, audit.CategoryData, audit.EventImportUndone, err == nil)
	e.ActorID = idPtr(actorID)
	if err != nil {
		e.FailureReason = err.Error()
	}
	e.Details = map[string]string{"batch_id": batchID, "deleted": strconv.FormatInt(deleted, 10)}
	l.Log(ctx, e)
}

func (l *Logger) ParticipantsExported(ctx context.Context, r *http.Request, actorID primitive.ObjectID, rows, sheets int) {
	e := base(r, audit.CategoryData, audit.EventParticipantsExported, true)
	e.ActorID = idPtr(actorID)
	e.Details = map[string]string{"rows": strconv.Itoa(rows), "sheets": strconv.Itoa(sheets)}
	l.Log(ctx, e)
}

func (l *Logger) GroupsAssigned(ctx context.Context, r *http.Request, actorID primitive.ObjectID, operation string, assigned int, err error) {
	e := base(r, audit.CategoryData, audit.EventGroupsAssigned, err == nil)
	e.ActorID = idPtr(actorID)
	if err != nil {
		e.FailureReason = err.Error()
	}
	e.Details = map[string]string{"operation": operation, "assigned": strconv.Itoa(assigned)}
	l.Log(ctx, e)
}

func (l *Logger) RegistrantCreated(ctx context.Context, r *http.Request, actorID, registrantID primitive.ObjectID, location string) {
	e := base(r, audit.CategoryData, audit.EventRegistrantCreated, true)
	e.ActorID = idPtr(actorID)
	e.Details = map[string]string{"registrant_id": registrantID.Hex(), "church_location": location}
	l.Log(ctx, e)
}

func (l *Logger) UserCreated(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, role, authMethod string) {
	e := base(r, audit.CategoryData, audit.EventUserCreated, true)
	e.ActorID = idPtr(actorID)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"role": role, "auth_method": authMethod}
	l.Log(ctx, e)
}
