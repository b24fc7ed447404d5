// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/dalemusser/camphub/internal/app/system/auth"
	"go.uber.org/zap"
)

// ErrorLogger logs a failure with request context and renders the matching page.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger wraps logger for handler use.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fs := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fs = append(fs, zap.String("user_id", u.ID))
	}
	return fs
}

// LogServerError logs at error level and renders a 500 page with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.Log.Error(logMsg, e.fields(r, err)...)
	RenderServerError(w, r, userMsg, backURL)
}

// LogBadRequest logs at warn level and renders a 400 page with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.Log.Warn(logMsg, e.fields(r, err)...)
	RenderBadRequest(w, r, userMsg, backURL)
}
