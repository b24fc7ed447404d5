// internal/app/features/participants/handler.go
package participants

import (
	"context"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/camphub/internal/app/features/errors"
	"github.com/dalemusser/camphub/internal/app/features/participants/xlsxutil"
	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/app/system/auditlog"
	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/app/system/authz"
	"github.com/dalemusser/camphub/internal/app/system/inflight"
	"github.com/dalemusser/camphub/internal/domain/models"
	"go.uber.org/zap"
)

// RecordStore is the registrant store surface the spreadsheet pages use.
// *registrantstore.Store satisfies it.
type RecordStore interface {
	xlsxutil.Upserter
	Find(ctx context.Context, f registrantstore.Filter, o registrantstore.Order) ([]models.Registrant, error)
	Count(ctx context.Context, f registrantstore.Filter) (int64, error)
	Invoke(ctx context.Context, name string, args map[string]any) (any, error)
}

// Config carries the import/export settings from app config.
type Config struct {
	EventName      string
	ConflictKeys   []string
	MaxRows        int
	ValidationRows int
}

type Handler struct {
	Store      RecordStore
	Importer   *xlsxutil.Importer
	Identity   authz.IdentitySource
	Guard      *inflight.Guard
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
	Config     Config

	now func() time.Time
}

func NewHandler(
	store RecordStore,
	cfg Config,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	guard *inflight.Guard,
	logger *zap.Logger,
) *Handler {
	if guard == nil {
		guard = inflight.New()
	}
	im := xlsxutil.NewImporter(store, cfg.ConflictKeys, logger)
	if cfg.MaxRows > 0 {
		im.MaxRows = cfg.MaxRows
	}
	return &Handler{
		Store:      store,
		Importer:   im,
		Identity:   authz.SessionIdentity{},
		Guard:      guard,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Log:        logger,
		Config:     cfg,
		now:        time.Now,
	}
}

// requireAdmin resolves the caller and renders the refusal when they may not
// change data. Routes already enforce the role; this keeps the handlers safe
// when mounted elsewhere.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (authz.Identity, bool) {
	id := h.Identity.Identity(r)
	switch {
	case !id.IsAuthenticated:
		uierrors.RenderUnauthorized(w, r, "/login")
		return id, false
	case !id.HasAdmin:
		uierrors.RenderForbidden(w, r, "Only administrators can change participant data.", "/participants")
		return id, false
	}
	return id, true
}

// acquire takes the per-user guard for action or renders a 409.
func (h *Handler) acquire(w http.ResponseWriter, r *http.Request, id authz.Identity, action, msg string) (func(), bool) {
	release, ok := h.Guard.Acquire(inflight.Key(id.UserID.Hex(), action))
	if !ok {
		h.Log.Info("duplicate submission rejected",
			zap.String("action", action),
			zap.String("user_id", id.UserID.Hex()))
		if wantsJSON(r) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": msg})
		} else {
			uierrors.RenderConflict(w, r, msg, "/participants")
		}
		return nil, false
	}
	return release, true
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, msg string) {
	if h.SessionMgr != nil {
		h.SessionMgr.AddFlash(w, r, msg)
	}
}

// wantsJSON reports whether the client asked for a JSON result instead of a page.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func setDownloadHeaders(w http.ResponseWriter, filename string, size int) {
	w.Header().Set("Content-Type", xlsxutil.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", itoa(size))
	// Prevent browser caching of generated files
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
