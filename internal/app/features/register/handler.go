// internal/app/features/register/handler.go
package register

import (
	"context"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/camphub/internal/app/features/errors"
	"github.com/dalemusser/camphub/internal/app/system/auditlog"
	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/app/system/authz"
	"github.com/dalemusser/camphub/internal/app/system/inputval"
	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/dalemusser/camphub/internal/app/system/viewdata"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Inserter stores one registrant; *registrantstore.Store satisfies it.
type Inserter interface {
	Insert(ctx context.Context, r models.Registrant) (models.Registrant, error)
}

type Handler struct {
	Store      Inserter
	Identity   authz.IdentitySource
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(store Inserter, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:      store,
		Identity:   authz.SessionIdentity{},
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Log:        logger,
	}
}

type formData struct {
	viewdata.BaseVM

	Form      inputval.Registration
	Errors    inputval.Errors
	Locations []string
	Genders   []string
	MinAge    int
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, in inputval.Registration, errs inputval.Errors) {
	data := formData{
		BaseVM:    viewdata.NewPage(w, r, "Register a Participant", "/dashboard"),
		Form:      in,
		Errors:    errs,
		Locations: rules.Locations,
		Genders:   rules.Genders,
		MinAge:    rules.MinAge,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	templates.Render(w, r, "register_form", data)
}

// ServeForm shows the empty registration form.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, inputval.Registration{}, nil)
}

// HandleSubmit validates and stores one registrant. On success it redirects
// back to an empty form with the new record's ID in a flash.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	id := h.Identity.Identity(r)
	if !id.HasAdmin {
		uierrors.RenderForbidden(w, r, "Only administrators can register participants.", "/dashboard")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/register")
		return
	}

	in := inputval.Registration{
		FullName: r.PostFormValue("full_name"),
		Age:      r.PostFormValue("age"),
		Gender:   r.PostFormValue("gender"),
		Location: r.PostFormValue("church_location"),
	}
	rec, errs := inputval.ValidateRegistration(in)
	if errs != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, in.Trimmed(), errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	saved, err := h.Store.Insert(ctx, rec)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "insert registrant failed", err, "Could not save the registration. Try again.", "/register")
		return
	}

	h.AuditLog.RegistrantCreated(r.Context(), r, id.UserID, saved.ID, saved.ChurchLocation)
	h.Log.Info("registrant created",
		zap.String("registrant_id", saved.ID.Hex()),
		zap.String("church_location", saved.ChurchLocation),
		zap.String("user_id", id.UserID.Hex()))

	if h.SessionMgr != nil {
		h.SessionMgr.AddFlash(w, r, fmt.Sprintf("Registered %s (ID %s).", saved.FullName, saved.ID.Hex()))
	}
	http.Redirect(w, r, "/register", http.StatusSeeOther)
}
