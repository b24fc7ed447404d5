// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/camphub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the view model for every error page.
type pageData struct {
	viewdata.BaseVM
	Heading string
	Message string
}

// Handler serves the standalone error pages. No DB needed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "You don't have permission to view this page.", "/")
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r, "")
}

// NotFound is mounted as the router's 404 handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	RenderNotFound(w, r, "We couldn't find that page.", "/")
}

func render(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, title, backURL),
		Heading: title,
		Message: msg,
	}
	if backURL != "" {
		data.BackURL = backURL
	}
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}
