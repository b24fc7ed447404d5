// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"
)

// RenderUnauthorized shows a "sign in required" page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	render(w, r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL)
}

// RenderForbidden shows an access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	render(w, r, http.StatusForbidden, "Access denied", msg, backURL)
}

// RenderNotFound shows a 404 page.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	render(w, r, http.StatusNotFound, "Not found", msg, backURL)
}

// RenderBadRequest shows a 400 page for malformed input.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	render(w, r, http.StatusBadRequest, "Bad request", msg, backURL)
}

// RenderConflict shows a 409 page, used when the same action is already running.
func RenderConflict(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	render(w, r, http.StatusConflict, "Already in progress", msg, backURL)
}

// RenderServerError shows a 500 page. The message is shown to the user as-is,
// so keep internals out of it.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	render(w, r, http.StatusInternalServerError, "Something went wrong", msg, backURL)
}
