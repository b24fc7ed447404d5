// internal/app/features/participants/routes.go
package participants

import (
	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the participant list and the spreadsheet actions.
// Anyone signed in can browse; only admins change or download data.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin))
		pr.Get("/template", h.ServeTemplate)
		pr.Post("/import", h.HandleImport)
		pr.Get("/export", h.ServeExport)
		pr.Post("/assign", h.HandleAssign)
	})

	return r
}
