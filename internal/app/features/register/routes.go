// internal/app/features/register/routes.go
package register

import (
	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeForm)
	r.Post("/", h.HandleSubmit)
	return r
}
