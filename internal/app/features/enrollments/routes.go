// internal/app/features/enrollments/routes.go
package enrollments

import (
	"github.com/go-chi/chi/v5"

	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// Routes mounts enrollment endpoints.
func Routes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Post("/inscripciones", h.Enroll)
		r.Get("/inscripciones/mias", h.Mine)
		r.Post("/inscripciones/{id}/cancelar", h.Cancel)
	})

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleStaff, models.RoleAdmin))
		r.Post("/inscripciones/{id}/confirmar", h.Confirm)
		r.Get("/actividades/{id}/inscripciones", h.ForActivity)
	})
}
