// internal/app/features/activities/routes.go
package activities

import (
	"github.com/go-chi/chi/v5"

	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// Routes mounts the activity endpoints. Reading is open to any signed-in
// user, writing is staff and admin, deletion is admin only.
func Routes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Get("/actividades", h.List)
		r.Get("/actividades/{id}", h.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleStaff, models.RoleAdmin))
		r.Post("/actividades", h.Create)
		r.Put("/actividades/{id}", h.Update)
		r.Post("/actividades/{id}/cerrar", h.Close)
		r.Post("/actividades/{id}/puntuar", h.Score)
		r.Get("/actividades/{id}/export", h.ExportEnrollments)
	})

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleAdmin))
		r.Delete("/actividades/{id}", h.Delete)
	})
}
