// internal/app/features/attendance/routes.go
package attendance

import (
	"github.com/go-chi/chi/v5"

	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// Routes mounts attendance endpoints, staff and admin only.
func Routes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleStaff, models.RoleAdmin))
		r.Post("/actividades/{id}/asistencia", h.Create)
		r.Get("/actividades/{id}/asistencia", h.Get)
		r.Post("/asistencia/{id}/tomar", h.Take)
		r.Patch("/asistencia/{id}/entradas", h.Update)
		r.Post("/asistencia/{id}/refrescar", h.Refresh)
	})
}
