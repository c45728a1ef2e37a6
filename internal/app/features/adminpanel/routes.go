// internal/app/features/adminpanel/routes.go
package adminpanel

import (
	"github.com/go-chi/chi/v5"

	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// Routes mounts the administration endpoints. Impact reports are open to
// staff; everything else is admin only.
func Routes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleStaff, models.RoleAdmin))
		r.Post("/actividades/{id}/reporte", h.GenerateReport)
		r.Get("/actividades/{id}/reporte", h.GetReport)
	})

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleAdmin))
		r.Get("/admin/estadisticas", h.Stats)
		r.Get("/admin/usuarios", h.ListUsers)
		r.Post("/admin/usuarios/{id}/rol", h.UpdateRole)
		r.Post("/admin/usuarios/{id}/bloquear", h.SetBlocked)
		r.Get("/admin/solicitudes", h.ListRequests)
		r.Post("/admin/solicitudes/{id}/aprobar", h.ApproveRequest)
		r.Post("/admin/solicitudes/{id}/rechazar", h.RejectRequest)
		r.Get("/admin/reportes", h.ListReports)
		r.Get("/admin/reportes/export", h.ExportReports)
		r.Get("/admin/usuarios/export", h.ExportUsers)
	})
}
