// internal/app/features/authn/routes.go
package authn

import (
	"github.com/go-chi/chi/v5"

	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
)

// Routes mounts authentication and profile endpoints.
func Routes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Get("/csrf-token", h.CSRFToken)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Get("/perfil", h.Profile)
		r.Put("/perfil", h.UpdateProfile)
		r.Post("/perfil/password", h.ChangePassword)
	})
}
