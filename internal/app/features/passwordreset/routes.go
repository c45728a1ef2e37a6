// internal/app/features/passwordreset/routes.go
package passwordreset

import "github.com/go-chi/chi/v5"

// Routes mounts the public password reset endpoints. The caller wraps
// them in the public rate limiter.
func Routes(r chi.Router, h *Handler) {
	r.Post("/auth/recuperar", h.Request)
	r.Post("/auth/restablecer", h.Confirm)
}
