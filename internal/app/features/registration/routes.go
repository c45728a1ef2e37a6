// internal/app/features/registration/routes.go
package registration

import "github.com/go-chi/chi/v5"

// Routes mounts the public signup endpoint. The caller wraps it in the
// public rate limiter.
func Routes(r chi.Router, h *Handler) {
	r.Post("/registro", h.Submit)
}
