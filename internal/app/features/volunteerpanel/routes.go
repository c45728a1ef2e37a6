// internal/app/features/volunteerpanel/routes.go
package volunteerpanel

import (
	"github.com/go-chi/chi/v5"

	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
)

func Routes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Get("/panel/voluntario", h.Panel)
		r.Get("/puntuacion", h.Score)
		r.Get("/leaderboard", h.Leaderboard)
	})
}
