// internal/app/features/volunteerpanel/handler.go
package volunteerpanel

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	actstore "github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	enrstore "github.com/ulsconnect/ulsconnect/internal/app/store/enrollments"
	"github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// Handler serves the volunteer's own dashboard and the public
// leaderboard.
type Handler struct {
	Users       *users.Store
	Enrollments *enrstore.Store
	Activities  *actstore.Store
	Resp        *respond.Logger
	Log         *zap.Logger
}

// Panel aggregates everything the volunteer dashboard shows: score,
// history, and enrollments joined with their activities.
func (h *Handler) Panel(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "volunteer panel")
	defer cancel()

	user, err := h.Users.GetByID(ctx, su.ID)
	if err != nil {
		h.Resp.ServerError(w, r, "volunteer panel user", err)
		return
	}

	mine, err := h.Enrollments.ListByUser(ctx, su.ID)
	if err != nil {
		h.Resp.ServerError(w, r, "volunteer panel enrollments", err)
		return
	}

	activas := 0
	inscripciones := make([]map[string]any, 0, len(mine))
	for _, e := range mine {
		if e.Estado == models.EnrollmentActiva || e.Estado == models.EnrollmentConfirmada {
			activas++
		}
		item := map[string]any{"inscripcion": e}
		if act, err := h.Activities.GetByID(ctx, e.Actividad); err == nil {
			item["actividad"] = act
		}
		inscripciones = append(inscripciones, item)
	}

	respond.OK(w, map[string]any{
		"panel": map[string]any{
			"nombre":               user.Nombre,
			"puntos":               user.Puntos,
			"historialPuntos":      user.HistorialPuntos,
			"inscripciones":        inscripciones,
			"inscripcionesActivas": activas,
		},
	})
}

// Score returns the caller's score and history only.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "volunteer score")
	defer cancel()

	puntos, historial, err := h.Users.Score(ctx, su.ID)
	if err != nil {
		h.Resp.ServerError(w, r, "volunteer score", err)
		return
	}
	respond.OK(w, map[string]any{"puntos": puntos, "historialPuntos": historial})
}

// Leaderboard returns the top students by score.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limite"), 10, 64)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "leaderboard")
	defer cancel()

	top, err := h.Users.Leaderboard(ctx, limit)
	if err != nil {
		h.Resp.ServerError(w, r, "leaderboard", err)
		return
	}

	board := make([]map[string]any, 0, len(top))
	for i, u := range top {
		board = append(board, map[string]any{
			"posicion": i + 1,
			"nombre":   u.Nombre,
			"carrera":  u.Carrera,
			"puntos":   u.Puntos,
		})
	}
	respond.OK(w, map[string]any{"leaderboard": board})
}
