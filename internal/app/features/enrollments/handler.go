// internal/app/features/enrollments/handler.go
package enrollments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	actstore "github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	enrstore "github.com/ulsconnect/ulsconnect/internal/app/store/enrollments"
	"github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/htmlsanitize"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// Handler implements enrollment and cancellation.
type Handler struct {
	Enrollments *enrstore.Store
	Activities  *actstore.Store
	Users       *users.Store
	Resp        *respond.Logger
	Log         *zap.Logger
}

type enrollRequest struct {
	Actividad string `json:"actividad"`
}

type cancelRequest struct {
	Motivo string `json:"motivo"`
}

// Enroll signs the caller up for an activity.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	actID, err := primitive.ObjectIDFromHex(req.Actividad)
	if err != nil {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "enroll")
	defer cancel()

	e, err := h.Enrollments.Enroll(ctx, su.ID, actID)
	if err != nil {
		switch {
		case errors.Is(err, enrstore.ErrActivityNotFound):
			h.Resp.NotFound(w, "Actividad no encontrada")
		case errors.Is(err, enrstore.ErrActivityClosed):
			h.Resp.BadRequest(w, "La actividad no está abierta a inscripciones")
		case errors.Is(err, enrstore.ErrNoCapacity):
			h.Resp.Conflict(w, "La actividad no tiene cupos disponibles")
		case errors.Is(err, enrstore.ErrAlreadyEnrolled):
			h.Resp.Conflict(w, "Ya estás inscrito en esta actividad")
		default:
			h.Resp.ServerError(w, r, "enroll", err)
		}
		return
	}
	respond.Success(w, http.StatusCreated, map[string]any{"inscripcion": e})
}

// Cancel cancels an enrollment. Volunteers may cancel their own; staff
// and admin may cancel anyone's.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Resp.BadRequest(w, "ID de inscripción inválido")
		return
	}

	var req cancelRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.Motivo = htmlsanitize.Clean(req.Motivo)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "cancel enrollment")
	defer cancel()

	e, err := h.Enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, enrstore.ErrNotFound) {
			h.Resp.NotFound(w, "Inscripción no encontrada")
			return
		}
		h.Resp.ServerError(w, r, "cancel lookup", err)
		return
	}
	if e.Usuario != su.ID && su.Rol == models.RoleEstudiante {
		respond.Error(w, http.StatusForbidden, "No puedes cancelar inscripciones de otras personas")
		return
	}

	cancelled, err := h.Enrollments.Cancel(ctx, id, req.Motivo)
	if err != nil {
		switch {
		case errors.Is(err, enrstore.ErrNotFound):
			h.Resp.NotFound(w, "Inscripción no encontrada")
		case errors.Is(err, enrstore.ErrNotCancelable):
			h.Resp.BadRequest(w, "La inscripción no se puede cancelar en su estado actual")
		default:
			h.Resp.ServerError(w, r, "cancel enrollment", err)
		}
		return
	}
	respond.OK(w, map[string]any{"inscripcion": cancelled})
}

// Confirm marks an enrollment as confirmed ahead of the event.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Resp.BadRequest(w, "ID de inscripción inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "confirm enrollment")
	defer cancel()

	e, err := h.Enrollments.Confirm(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, enrstore.ErrNotFound):
			h.Resp.NotFound(w, "Inscripción no encontrada")
		case errors.Is(err, enrstore.ErrNotCancelable):
			h.Resp.BadRequest(w, "Solo se pueden confirmar inscripciones activas")
		default:
			h.Resp.ServerError(w, r, "confirm enrollment", err)
		}
		return
	}
	respond.OK(w, map[string]any{"inscripcion": e})
}

// Mine lists the caller's enrollments joined with their activities.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "my enrollments")
	defer cancel()

	mine, err := h.Enrollments.ListByUser(ctx, su.ID)
	if err != nil {
		h.Resp.ServerError(w, r, "my enrollments", err)
		return
	}

	out := make([]map[string]any, 0, len(mine))
	for _, e := range mine {
		item := map[string]any{"inscripcion": e}
		if act, err := h.Activities.GetByID(ctx, e.Actividad); err == nil {
			item["actividad"] = act
		}
		out = append(out, item)
	}
	respond.OK(w, map[string]any{"inscripciones": out})
}

// ForActivity lists an activity's enrollments joined with user info.
func (h *Handler) ForActivity(w http.ResponseWriter, r *http.Request) {
	actID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity enrollments")
	defer cancel()

	enrolled, err := h.Enrollments.ListByActivity(ctx, actID)
	if err != nil {
		h.Resp.ServerError(w, r, "activity enrollments", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(enrolled))
	for _, e := range enrolled {
		ids = append(ids, e.Usuario)
	}
	usersByID, err := h.Users.ByIDs(ctx, ids)
	if err != nil {
		h.Resp.ServerError(w, r, "activity enrollment users", err)
		return
	}

	out := make([]map[string]any, 0, len(enrolled))
	for _, e := range enrolled {
		item := map[string]any{"inscripcion": e}
		if u, ok := usersByID[e.Usuario]; ok {
			item["usuario"] = map[string]any{
				"id":                  u.ID.Hex(),
				"nombre":              u.Nombre,
				"correoUniversitario": u.CorreoUniversitario,
				"carrera":             u.Carrera,
			}
		}
		out = append(out, item)
	}
	respond.OK(w, map[string]any{"inscripciones": out})
}
