// internal/app/features/activities/delete.go
package activities

import (
	"errors"
	"net/http"

	actstore "github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
)

// Delete removes an activity together with its enrollments and attendance
// list. Admin only; closing is the normal end of life for an activity,
// deletion is for records created by mistake.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())
	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "activity delete")
	defer cancel()

	act, err := h.Activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, actstore.ErrNotFound) {
			h.Resp.NotFound(w, "Actividad no encontrada")
			return
		}
		h.Resp.ServerError(w, r, "activity delete get", err)
		return
	}

	removed, err := h.Enrollments.DeleteByActivity(ctx, id)
	if err != nil {
		h.Resp.ServerError(w, r, "activity delete enrollments", err)
		return
	}
	if err := h.Attendance.DeleteByActivity(ctx, id); err != nil {
		h.Resp.ServerError(w, r, "activity delete attendance", err)
		return
	}
	if err := h.Activities.Delete(ctx, id); err != nil {
		h.Resp.ServerError(w, r, "activity delete", err)
		return
	}

	h.Audit.ActivityDeleted(r, su.ID, id, map[string]string{"titulo": act.Titulo})

	respond.OK(w, map[string]any{
		"eliminada":               act.Titulo,
		"inscripcionesEliminadas": removed,
	})
}
