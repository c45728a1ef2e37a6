// internal/app/features/activities/close.go
package activities

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	actstore "github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/htmlsanitize"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// Close finalizes an activity: the state flips to "cerrada" exactly once,
// open enrollments move to "terminada", and every affected volunteer is
// notified by email.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())
	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	var req closeRequest
	if r.Body != nil {
		// The body is optional; a bare close has no motivo.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.Motivo = htmlsanitize.Clean(req.Motivo)
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "Motivo demasiado largo")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "close activity")
	defer cancel()

	// Snapshot the volunteers to notify before their enrollments flip.
	open, err := h.Enrollments.ListByActivity(ctx, id, models.OpenEnrollmentStates...)
	if err != nil {
		h.Resp.ServerError(w, r, "close activity enrollments", err)
		return
	}

	act, err := h.Activities.Close(ctx, id, req.Motivo, su.ID)
	if err != nil {
		switch {
		case errors.Is(err, actstore.ErrNotFound):
			h.Resp.NotFound(w, "Actividad no encontrada")
		case errors.Is(err, actstore.ErrAlreadyClosed):
			h.Resp.BadRequest(w, "La actividad ya está cerrada")
		default:
			h.Resp.ServerError(w, r, "close activity", err)
		}
		return
	}

	terminated, err := h.Enrollments.TerminateOpen(ctx, id)
	if err != nil {
		h.Resp.ServerError(w, r, "close activity terminate", err)
		return
	}

	userIDs := make([]primitive.ObjectID, 0, len(open))
	for _, e := range open {
		userIDs = append(userIDs, e.Usuario)
	}
	usersByID, err := h.Users.ByIDs(ctx, userIDs)
	if err != nil {
		h.Resp.ServerError(w, r, "close activity users", err)
		return
	}

	notified := make([]string, 0, len(usersByID))
	for _, u := range usersByID {
		notified = append(notified, u.CorreoUniversitario)
	}

	// Mail delivery happens out of band; the close is already committed.
	go func(titulo, motivo string, recipients map[primitive.ObjectID]models.User) {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
		defer cancel()
		for _, u := range recipients {
			if err := h.Mail.SendActivityClosed(ctx, u.CorreoUniversitario, u.Nombre, titulo, motivo); err != nil {
				h.Log.Warn("close notification not sent",
					zap.String("correo", u.CorreoUniversitario), zap.Error(err))
			}
		}
	}(act.Titulo, req.Motivo, usersByID)

	h.Audit.ActivityClosed(r, su.ID, act.ID, map[string]string{
		"titulo": act.Titulo,
		"motivo": req.Motivo,
	})

	respond.OK(w, map[string]any{
		"actividad":               act,
		"inscripcionesTerminadas": terminated,
		"notificados":             notified,
	})
}
