// internal/app/features/activities/export.go
package activities

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	actstore "github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	"github.com/ulsconnect/ulsconnect/internal/app/system/csvutil"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
)

// ExportEnrollments streams the activity's enrollments as CSV, joined
// with user names and emails and, when an attendance list exists, each
// user's mark.
func (h *Handler) ExportEnrollments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "export enrollments")
	defer cancel()

	act, err := h.Activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, actstore.ErrNotFound) {
			h.Resp.NotFound(w, "Actividad no encontrada")
			return
		}
		h.Resp.ServerError(w, r, "export activity", err)
		return
	}

	enrolled, err := h.Enrollments.ListByActivity(ctx, id)
	if err != nil {
		h.Resp.ServerError(w, r, "export enrollments", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(enrolled))
	for _, e := range enrolled {
		ids = append(ids, e.Usuario)
	}
	usersByID, err := h.Users.ByIDs(ctx, ids)
	if err != nil {
		h.Resp.ServerError(w, r, "export users", err)
		return
	}

	marks := map[primitive.ObjectID]string{}
	if list, err := h.Attendance.GetByActivity(ctx, id); err == nil {
		for _, e := range list.Inscripciones {
			marks[e.Usuario] = e.Asistencia
		}
	}

	cw := csvutil.NewDownload(w, csvutil.Filename("inscripciones_"+act.Titulo, act.CreadoEn))
	defer cw.Flush()

	if err := cw.Write([]string{"nombre", "correo", "carrera", "estado", "asistencia", "inscrito"}); err != nil {
		return
	}
	for _, e := range enrolled {
		u := usersByID[e.Usuario]
		mark := marks[e.Usuario]
		creado := e.CreadoEn
		_ = cw.Write(csvutil.SanitizeRow([]string{
			u.Nombre,
			u.CorreoUniversitario,
			u.Carrera,
			e.Estado,
			mark,
			csvutil.FormatTime(&creado),
		}))
	}
}
