// internal/app/features/attendance/handler.go
package attendance

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	attstore "github.com/ulsconnect/ulsconnect/internal/app/store/attendance"
	"github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// Handler manages attendance lists. All endpoints are staff/admin only.
type Handler struct {
	Attendance *attstore.Store
	Users      *users.Store
	Resp       *respond.Logger
	Log        *zap.Logger
}

// parseIDs converts hex IDs, failing on the first malformed one.
func parseIDs(raw []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// withUserInfo decorates list entries with names and emails for display.
func (h *Handler) withUserInfo(r *http.Request, list *models.AttendanceList) (map[string]any, error) {
	ids := make([]primitive.ObjectID, 0, len(list.Inscripciones))
	for _, e := range list.Inscripciones {
		ids = append(ids, e.Usuario)
	}
	usersByID, err := h.Users.ByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}

	entries := make([]map[string]any, 0, len(list.Inscripciones))
	for _, e := range list.Inscripciones {
		item := map[string]any{
			"usuario":    e.Usuario.Hex(),
			"asistencia": e.Asistencia,
		}
		if u, ok := usersByID[e.Usuario]; ok {
			item["nombre"] = u.Nombre
			item["correoUniversitario"] = u.CorreoUniversitario
		}
		entries = append(entries, item)
	}
	return map[string]any{
		"id":            list.ID.Hex(),
		"actividad":     list.Actividad.Hex(),
		"fecha":         list.Fecha,
		"registradoPor": list.RegistradoPor.Hex(),
		"inscripciones": entries,
	}, nil
}

// Create seeds the attendance list for an activity from its open
// enrollments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())
	actID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create attendance")
	defer cancel()

	list, created, err := h.Attendance.Create(ctx, actID, su.ID)
	if err != nil {
		h.Resp.ServerError(w, r, "create attendance", err)
		return
	}

	payload, err := h.withUserInfo(r, list)
	if err != nil {
		h.Resp.ServerError(w, r, "create attendance users", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.Success(w, status, map[string]any{"asistencia": payload, "creada": created})
}

// Get returns the attendance list of an activity.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get attendance")
	defer cancel()

	list, err := h.Attendance.GetByActivity(ctx, actID)
	if err != nil {
		if errors.Is(err, attstore.ErrNotFound) {
			h.Resp.NotFound(w, "La actividad no tiene asistencia registrada")
			return
		}
		h.Resp.ServerError(w, r, "get attendance", err)
		return
	}

	payload, err := h.withUserInfo(r, list)
	if err != nil {
		h.Resp.ServerError(w, r, "get attendance users", err)
		return
	}
	respond.OK(w, map[string]any{"asistencia": payload})
}

// Take records a full attendance pass from the three user groups.
func (h *Handler) Take(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())
	listID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Resp.BadRequest(w, "ID de asistencia inválido")
		return
	}

	var req takeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	presentes, err := parseIDs(req.Presentes)
	if err != nil {
		h.Resp.BadRequest(w, "ID de usuario inválido en presentes")
		return
	}
	ausentes, err := parseIDs(req.Ausentes)
	if err != nil {
		h.Resp.BadRequest(w, "ID de usuario inválido en ausentes")
		return
	}
	justificadas, err := parseIDs(req.Justificadas)
	if err != nil {
		h.Resp.BadRequest(w, "ID de usuario inválido en justificadas")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "take attendance")
	defer cancel()

	list, err := h.Attendance.Take(ctx, listID, presentes, ausentes, justificadas, su.ID)
	if err != nil {
		if errors.Is(err, attstore.ErrNotFound) {
			h.Resp.NotFound(w, "Registro de asistencia no encontrado")
			return
		}
		h.Resp.ServerError(w, r, "take attendance", err)
		return
	}

	payload, err := h.withUserInfo(r, list)
	if err != nil {
		h.Resp.ServerError(w, r, "take attendance users", err)
		return
	}
	respond.OK(w, map[string]any{"asistencia": payload})
}

// Update changes individual marks without touching the rest of the list.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())
	listID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Resp.BadRequest(w, "ID de asistencia inválido")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	if len(req.Entradas) == 0 {
		h.Resp.BadRequest(w, "No hay entradas para actualizar")
		return
	}

	// Entries with an unknown mark are dropped, not fatal: the rest of
	// the batch still applies and the dropped users are reported back
	// with the ones missing from the roster.
	var invalid []string
	updates := make([]attstore.EntryUpdate, 0, len(req.Entradas))
	for _, e := range req.Entradas {
		uid, err := primitive.ObjectIDFromHex(e.Usuario)
		if err != nil {
			h.Resp.BadRequest(w, "ID de usuario inválido")
			return
		}
		if !models.ValidAsistencia(e.Asistencia) {
			invalid = append(invalid, uid.Hex())
			continue
		}
		updates = append(updates, attstore.EntryUpdate{Usuario: uid, Asistencia: e.Asistencia})
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "update attendance")
	defer cancel()

	list, skipped, err := h.Attendance.UpdateEntries(ctx, listID, updates, su.ID)
	if err != nil {
		if errors.Is(err, attstore.ErrNotFound) {
			h.Resp.NotFound(w, "Registro de asistencia no encontrado")
			return
		}
		h.Resp.ServerError(w, r, "update attendance", err)
		return
	}

	payload, err := h.withUserInfo(r, list)
	if err != nil {
		h.Resp.ServerError(w, r, "update attendance users", err)
		return
	}
	respond.OK(w, map[string]any{"asistencia": payload, "omitidos": append(skipped, invalid...)})
}

// Refresh re-syncs the list with the activity's current enrollments.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())
	listID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Resp.BadRequest(w, "ID de asistencia inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "refresh attendance")
	defer cancel()

	list, added, removed, err := h.Attendance.Refresh(ctx, listID, su.ID)
	if err != nil {
		if errors.Is(err, attstore.ErrNotFound) {
			h.Resp.NotFound(w, "Registro de asistencia no encontrado")
			return
		}
		h.Resp.ServerError(w, r, "refresh attendance", err)
		return
	}

	payload, err := h.withUserInfo(r, list)
	if err != nil {
		h.Resp.ServerError(w, r, "refresh attendance users", err)
		return
	}
	respond.OK(w, map[string]any{"asistencia": payload, "agregados": added, "eliminados": removed})
}
