// internal/app/features/activities/handler.go
package activities

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	actstore "github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	attstore "github.com/ulsconnect/ulsconnect/internal/app/store/attendance"
	"github.com/ulsconnect/ulsconnect/internal/app/store/enrollments"
	"github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auditlog"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/htmlsanitize"
	"github.com/ulsconnect/ulsconnect/internal/app/system/mailer"
	"github.com/ulsconnect/ulsconnect/internal/app/system/normalize"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

var validate = validator.New()

// Handler implements activity CRUD, close-out, and attendance scoring.
type Handler struct {
	Activities  *actstore.Store
	Enrollments *enrollments.Store
	Attendance  *attstore.Store
	Users       *users.Store
	Mail        *mailer.Mailer
	Audit       *auditlog.Logger
	Resp        *respond.Logger
	Log         *zap.Logger
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// List returns a page of activities, filterable by estado, area, and a
// case-insensitive title search.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.ParseInt(q.Get("pagina"), 10, 64)
	perPage, _ := strconv.ParseInt(q.Get("porPagina"), 10, 64)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity list")
	defer cancel()

	items, total, err := h.Activities.List(ctx, actstore.ListFilter{
		Estado:  q.Get("estado"),
		Area:    q.Get("area"),
		Search:  q.Get("buscar"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.Resp.ServerError(w, r, "activity list", err)
		return
	}
	respond.OK(w, map[string]any{"actividades": items, "total": total})
}

// Get returns one activity with its open enrollment count.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity get")
	defer cancel()

	act, err := h.Activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, actstore.ErrNotFound) {
			h.Resp.NotFound(w, "Actividad no encontrada")
			return
		}
		h.Resp.ServerError(w, r, "activity get", err)
		return
	}

	inscritos, err := h.Enrollments.CountByActivity(ctx, id, "")
	if err != nil {
		h.Resp.ServerError(w, r, "activity get count", err)
		return
	}
	respond.OK(w, map[string]any{"actividad": act, "totalInscritos": inscritos})
}

// Create registers a new activity. Staff and admin only (enforced by the
// route).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	req.Titulo = normalize.Name(htmlsanitize.Clean(req.Titulo))
	req.Descripcion = htmlsanitize.Clean(req.Descripcion)
	req.Lugar = normalize.Name(htmlsanitize.Clean(req.Lugar))
	req.Area = normalize.Name(htmlsanitize.Clean(req.Area))
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "El título es obligatorio (mínimo 3 caracteres)")
		return
	}
	if req.FechaInicio != nil && req.FechaFin != nil && !req.FechaFin.After(*req.FechaInicio) {
		h.Resp.BadRequest(w, "La fecha de término debe ser posterior a la de inicio")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity create")
	defer cancel()

	act := &models.Activity{
		Titulo:      req.Titulo,
		Descripcion: req.Descripcion,
		Area:        req.Area,
		Lugar:       req.Lugar,
		FechaInicio: req.FechaInicio,
		FechaFin:    req.FechaFin,
		Capacidad:   req.Capacidad,
		CreadoPor:   su.ID,
	}
	if err := h.Activities.Create(ctx, act); err != nil {
		h.Resp.ServerError(w, r, "activity create", err)
		return
	}
	respond.Success(w, http.StatusCreated, map[string]any{"actividad": act})
}

// Update edits an open activity.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	if req.Titulo != nil {
		clean := normalize.Name(htmlsanitize.Clean(*req.Titulo))
		req.Titulo = &clean
	}
	if req.Descripcion != nil {
		clean := htmlsanitize.Clean(*req.Descripcion)
		req.Descripcion = &clean
	}
	if req.Lugar != nil {
		clean := normalize.Name(htmlsanitize.Clean(*req.Lugar))
		req.Lugar = &clean
	}
	if req.Area != nil {
		clean := normalize.Name(htmlsanitize.Clean(*req.Area))
		req.Area = &clean
	}
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "Datos de actividad inválidos")
		return
	}
	if req.FechaInicio != nil && req.FechaFin != nil && !req.FechaFin.After(*req.FechaInicio) {
		h.Resp.BadRequest(w, "La fecha de término debe ser posterior a la de inicio")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity update")
	defer cancel()

	act, err := h.Activities.Update(ctx, id, actstore.UpdateFields{
		Titulo:         req.Titulo,
		Descripcion:    req.Descripcion,
		Area:           req.Area,
		Lugar:          req.Lugar,
		FechaInicio:    req.FechaInicio,
		FechaFin:       req.FechaFin,
		Capacidad:      req.Capacidad,
		ClearCapacidad: req.SinLimite,
	})
	if err != nil {
		switch {
		case errors.Is(err, actstore.ErrNotFound):
			h.Resp.NotFound(w, "Actividad no encontrada")
		case errors.Is(err, actstore.ErrAlreadyClosed):
			h.Resp.BadRequest(w, "La actividad ya está cerrada")
		default:
			h.Resp.ServerError(w, r, "activity update", err)
		}
		return
	}
	respond.OK(w, map[string]any{"actividad": act})
}
