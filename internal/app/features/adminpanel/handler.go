// internal/app/features/adminpanel/handler.go
package adminpanel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	actstore "github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	enrstore "github.com/ulsconnect/ulsconnect/internal/app/store/enrollments"
	regstore "github.com/ulsconnect/ulsconnect/internal/app/store/registrations"
	repstore "github.com/ulsconnect/ulsconnect/internal/app/store/reports"
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

// Handler implements the administration surface: user management,
// registration review, impact reports, and CSV exports.
type Handler struct {
	Users         *users.Store
	Activities    *actstore.Store
	Enrollments   *enrstore.Store
	Registrations *regstore.Store
	Reports       *repstore.Store
	Mail          *mailer.Mailer
	Audit         *auditlog.Logger
	Resp          *respond.Logger
	Log           *zap.Logger
}

func pathID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// Stats returns the headline counts shown on the admin dashboard.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "admin stats")
	defer cancel()

	blocked := true
	totalUsuarios, err := h.Users.CountByRole(ctx, "", nil)
	if err != nil {
		h.Resp.ServerError(w, r, "admin stats", err)
		return
	}
	estudiantes, err := h.Users.CountByRole(ctx, models.RoleEstudiante, nil)
	if err != nil {
		h.Resp.ServerError(w, r, "admin stats", err)
		return
	}
	staff, err := h.Users.CountByRole(ctx, models.RoleStaff, nil)
	if err != nil {
		h.Resp.ServerError(w, r, "admin stats", err)
		return
	}
	bloqueados, err := h.Users.CountByRole(ctx, "", &blocked)
	if err != nil {
		h.Resp.ServerError(w, r, "admin stats", err)
		return
	}
	activas, err := h.Activities.CountByEstado(ctx, models.ActivityActiva)
	if err != nil {
		h.Resp.ServerError(w, r, "admin stats", err)
		return
	}
	cerradas, err := h.Activities.CountByEstado(ctx, models.ActivityCerrada)
	if err != nil {
		h.Resp.ServerError(w, r, "admin stats", err)
		return
	}
	pendientes, err := h.Registrations.CountByStatus(ctx, models.RegistrationPending)
	if err != nil {
		h.Resp.ServerError(w, r, "admin stats", err)
		return
	}
	porArea, err := h.Activities.CountByArea(ctx)
	if err != nil {
		h.Resp.ServerError(w, r, "admin stats", err)
		return
	}
	inscripcionesPorEstado, err := h.Enrollments.CountByEstado(ctx)
	if err != nil {
		h.Resp.ServerError(w, r, "admin stats", err)
		return
	}

	respond.OK(w, map[string]any{
		"estadisticas": map[string]any{
			"usuarios": map[string]int64{
				"total":       totalUsuarios,
				"estudiantes": estudiantes,
				"staff":       staff,
				"bloqueados":  bloqueados,
			},
			"actividades": map[string]any{
				"activas":  activas,
				"cerradas": cerradas,
				"porArea":  porArea,
			},
			"inscripcionesPorEstado": inscripcionesPorEstado,
			"solicitudesPendientes":  pendientes,
		},
	})
}

// ListUsers returns a page of accounts, filterable by role, blocked
// state, and a name/email search.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.ParseInt(q.Get("pagina"), 10, 64)
	perPage, _ := strconv.ParseInt(q.Get("porPagina"), 10, 64)

	filter := users.ListFilter{
		Rol:     normalize.Role(q.Get("rol")),
		Search:  q.Get("buscar"),
		Page:    page,
		PerPage: perPage,
	}
	if v := q.Get("bloqueado"); v != "" {
		b := v == "true" || v == "1"
		filter.Bloqueado = &b
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin user list")
	defer cancel()

	items, total, err := h.Users.List(ctx, filter)
	if err != nil {
		h.Resp.ServerError(w, r, "admin user list", err)
		return
	}
	for i := range items {
		items[i].PasswordHash = ""
		items[i].HistorialPuntos = nil
	}
	respond.OK(w, map[string]any{"usuarios": items, "total": total})
}

// UpdateRole changes a user's role. Admins cannot demote themselves,
// which keeps at least the acting admin in place.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de usuario inválido")
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	rol := normalize.Role(req.Rol)
	if !models.ValidRole(rol) {
		h.Resp.BadRequest(w, "Rol inválido")
		return
	}
	if id == su.ID && rol != models.RoleAdmin {
		h.Resp.BadRequest(w, "No puedes cambiar tu propio rol")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin role update")
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			h.Resp.NotFound(w, "Usuario no encontrado")
			return
		}
		h.Resp.ServerError(w, r, "admin role update", err)
		return
	}
	if err := h.Users.UpdateRole(ctx, id, rol); err != nil {
		h.Resp.ServerError(w, r, "admin role update", err)
		return
	}

	h.Audit.Admin(r, "role_changed", su.ID, id, map[string]string{
		"rolAnterior": target.Rol,
		"rolNuevo":    rol,
	})
	respond.OK(w, map[string]any{"rol": rol})
}

// SetBlocked blocks or unblocks an account. A blocked user's next
// request tears down their session.
func (h *Handler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de usuario inválido")
		return
	}

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	req.Motivo = htmlsanitize.Clean(req.Motivo)
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "El motivo no puede superar 500 caracteres")
		return
	}
	if id == su.ID && req.Bloqueado {
		h.Resp.BadRequest(w, "No puedes bloquear tu propia cuenta")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin block update")
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			h.Resp.NotFound(w, "Usuario no encontrado")
			return
		}
		h.Resp.ServerError(w, r, "admin block update", err)
		return
	}
	if err := h.Users.SetBlocked(ctx, id, req.Bloqueado); err != nil {
		h.Resp.ServerError(w, r, "admin block update", err)
		return
	}

	event := "user_unblocked"
	if req.Bloqueado {
		event = "user_blocked"
	}
	h.Audit.Admin(r, event, su.ID, id, map[string]string{"motivo": req.Motivo})
	respond.OK(w, map[string]any{"bloqueado": req.Bloqueado})
}

// ListRequests returns registration requests, defaulting to pending.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.RegistrationPending
	}
	if status == "todas" {
		status = ""
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "registration list")
	defer cancel()

	items, err := h.Registrations.List(ctx, status)
	if err != nil {
		h.Resp.ServerError(w, r, "registration list", err)
		return
	}
	respond.OK(w, map[string]any{"solicitudes": items})
}

// ApproveRequest turns a pending registration into an account and mails
// the applicant.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de solicitud inválido")
		return
	}
	var req reviewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.Notas = htmlsanitize.Clean(req.Notas)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "registration approve")
	defer cancel()

	request, account, err := h.Registrations.Approve(ctx, id, su.ID, req.Notas)
	if err != nil {
		switch {
		case errors.Is(err, regstore.ErrNotFound):
			h.Resp.NotFound(w, "Solicitud no encontrada")
		case errors.Is(err, regstore.ErrAlreadyReviewed):
			h.Resp.Conflict(w, "La solicitud ya fue revisada")
		case errors.Is(err, regstore.ErrEmailTaken):
			h.Resp.Conflict(w, "Este correo ya tiene una cuenta")
		default:
			h.Resp.ServerError(w, r, "registration approve", err)
		}
		return
	}

	h.Audit.Admin(r, "registration_approved", su.ID, account.ID, map[string]string{
		"correo": account.CorreoUniversitario,
	})

	go func(correo, nombre string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
		defer cancel()
		if err := h.Mail.SendRegistrationApproved(ctx, correo, nombre); err != nil {
			h.Log.Warn("approval notification not sent", zap.String("correo", correo), zap.Error(err))
		}
	}(account.CorreoUniversitario, account.Nombre)

	account.PasswordHash = ""
	respond.OK(w, map[string]any{"solicitud": request, "usuario": account})
}

// RejectRequest marks a pending registration as rejected and mails the
// applicant with the reviewer's notes.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de solicitud inválido")
		return
	}
	var req reviewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.Notas = htmlsanitize.Clean(req.Notas)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "registration reject")
	defer cancel()

	request, err := h.Registrations.Reject(ctx, id, su.ID, req.Notas)
	if err != nil {
		switch {
		case errors.Is(err, regstore.ErrNotFound):
			h.Resp.NotFound(w, "Solicitud no encontrada")
		case errors.Is(err, regstore.ErrAlreadyReviewed):
			h.Resp.Conflict(w, "La solicitud ya fue revisada")
		default:
			h.Resp.ServerError(w, r, "registration reject", err)
		}
		return
	}

	h.Audit.Admin(r, "registration_rejected", su.ID, request.ID, map[string]string{
		"correo": request.CorreoUniversitario,
	})

	go func(correo, nombre, notas string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
		defer cancel()
		if err := h.Mail.SendRegistrationRejected(ctx, correo, nombre, notas); err != nil {
			h.Log.Warn("rejection notification not sent", zap.String("correo", correo), zap.Error(err))
		}
	}(request.CorreoUniversitario, request.Nombre, req.Notas)

	respond.OK(w, map[string]any{"solicitud": request})
}
