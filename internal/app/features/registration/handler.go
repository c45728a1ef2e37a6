// internal/app/features/registration/handler.go
package registration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ulsconnect/ulsconnect/internal/app/store/registrations"
	"github.com/ulsconnect/ulsconnect/internal/app/system/htmlsanitize"
	"github.com/ulsconnect/ulsconnect/internal/app/system/mailer"
	"github.com/ulsconnect/ulsconnect/internal/app/system/normalize"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

var validate = validator.New()

// Handler accepts self-service registration requests. Accounts are not
// created here; an admin reviews every request first.
type Handler struct {
	Registrations *registrations.Store
	Mail          *mailer.Mailer
	Resp          *respond.Logger
	Log           *zap.Logger
	// AllowedDomains restricts signups to institutional email domains.
	AllowedDomains []string
}

func (h *Handler) domainAllowed(correo string) bool {
	at := strings.LastIndexByte(correo, '@')
	if at < 0 {
		return false
	}
	domain := correo[at+1:]
	for _, d := range h.AllowedDomains {
		if domain == d {
			return true
		}
	}
	return false
}

// Submit files a pending registration request and notifies the admin
// mailbox.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	req.Correo = normalize.Email(req.Correo)
	req.Nombre = normalize.Name(htmlsanitize.Clean(req.Nombre))
	req.Carrera = normalize.Name(htmlsanitize.Clean(req.Carrera))
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "Nombre, correo y contraseña (mínimo 6 caracteres) son obligatorios")
		return
	}
	if !h.domainAllowed(req.Correo) {
		h.Resp.BadRequest(w, "Debes usar tu correo institucional")
		return
	}

	rol := models.RoleEstudiante
	if req.Rol != "" {
		rol = normalize.Role(req.Rol)
		if rol == "" || rol == models.RoleAdmin {
			h.Resp.BadRequest(w, "Rol solicitado inválido")
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Resp.ServerError(w, r, "registration hash", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "registration submit")
	defer cancel()

	pending := &models.RegistrationRequest{
		Nombre:              req.Nombre,
		CorreoUniversitario: req.Correo,
		PasswordHash:        string(hash),
		RolSolicitado:       rol,
		Carrera:             req.Carrera,
	}
	if err := h.Registrations.Submit(ctx, pending); err != nil {
		switch {
		case errors.Is(err, registrations.ErrEmailTaken):
			h.Resp.Conflict(w, "Este correo ya tiene una cuenta")
		case errors.Is(err, registrations.ErrDuplicateRequest):
			h.Resp.Conflict(w, "Ya existe una solicitud para este correo")
		default:
			h.Resp.ServerError(w, r, "registration submit", err)
		}
		return
	}

	// Notify out of band; a mail failure must not fail the signup.
	go func(nombre, correo string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
		defer cancel()
		if err := h.Mail.NotifyRegistrationRequest(ctx, nombre, correo); err != nil {
			h.Log.Warn("registration notification not sent", zap.String("correo", correo), zap.Error(err))
		}
	}(pending.Nombre, pending.CorreoUniversitario)

	respond.Success(w, http.StatusCreated, map[string]any{
		"message": "Solicitud enviada, recibirás un correo cuando sea revisada",
	})
}
