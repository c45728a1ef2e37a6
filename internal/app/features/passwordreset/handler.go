// internal/app/features/passwordreset/handler.go
package passwordreset

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	resetstore "github.com/ulsconnect/ulsconnect/internal/app/store/passwordreset"
	"github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/mailer"
	"github.com/ulsconnect/ulsconnect/internal/app/system/normalize"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
)

var validate = validator.New()

type requestResetBody struct {
	Correo string `json:"correo" validate:"required,email"`
}

type confirmResetBody struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Handler implements the forgot-password flow: mail a single-use token,
// then exchange it for a new password.
type Handler struct {
	Users  *users.Store
	Tokens *resetstore.Store
	Mail   *mailer.Mailer
	Resp   *respond.Logger
	Log    *zap.Logger
}

// Request issues a token and mails the link. The response is the same
// whether or not the email belongs to an account, so the endpoint cannot
// be used to probe for registered addresses.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	var req requestResetBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	req.Correo = normalize.Email(req.Correo)
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "Correo inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "password reset request")
	defer cancel()

	neutral := func() {
		respond.OK(w, map[string]any{
			"message": "Si el correo está registrado, recibirás un enlace para restablecer tu contraseña",
		})
	}

	user, err := h.Users.GetByEmail(ctx, req.Correo)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			neutral()
			return
		}
		h.Resp.ServerError(w, r, "password reset lookup", err)
		return
	}
	if user.Bloqueado {
		neutral()
		return
	}

	tok, err := h.Tokens.Issue(ctx, user.ID)
	if err != nil {
		h.Resp.ServerError(w, r, "password reset issue", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
		defer cancel()
		if err := h.Mail.SendPasswordReset(ctx, user.CorreoUniversitario, user.Nombre, tok.Token); err != nil {
			h.Log.Warn("password reset mail not sent",
				zap.String("correo", user.CorreoUniversitario), zap.Error(err))
		}
	}()

	neutral()
}

// Confirm redeems a token and sets the new password.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmResetBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "Token y contraseña (mínimo 6 caracteres) son obligatorios")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "password reset confirm")
	defer cancel()

	userID, err := h.Tokens.Consume(ctx, req.Token)
	if err != nil {
		if errors.Is(err, resetstore.ErrInvalidToken) {
			h.Resp.BadRequest(w, "El enlace no es válido o ya expiró")
			return
		}
		h.Resp.ServerError(w, r, "password reset consume", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Resp.ServerError(w, r, "password reset hash", err)
		return
	}
	if err := h.Users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		h.Resp.ServerError(w, r, "password reset update", err)
		return
	}
	respond.OK(w, map[string]any{"message": "Contraseña restablecida, ya puedes iniciar sesión"})
}
