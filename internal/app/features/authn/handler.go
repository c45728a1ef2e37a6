// internal/app/features/authn/handler.go
package authn

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auditlog"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/normalize"
	"github.com/ulsconnect/ulsconnect/internal/app/system/ratelimit"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
)

var validate = validator.New()

// Handler implements login, logout, CSRF token issuance, and the signed-in
// user's own profile.
type Handler struct {
	Users    *users.Store
	Sessions *auth.SessionManager
	Logins   *ratelimit.LoginLimiter
	Audit    *auditlog.Logger
	Resp     *respond.Logger
	Log      *zap.Logger
}

// Login authenticates by institutional email and password and starts a
// session. Wrong email and wrong password answer identically.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	req.Correo = normalize.Email(req.Correo)
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "Correo y contraseña son obligatorios")
		return
	}

	if ok, msg := h.Logins.Check(r, req.Correo); !ok {
		respond.Error(w, http.StatusTooManyRequests, msg)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Correo)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			h.Audit.LoginFailed(r, req.Correo, "unknown account")
			respond.Error(w, http.StatusUnauthorized, "Credenciales inválidas")
			return
		}
		h.Resp.ServerError(w, r, "login", err)
		return
	}
	if user.Bloqueado {
		h.Audit.LoginFailed(r, req.Correo, "blocked account")
		respond.Error(w, http.StatusForbidden, "Cuenta bloqueada")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.Audit.LoginFailed(r, req.Correo, "bad password")
		respond.Error(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	if err := h.Sessions.SignIn(w, r, user.ID); err != nil {
		h.Resp.ServerError(w, r, "login session", err)
		return
	}
	h.Logins.ResetEmail(req.Correo)

	respond.OK(w, map[string]any{
		"usuario": map[string]any{
			"id":                  user.ID.Hex(),
			"nombre":              user.Nombre,
			"correoUniversitario": user.CorreoUniversitario,
			"rol":                 user.Rol,
			"puntos":              user.Puntos,
		},
	})
}

// Logout destroys the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.SignOut(w, r)
	respond.OK(w, map[string]any{"message": "Sesión cerrada"})
}

// CSRFToken hands the SPA a token for state-changing requests.
func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, map[string]any{"csrfToken": csrf.Token(r)})
}

// Profile returns the signed-in user's full profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile lookup")
	defer cancel()

	user, err := h.Users.GetByID(ctx, su.ID)
	if err != nil {
		h.Resp.ServerError(w, r, "profile", err)
		return
	}
	respond.OK(w, map[string]any{"usuario": user})
}

// UpdateProfile edits the caller's name and degree program.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	req.Nombre = normalize.Name(req.Nombre)
	req.Carrera = normalize.Name(req.Carrera)
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "Nombre inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile update")
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, su.ID, req.Nombre, req.Carrera); err != nil {
		h.Resp.ServerError(w, r, "profile update", err)
		return
	}
	respond.OK(w, map[string]any{"message": "Perfil actualizado"})
}

// ChangePassword verifies the current password and stores a new hash.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "La nueva contraseña debe tener al menos 6 caracteres")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "password change")
	defer cancel()

	user, err := h.Users.GetByID(ctx, su.ID)
	if err != nil {
		h.Resp.ServerError(w, r, "password change", err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.PasswordActual)) != nil {
		respond.Error(w, http.StatusUnauthorized, "Contraseña actual incorrecta")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PasswordNueva), bcrypt.DefaultCost)
	if err != nil {
		h.Resp.ServerError(w, r, "password hash", err)
		return
	}
	if err := h.Users.UpdatePasswordHash(ctx, su.ID, string(hash)); err != nil {
		h.Resp.ServerError(w, r, "password update", err)
		return
	}
	respond.OK(w, map[string]any{"message": "Contraseña actualizada"})
}
