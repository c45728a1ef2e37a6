// internal/app/system/auth/auth.go
//
// Package auth implements cookie-session authentication. A SessionManager
// is constructed once during bootstrap with its user fetcher injected, so
// handlers and tests receive it as a dependency instead of reaching for
// package globals.
//
// The session cookie stores only the user ID. Every request re-reads the
// user from the database, so role changes and account blocks take effect
// on the next request rather than at next login.
package auth

import (
	"context"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
)

const (
	sessionName = "ulsconnect_session"
	sessionUID  = "uid"
)

type ctxKey struct{}

// SessionUser is the authenticated user attached to the request context.
// It is a fresh snapshot from the database, not the login-time state.
type SessionUser struct {
	ID        primitive.ObjectID
	Nombre    string
	Correo    string
	Rol       string
	Bloqueado bool
}

// UserFetcher loads the session user for an ID. Implemented by the user
// store; a stub implementation is enough for handler tests.
type UserFetcher interface {
	FetchSessionUser(ctx context.Context, id primitive.ObjectID) (*SessionUser, error)
	// ErrNotFound reports whether err means the user no longer exists.
	IsNotFound(err error) bool
}

// Config carries the cookie settings from application config.
type Config struct {
	// Key signs and encrypts session cookies. When empty a random key is
	// generated, which invalidates sessions on restart.
	Key      string
	Secure   bool
	Domain   string
	MaxAge   int // seconds; 0 falls back to 7 days
	SameSite http.SameSite
}

// SessionManager issues, validates, and destroys session cookies.
type SessionManager struct {
	store   *sessions.CookieStore
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds the manager used by bootstrap and tests.
func NewSessionManager(cfg Config, fetcher UserFetcher, log *zap.Logger) *SessionManager {
	key := []byte(cfg.Key)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if log != nil {
			log.Warn("no session key configured; sessions will not survive restarts")
		}
	}
	store := sessions.NewCookieStore(key)
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = 7 * 24 * 60 * 60
	}
	sameSite := cfg.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite,
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{store: store, fetcher: fetcher, log: log}
}

// SignIn starts a session for the given user ID.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) error {
	session, _ := m.store.Get(r, sessionName)
	session.Values[sessionUID] = userID.Hex()
	return session.Save(r, w)
}

// SignOut destroys the current session.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) {
	session, _ := m.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	delete(session.Values, sessionUID)
	if err := session.Save(r, w); err != nil {
		m.log.Warn("destroying session failed", zap.Error(err))
	}
}

// WithUser resolves the session cookie to a fresh SessionUser and attaches
// it to the request context. Requests without a valid session pass through
// anonymously; blocked accounts get their session destroyed and a 403.
func (m *SessionManager) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, sessionName)
		if err != nil {
			// Undecodable cookie (rotated key, tampering): start clean.
			m.SignOut(w, r)
			next.ServeHTTP(w, r)
			return
		}
		hex, _ := session.Values[sessionUID].(string)
		if hex == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			m.SignOut(w, r)
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.fetcher.FetchSessionUser(r.Context(), id)
		if err != nil {
			if m.fetcher.IsNotFound(err) {
				m.SignOut(w, r)
				next.ServeHTTP(w, r)
				return
			}
			m.log.Error("loading session user failed", zap.String("user_id", hex), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}
		if user.Bloqueado {
			m.SignOut(w, r)
			respond.Error(w, http.StatusForbidden, "Cuenta bloqueada")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSessionUser(r.Context(), user)))
	})
}

// RequireSignedIn rejects anonymous requests with 401.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			respond.Error(w, http.StatusUnauthorized, "No autenticado")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole allows only signed-in users whose role is in roles.
func (m *SessionManager) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFrom(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "No autenticado")
				return
			}
			if !allowed[user.Rol] {
				respond.Error(w, http.StatusForbidden, "No tienes permisos para esta acción")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFrom returns the session user attached to ctx, if any.
func UserFrom(ctx context.Context) (*SessionUser, bool) {
	user, ok := ctx.Value(ctxKey{}).(*SessionUser)
	return user, ok
}

// WithSessionUser returns a context carrying user. Exported for tests that
// invoke handlers without the middleware chain.
func WithSessionUser(ctx context.Context, user *SessionUser) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}
