// internal/app/system/auth/auth_test.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errNoUser = errors.New("user not found")

type stubFetcher struct {
	users map[primitive.ObjectID]*SessionUser
}

func (f *stubFetcher) FetchSessionUser(_ context.Context, id primitive.ObjectID) (*SessionUser, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errNoUser
	}
	return u, nil
}

func (f *stubFetcher) IsNotFound(err error) bool { return errors.Is(err, errNoUser) }

func newTestManager(users ...*SessionUser) *SessionManager {
	f := &stubFetcher{users: make(map[primitive.ObjectID]*SessionUser)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return NewSessionManager(Config{Key: "0123456789abcdef0123456789abcdef"}, f, nil)
}

// signedInRequest signs in as user and returns a request carrying the
// resulting session cookie.
func signedInRequest(t *testing.T, m *SessionManager, user *SessionUser) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	if err := m.SignIn(rec, req, user.ID); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}
	next := httptest.NewRequest(http.MethodGet, "/api/perfil", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	return next
}

func TestWithUserAttachesFreshUser(t *testing.T) {
	user := &SessionUser{ID: primitive.NewObjectID(), Nombre: "Ana", Rol: "estudiante"}
	m := newTestManager(user)

	var got *SessionUser
	h := m.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedInRequest(t, m, user))

	if got == nil || got.ID != user.ID {
		t.Fatalf("context user = %+v, want %v", got, user.ID)
	}
}

func TestWithUserBlockedAccount(t *testing.T) {
	user := &SessionUser{ID: primitive.NewObjectID(), Rol: "estudiante", Bloqueado: true}
	m := newTestManager(user)

	h := m.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("blocked user must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedInRequest(t, m, user))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", rec.Code)
	}
	// Session must be destroyed.
	destroyed := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName && c.MaxAge < 0 {
			destroyed = true
		}
	}
	if !destroyed {
		t.Error("session cookie was not cleared")
	}
}

func TestWithUserUnknownUserPassesAnonymously(t *testing.T) {
	user := &SessionUser{ID: primitive.NewObjectID()}
	m := newTestManager() // fetcher knows nobody

	called := false
	h := m.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := UserFrom(r.Context()); ok {
			t.Error("deleted user should not be in context")
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedInRequest(t, m, user))
	if !called {
		t.Fatal("handler not reached")
	}
}

func TestRequireSignedIn(t *testing.T) {
	m := newTestManager()
	h := m.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/perfil", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: got %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/perfil", nil)
	req = req.WithContext(WithSessionUser(req.Context(), &SessionUser{ID: primitive.NewObjectID()}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("signed in: got %d, want 200", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	m := newTestManager()
	h := m.RequireRole("staff", "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	cases := []struct {
		rol  string
		want int
	}{
		{"admin", http.StatusOK},
		{"staff", http.StatusOK},
		{"estudiante", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/usuarios", nil)
		req = req.WithContext(WithSessionUser(req.Context(), &SessionUser{ID: primitive.NewObjectID(), Rol: tc.rol}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("rol %q: got %d, want %d", tc.rol, rec.Code, tc.want)
		}
	}
}
