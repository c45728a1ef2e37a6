package registration_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/ulsconnect/ulsconnect/internal/app/features/registration"
	"github.com/ulsconnect/ulsconnect/internal/app/store/registrations"
	"github.com/ulsconnect/ulsconnect/internal/app/system/indexes"
	"github.com/ulsconnect/ulsconnect/internal/app/system/mailer"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
	"github.com/ulsconnect/ulsconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func newTestHandler(t *testing.T, db *mongo.Database) *registration.Handler {
	t.Helper()
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	logger := zap.NewNop()
	mail, err := mailer.New(mailer.Config{}, logger)
	if err != nil {
		t.Fatalf("mailer.New failed: %v", err)
	}
	return &registration.Handler{
		Registrations:  registrations.New(db),
		Mail:           mail,
		Resp:           respond.NewLogger(logger),
		Log:            logger,
		AllowedDomains: []string{"userena.cl", "alumnouls.cl"},
	}
}

func TestSubmit_CreatesPendingRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db)

	req := testutil.JSONRequest(t, "POST", "/api/registro", map[string]string{
		"nombre":   "María Rojas",
		"correo":   "MARIA.ROJAS@userena.cl",
		"password": "secreto123",
		"carrera":  "Ingeniería Civil",
	})
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	ctx := testutil.TestContext(t)
	var stored models.RegistrationRequest
	err := db.Collection("registrationRequests").
		FindOne(ctx, bson.M{"correoUniversitario": "maria.rojas@userena.cl"}).
		Decode(&stored)
	if err != nil {
		t.Fatalf("stored request not found: %v", err)
	}
	if stored.Status != models.RegistrationPending {
		t.Errorf("status: got %q, want %q", stored.Status, models.RegistrationPending)
	}
	if stored.PasswordHash == "secreto123" {
		t.Error("password must be stored hashed")
	}
	if stored.RolSolicitado != models.RoleEstudiante {
		t.Errorf("rol: got %q, want %q", stored.RolSolicitado, models.RoleEstudiante)
	}
}

func TestSubmit_RejectsForeignDomain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db)

	req := testutil.JSONRequest(t, "POST", "/api/registro", map[string]string{
		"nombre":   "Pedro Soto",
		"correo":   "pedro@gmail.com",
		"password": "secreto123",
	})
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body struct {
		Error string `json:"error"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.Error != "Debes usar tu correo institucional" {
		t.Errorf("error: got %q", body.Error)
	}
}

func TestSubmit_RejectsAdminRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db)

	req := testutil.JSONRequest(t, "POST", "/api/registro", map[string]string{
		"nombre":   "Ana Vega",
		"correo":   "ana.vega@userena.cl",
		"password": "secreto123",
		"rol":      "admin",
	})
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSubmit_DuplicatePendingRequestConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db)

	body := map[string]string{
		"nombre":   "Luis Paz",
		"correo":   "luis.paz@alumnouls.cl",
		"password": "secreto123",
	}
	rec := httptest.NewRecorder()
	h.Submit(rec, testutil.JSONRequest(t, "POST", "/api/registro", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first submit: got %d, want %d", rec.Code, http.StatusCreated)
	}

	rec = httptest.NewRecorder()
	h.Submit(rec, testutil.JSONRequest(t, "POST", "/api/registro", body))
	if rec.Code != http.StatusConflict {
		t.Fatalf("second submit: got %d, want %d", rec.Code, http.StatusConflict)
	}
}
