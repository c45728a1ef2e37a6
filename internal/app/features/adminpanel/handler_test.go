package adminpanel_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ulsconnect/ulsconnect/internal/app/features/adminpanel"
	actstore "github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	enrstore "github.com/ulsconnect/ulsconnect/internal/app/store/enrollments"
	regstore "github.com/ulsconnect/ulsconnect/internal/app/store/registrations"
	repstore "github.com/ulsconnect/ulsconnect/internal/app/store/reports"
	"github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auditlog"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/indexes"
	"github.com/ulsconnect/ulsconnect/internal/app/system/mailer"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
	"github.com/ulsconnect/ulsconnect/internal/testutil"
)

type testEnv struct {
	db            *mongo.Database
	handler       *adminpanel.Handler
	users         *users.Store
	registrations *regstore.Store
	admin         *auth.SessionUser
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	logger := zap.NewNop()
	mail, err := mailer.New(mailer.Config{}, logger)
	if err != nil {
		t.Fatalf("mailer.New failed: %v", err)
	}

	env := &testEnv{
		db:            db,
		users:         users.New(db),
		registrations: regstore.New(db),
	}
	env.handler = &adminpanel.Handler{
		Users:         env.users,
		Activities:    actstore.New(db),
		Enrollments:   enrstore.New(db),
		Registrations: env.registrations,
		Reports:       repstore.New(db),
		Mail:          mail,
		Audit:         auditlog.New(nil, logger, auditlog.ModeOff),
		Resp:          respond.NewLogger(logger),
		Log:           logger,
	}

	adminUser := testutil.NewUser()
	adminUser.Rol = models.RoleAdmin
	if err := env.users.Create(ctx, adminUser); err != nil {
		t.Fatalf("creating admin: %v", err)
	}
	env.admin = &auth.SessionUser{
		ID:     adminUser.ID,
		Nombre: adminUser.Nombre,
		Correo: adminUser.CorreoUniversitario,
		Rol:    adminUser.Rol,
	}
	return env
}

func (e *testEnv) submitRequest(t *testing.T) *models.RegistrationRequest {
	t.Helper()
	ctx := testutil.TestContext(t)
	u := testutil.NewUser()
	req := &models.RegistrationRequest{
		Nombre:              u.Nombre,
		CorreoUniversitario: u.CorreoUniversitario,
		PasswordHash:        u.PasswordHash,
		RolSolicitado:       models.RoleEstudiante,
	}
	if err := e.registrations.Submit(ctx, req); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return req
}

func TestApproveRequest_CreatesAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)
	pending := env.submitRequest(t)

	req := testutil.AsUser(testutil.WithChiURLParam(
		testutil.JSONRequest(t, "POST", "/api/admin/solicitudes/"+pending.ID.Hex()+"/aprobar", nil),
		"id", pending.ID.Hex()), env.admin)
	rec := httptest.NewRecorder()
	env.handler.ApproveRequest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	created, err := env.users.GetByEmail(ctx, pending.CorreoUniversitario)
	if err != nil {
		t.Fatalf("approved account not found: %v", err)
	}
	if created.Rol != models.RoleEstudiante {
		t.Errorf("rol: got %q, want %q", created.Rol, models.RoleEstudiante)
	}

	// Approving the same request again conflicts.
	rec = httptest.NewRecorder()
	env.handler.ApproveRequest(rec, testutil.AsUser(testutil.WithChiURLParam(
		testutil.JSONRequest(t, "POST", "/api/admin/solicitudes/"+pending.ID.Hex()+"/aprobar", nil),
		"id", pending.ID.Hex()), env.admin))
	if rec.Code != http.StatusConflict {
		t.Fatalf("second approve: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestRejectRequest_KeepsAccountUncreated(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)
	pending := env.submitRequest(t)

	req := testutil.AsUser(testutil.WithChiURLParam(
		testutil.JSONRequest(t, "POST", "/api/admin/solicitudes/"+pending.ID.Hex()+"/rechazar", map[string]string{
			"notas": "Correo no verificable",
		}), "id", pending.ID.Hex()), env.admin)
	rec := httptest.NewRecorder()
	env.handler.RejectRequest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	if _, err := env.users.GetByEmail(ctx, pending.CorreoUniversitario); err == nil {
		t.Error("rejected request must not create an account")
	}
}

func TestUpdateRole_GuardsSelfDemotion(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.AsUser(testutil.WithChiURLParam(
		testutil.JSONRequest(t, "POST", "/api/admin/usuarios/"+env.admin.ID.Hex()+"/rol", map[string]string{
			"rol": "estudiante",
		}), "id", env.admin.ID.Hex()), env.admin)
	rec := httptest.NewRecorder()
	env.handler.UpdateRole(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestUpdateRole_PromotesToStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	target := testutil.NewUser()
	if err := env.users.Create(ctx, target); err != nil {
		t.Fatalf("creating target: %v", err)
	}

	req := testutil.AsUser(testutil.WithChiURLParam(
		testutil.JSONRequest(t, "POST", "/api/admin/usuarios/"+target.ID.Hex()+"/rol", map[string]string{
			"rol": "staff",
		}), "id", target.ID.Hex()), env.admin)
	rec := httptest.NewRecorder()
	env.handler.UpdateRole(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	fresh, err := env.users.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fresh.Rol != models.RoleStaff {
		t.Errorf("rol: got %q, want %q", fresh.Rol, models.RoleStaff)
	}
}

func TestSetBlocked_GuardsSelfBlock(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.AsUser(testutil.WithChiURLParam(
		testutil.JSONRequest(t, "POST", "/api/admin/usuarios/"+env.admin.ID.Hex()+"/bloquear", map[string]any{
			"bloqueado": true,
		}), "id", env.admin.ID.Hex()), env.admin)
	rec := httptest.NewRecorder()
	env.handler.SetBlocked(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestStats_CountsByRoleAndState(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	student := testutil.NewUser()
	if err := env.users.Create(ctx, student); err != nil {
		t.Fatalf("creating student: %v", err)
	}
	env.submitRequest(t)

	req := testutil.AsUser(httptest.NewRequest("GET", "/api/admin/estadisticas", nil), env.admin)
	rec := httptest.NewRecorder()
	env.handler.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Estadisticas struct {
			Usuarios struct {
				Total       int64 `json:"total"`
				Estudiantes int64 `json:"estudiantes"`
			} `json:"usuarios"`
			SolicitudesPendientes int64 `json:"solicitudesPendientes"`
		} `json:"estadisticas"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.Estadisticas.Usuarios.Total != 2 {
		t.Errorf("usuarios total: got %d, want 2", body.Estadisticas.Usuarios.Total)
	}
	if body.Estadisticas.Usuarios.Estudiantes != 1 {
		t.Errorf("estudiantes: got %d, want 1", body.Estadisticas.Usuarios.Estudiantes)
	}
	if body.Estadisticas.SolicitudesPendientes != 1 {
		t.Errorf("solicitudesPendientes: got %d, want 1", body.Estadisticas.SolicitudesPendientes)
	}
}
