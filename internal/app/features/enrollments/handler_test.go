package enrollments_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ulsconnect/ulsconnect/internal/app/features/enrollments"
	actstore "github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	enrstore "github.com/ulsconnect/ulsconnect/internal/app/store/enrollments"
	"github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/indexes"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
	"github.com/ulsconnect/ulsconnect/internal/testutil"
)

type testEnv struct {
	db          *mongo.Database
	handler     *enrollments.Handler
	users       *users.Store
	activities  *actstore.Store
	enrollments *enrstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	logger := zap.NewNop()
	env := &testEnv{
		db:          db,
		users:       users.New(db),
		activities:  actstore.New(db),
		enrollments: enrstore.New(db),
	}
	env.handler = &enrollments.Handler{
		Enrollments: env.enrollments,
		Activities:  env.activities,
		Users:       env.users,
		Resp:        respond.NewLogger(logger),
		Log:         logger,
	}
	return env
}

func (e *testEnv) seedStudent(t *testing.T) (*models.User, *auth.SessionUser) {
	t.Helper()
	ctx := testutil.TestContext(t)
	u := testutil.NewUser()
	if err := e.users.Create(ctx, u); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return u, &auth.SessionUser{ID: u.ID, Nombre: u.Nombre, Correo: u.CorreoUniversitario, Rol: u.Rol}
}

func (e *testEnv) seedActivity(t *testing.T, capacidad *int) *models.Activity {
	t.Helper()
	ctx := testutil.TestContext(t)
	act := testutil.NewActivity(testutil.NewUser().ID)
	act.Capacidad = capacidad
	if err := e.activities.Create(ctx, act); err != nil {
		t.Fatalf("creating activity: %v", err)
	}
	return act
}

func TestEnroll_CreatesEnrollment(t *testing.T) {
	env := newTestEnv(t)
	_, su := env.seedStudent(t)
	act := env.seedActivity(t, nil)

	req := testutil.AsUser(testutil.JSONRequest(t, "POST", "/api/inscripciones", map[string]string{
		"actividad": act.ID.Hex(),
	}), su)
	rec := httptest.NewRecorder()
	env.handler.Enroll(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	// Enrolling again conflicts.
	rec = httptest.NewRecorder()
	env.handler.Enroll(rec, testutil.AsUser(testutil.JSONRequest(t, "POST", "/api/inscripciones", map[string]string{
		"actividad": act.ID.Hex(),
	}), su))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate enroll: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestEnroll_FullActivityConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)
	act := env.seedActivity(t, testutil.IntPtr(1))

	first, _ := env.seedStudent(t)
	if _, err := env.enrollments.Enroll(ctx, first.ID, act.ID); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	_, su := env.seedStudent(t)
	req := testutil.AsUser(testutil.JSONRequest(t, "POST", "/api/inscripciones", map[string]string{
		"actividad": act.ID.Hex(),
	}), su)
	rec := httptest.NewRecorder()
	env.handler.Enroll(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusConflict, rec.Body.String())
	}
}

func TestCancel_StudentCannotCancelForOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)
	act := env.seedActivity(t, nil)

	owner, _ := env.seedStudent(t)
	e, err := env.enrollments.Enroll(ctx, owner.ID, act.ID)
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	_, intruder := env.seedStudent(t)
	req := testutil.AsUser(testutil.WithChiURLParam(
		testutil.JSONRequest(t, "POST", "/api/inscripciones/"+e.ID.Hex()+"/cancelar", nil),
		"id", e.ID.Hex()), intruder)
	rec := httptest.NewRecorder()
	env.handler.Cancel(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusForbidden, rec.Body.String())
	}

	// Staff may cancel on a volunteer's behalf.
	staff := &auth.SessionUser{ID: owner.ID, Rol: models.RoleStaff}
	req = testutil.AsUser(testutil.WithChiURLParam(
		testutil.JSONRequest(t, "POST", "/api/inscripciones/"+e.ID.Hex()+"/cancelar", map[string]string{
			"motivo": "No puede asistir",
		}), "id", e.ID.Hex()), staff)
	rec = httptest.NewRecorder()
	env.handler.Cancel(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("staff cancel: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestConfirm_OnlyActiveEnrollments(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)
	act := env.seedActivity(t, nil)
	student, _ := env.seedStudent(t)

	e, err := env.enrollments.Enroll(ctx, student.ID, act.ID)
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if _, err := env.enrollments.Cancel(ctx, e.ID, ""); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	staff := &auth.SessionUser{ID: student.ID, Rol: models.RoleStaff}
	req := testutil.AsUser(testutil.WithChiURLParam(
		testutil.JSONRequest(t, "POST", "/api/inscripciones/"+e.ID.Hex()+"/confirmar", nil),
		"id", e.ID.Hex()), staff)
	rec := httptest.NewRecorder()
	env.handler.Confirm(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestMine_JoinsActivities(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)
	act := env.seedActivity(t, nil)
	student, su := env.seedStudent(t)

	if _, err := env.enrollments.Enroll(ctx, student.ID, act.ID); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	req := testutil.AsUser(httptest.NewRequest("GET", "/api/inscripciones/mias", nil), su)
	rec := httptest.NewRecorder()
	env.handler.Mine(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Inscripciones []struct {
			Actividad struct {
				Titulo string `json:"titulo"`
			} `json:"actividad"`
		} `json:"inscripciones"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if len(body.Inscripciones) != 1 || body.Inscripciones[0].Actividad.Titulo != act.Titulo {
		t.Errorf("inscripciones: got %+v", body.Inscripciones)
	}
}
