// internal/app/store/reports/reportstore_test.go
package reports_test

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	"github.com/ulsconnect/ulsconnect/internal/app/store/attendance"
	"github.com/ulsconnect/ulsconnect/internal/app/store/enrollments"
	"github.com/ulsconnect/ulsconnect/internal/app/store/reports"
	"github.com/ulsconnect/ulsconnect/internal/app/system/indexes"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
	"github.com/ulsconnect/ulsconnect/internal/testutil"
)

func TestTotalHours(t *testing.T) {
	inicio := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	fin := inicio.Add(150 * time.Minute) // 2.5h
	act := &models.Activity{FechaInicio: &inicio, FechaFin: &fin}

	cases := []struct {
		name       string
		act        *models.Activity
		asistieron int64
		want       float64
	}{
		{"normal", act, 3, 7.5},
		{"zero attendees", act, 0, 0},
		{"no dates", &models.Activity{}, 5, 0},
		{"inverted range", &models.Activity{FechaInicio: &fin, FechaFin: &inicio}, 5, 0},
	}
	for _, tc := range cases {
		if got := reports.TotalHours(tc.act, tc.asistieron); got != tc.want {
			t.Errorf("%s: TotalHours = %v, want %v", tc.name, got, tc.want)
		}
	}

	// Rounds to two decimals.
	fin2 := inicio.Add(100 * time.Minute) // 1.666...h
	act2 := &models.Activity{FechaInicio: &inicio, FechaFin: &fin2}
	if got := reports.TotalHours(act2, 1); got != 1.67 {
		t.Errorf("rounding: got %v, want 1.67", got)
	}
}

func TestGenerate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatal(err)
	}

	acts := activities.New(db)
	ins := enrollments.New(db)
	asis := attendance.New(db)
	store := reports.New(db)
	actor := primitive.NewObjectID()

	// The fixture's two-hour window lies in the future, so the activity
	// is neither closed nor ended.
	act := testutil.NewActivity(actor)
	if err := acts.Create(ctx, act); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Generate(ctx, act.ID, 10, "", actor); !errors.Is(err, reports.ErrActivityNotClosed) {
		t.Fatalf("open activity: got %v, want ErrActivityNotClosed", err)
	}

	// Three enrollments, one confirmed; one extra that cancels.
	var userIDs []primitive.ObjectID
	for i := 0; i < 3; i++ {
		u := primitive.NewObjectID()
		e, err := ins.Enroll(ctx, u, act.ID)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			if _, err := ins.Confirm(ctx, e.ID); err != nil {
				t.Fatal(err)
			}
		}
		userIDs = append(userIDs, u)
	}
	extra, err := ins.Enroll(ctx, primitive.NewObjectID(), act.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ins.Cancel(ctx, extra.ID, ""); err != nil {
		t.Fatal(err)
	}

	list, _, err := asis.Create(ctx, act.ID, actor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := asis.Take(ctx, list.ID, userIDs[:2], nil, nil, actor); err != nil {
		t.Fatal(err)
	}

	if _, err := acts.Close(ctx, act.ID, "finalizada", actor); err != nil {
		t.Fatal(err)
	}

	r, err := store.Generate(ctx, act.ID, 40, "jornada exitosa", actor)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	m := r.Metricas
	if m.VoluntariosInvitados != 4 {
		t.Errorf("invitados = %d, want 4 (all states count)", m.VoluntariosInvitados)
	}
	if m.VoluntariosConfirmados != 1 {
		t.Errorf("confirmados = %d, want 1", m.VoluntariosConfirmados)
	}
	if m.VoluntariosAsistieron != 2 {
		t.Errorf("asistieron = %d, want 2", m.VoluntariosAsistieron)
	}
	if m.HorasTotales != 4 {
		t.Errorf("horasTotales = %v, want 4 (2h x 2)", m.HorasTotales)
	}
	if m.Beneficiarios != 40 || m.Notas != "jornada exitosa" {
		t.Errorf("metricas = %+v", m)
	}

	// One report per activity.
	if _, err := store.Generate(ctx, act.ID, 1, "", actor); !errors.Is(err, reports.ErrExists) {
		t.Fatalf("duplicate: got %v, want ErrExists", err)
	}

	got, err := store.GetByActivity(ctx, act.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != r.ID {
		t.Error("GetByActivity returned a different report")
	}
}

func TestGeneratePreconditions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatal(err)
	}
	acts := activities.New(db)
	ins := enrollments.New(db)
	asis := attendance.New(db)
	store := reports.New(db)
	actor := primitive.NewObjectID()

	if _, err := store.Generate(ctx, primitive.NewObjectID(), 1, "", actor); !errors.Is(err, reports.ErrActivityNotFound) {
		t.Fatalf("missing activity: got %v, want ErrActivityNotFound", err)
	}

	// Open and still in the future.
	act := testutil.NewActivity(actor)
	if err := acts.Create(ctx, act); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Generate(ctx, act.ID, 1, "", actor); !errors.Is(err, reports.ErrActivityNotClosed) {
		t.Fatalf("future activity: got %v, want ErrActivityNotClosed", err)
	}

	if _, err := acts.Close(ctx, act.ID, "", actor); err != nil {
		t.Fatal(err)
	}

	// Closed but no attendance list.
	if _, err := store.Generate(ctx, act.ID, 1, "", actor); !errors.Is(err, reports.ErrNoAttendance) {
		t.Fatalf("no attendance: got %v, want ErrNoAttendance", err)
	}

	// An activity left open counts as finished once its end date passes.
	ended := testutil.NewActivity(actor)
	inicio := time.Now().UTC().Add(-3 * time.Hour)
	fin := inicio.Add(2 * time.Hour)
	ended.FechaInicio, ended.FechaFin = &inicio, &fin
	if err := acts.Create(ctx, ended); err != nil {
		t.Fatal(err)
	}
	u := primitive.NewObjectID()
	if _, err := ins.Enroll(ctx, u, ended.ID); err != nil {
		t.Fatal(err)
	}
	list, _, err := asis.Create(ctx, ended.ID, actor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := asis.Take(ctx, list.ID, []primitive.ObjectID{u}, nil, nil, actor); err != nil {
		t.Fatal(err)
	}

	r, err := store.Generate(ctx, ended.ID, 0, "", actor)
	if err != nil {
		t.Fatalf("past-end activity: %v", err)
	}
	if r.Metricas.VoluntariosAsistieron != 1 || r.Metricas.HorasTotales != 2 {
		t.Errorf("metricas = %+v, want 1 attendee, 2 hours", r.Metricas)
	}
}
