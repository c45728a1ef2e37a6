// internal/app/store/attendance/attendancestore_test.go
package attendance_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	"github.com/ulsconnect/ulsconnect/internal/app/store/attendance"
	"github.com/ulsconnect/ulsconnect/internal/app/store/enrollments"
	"github.com/ulsconnect/ulsconnect/internal/app/system/indexes"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
	"github.com/ulsconnect/ulsconnect/internal/testutil"
)

type fixture struct {
	db    *mongo.Database
	store *attendance.Store
	ins   *enrollments.Store
	act   *models.Activity
	users []primitive.ObjectID
}

// setup creates an activity with three enrolled users.
func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatal(err)
	}

	acts := activities.New(db)
	ins := enrollments.New(db)
	act := testutil.NewActivity(primitive.NewObjectID())
	if err := acts.Create(ctx, act); err != nil {
		t.Fatal(err)
	}

	var users []primitive.ObjectID
	for i := 0; i < 3; i++ {
		u := primitive.NewObjectID()
		if _, err := ins.Enroll(ctx, u, act.ID); err != nil {
			t.Fatal(err)
		}
		users = append(users, u)
	}
	return fixture{db: db, store: attendance.New(db), ins: ins, act: act, users: users}
}

func marksByUser(l *models.AttendanceList) map[primitive.ObjectID]string {
	m := make(map[primitive.ObjectID]string, len(l.Inscripciones))
	for _, e := range l.Inscripciones {
		m[e.Usuario] = e.Asistencia
	}
	return m
}

func TestCreateSeedsAbsent(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)
	actor := primitive.NewObjectID()

	l, created, err := f.store.Create(ctx, f.act.ID, actor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Fatal("expected created = true")
	}
	if len(l.Inscripciones) != 3 {
		t.Fatalf("entries = %d, want 3", len(l.Inscripciones))
	}
	for _, e := range l.Inscripciones {
		if e.Asistencia != models.AsistenciaAusente {
			t.Errorf("seed mark = %q, want ausente", e.Asistencia)
		}
	}

	// Idempotent: a second create returns the same list.
	again, created, err := f.store.Create(ctx, f.act.ID, actor)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second create must not report created")
	}
	if again.ID != l.ID {
		t.Error("second create returned a different list")
	}
}

func TestTakeOverlayOrder(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)
	actor := primitive.NewObjectID()

	l, _, err := f.store.Create(ctx, f.act.ID, actor)
	if err != nil {
		t.Fatal(err)
	}

	// users[0] appears in both presentes and justificadas; the later
	// group wins. users[1] is presente, users[2] is named nowhere and
	// resets to ausente.
	got, err := f.store.Take(ctx, l.ID,
		[]primitive.ObjectID{f.users[0], f.users[1]},
		nil,
		[]primitive.ObjectID{f.users[0]},
		actor,
	)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}

	marks := marksByUser(got)
	if marks[f.users[0]] != models.AsistenciaJustificada {
		t.Errorf("users[0] = %q, want justificada (last group wins)", marks[f.users[0]])
	}
	if marks[f.users[1]] != models.AsistenciaPresente {
		t.Errorf("users[1] = %q, want presente", marks[f.users[1]])
	}
	if marks[f.users[2]] != models.AsistenciaAusente {
		t.Errorf("users[2] = %q, want ausente", marks[f.users[2]])
	}

	// Unknown users are ignored, and a full retake resets earlier marks.
	got, err = f.store.Take(ctx, l.ID,
		[]primitive.ObjectID{primitive.NewObjectID()},
		nil, nil, actor,
	)
	if err != nil {
		t.Fatal(err)
	}
	if got.CountPresent() != 0 {
		t.Errorf("CountPresent = %d, want 0 after reset", got.CountPresent())
	}
	if len(got.Inscripciones) != 3 {
		t.Errorf("unknown user must not be added, entries = %d", len(got.Inscripciones))
	}
}

func TestUpdateEntries(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)
	actor := primitive.NewObjectID()

	l, _, err := f.store.Create(ctx, f.act.ID, actor)
	if err != nil {
		t.Fatal(err)
	}

	stranger := primitive.NewObjectID()
	got, skipped, err := f.store.UpdateEntries(ctx, l.ID, []attendance.EntryUpdate{
		{Usuario: f.users[0], Asistencia: models.AsistenciaPresente},
		{Usuario: stranger, Asistencia: models.AsistenciaPresente},
	}, actor)
	if err != nil {
		t.Fatalf("UpdateEntries: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != stranger.Hex() {
		t.Errorf("skipped = %v, want [%s]", skipped, stranger.Hex())
	}

	marks := marksByUser(got)
	if marks[f.users[0]] != models.AsistenciaPresente {
		t.Errorf("users[0] = %q, want presente", marks[f.users[0]])
	}
	// Untouched entries keep their mark.
	if marks[f.users[1]] != models.AsistenciaAusente {
		t.Errorf("users[1] = %q, want ausente", marks[f.users[1]])
	}
}

func TestRefresh(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)
	actor := primitive.NewObjectID()

	l, _, err := f.store.Create(ctx, f.act.ID, actor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.Take(ctx, l.ID, []primitive.ObjectID{f.users[0]}, nil, nil, actor); err != nil {
		t.Fatal(err)
	}

	// One newcomer enrolls, one original cancels.
	newcomer := primitive.NewObjectID()
	if _, err := f.ins.Enroll(ctx, newcomer, f.act.ID); err != nil {
		t.Fatal(err)
	}
	all, err := f.ins.ListByActivity(ctx, f.act.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range all {
		if e.Usuario == f.users[2] {
			if _, err := f.ins.Cancel(ctx, e.ID, ""); err != nil {
				t.Fatal(err)
			}
		}
	}

	got, added, removed, err := f.store.Refresh(ctx, l.ID, actor)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if added != 1 || removed != 1 {
		t.Errorf("added=%d removed=%d, want 1/1", added, removed)
	}

	marks := marksByUser(got)
	if _, ok := marks[f.users[2]]; ok {
		t.Error("cancelled user should be dropped")
	}
	if marks[newcomer] != models.AsistenciaAusente {
		t.Errorf("newcomer = %q, want ausente", marks[newcomer])
	}
	// Refresh is a full reset: every entry comes back ausente, the
	// presente mark from Take included.
	for u, mark := range marks {
		if mark != models.AsistenciaAusente {
			t.Errorf("user %s = %q, want ausente", u.Hex(), mark)
		}
	}
}

func TestNotFound(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)

	if _, err := f.store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("GetByID: got %v, want ErrNotFound", err)
	}
	if _, err := f.store.Take(ctx, primitive.NewObjectID(), nil, nil, nil, primitive.NewObjectID()); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("Take: got %v, want ErrNotFound", err)
	}
}
