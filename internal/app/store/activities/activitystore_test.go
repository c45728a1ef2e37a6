// internal/app/store/activities/activitystore_test.go
package activities_test

import (
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
	"github.com/ulsconnect/ulsconnect/internal/testutil"
)

func TestCreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := activities.New(db)

	a := testutil.NewActivity(primitive.NewObjectID())
	a.Capacidad = testutil.IntPtr(20)
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID.IsZero() {
		t.Fatal("no ID assigned")
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Estado != models.ActivityActiva {
		t.Errorf("estado = %q, want activa", got.Estado)
	}
	if got.Capacidad == nil || *got.Capacidad != 20 {
		t.Errorf("capacidad = %v, want 20", got.Capacidad)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, activities.ErrNotFound) {
		t.Errorf("missing: got %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := activities.New(db)

	a := testutil.NewActivity(primitive.NewObjectID())
	a.Capacidad = testutil.IntPtr(10)
	if err := store.Create(ctx, a); err != nil {
		t.Fatal(err)
	}

	titulo := "Reforestación quebrada El Culebrón"
	got, err := store.Update(ctx, a.ID, activities.UpdateFields{Titulo: &titulo, ClearCapacidad: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Titulo != titulo {
		t.Errorf("titulo = %q", got.Titulo)
	}
	if got.Capacidad != nil {
		t.Error("capacidad should be cleared (unlimited)")
	}
	// Untouched fields remain.
	if got.Area != a.Area {
		t.Errorf("area changed to %q", got.Area)
	}
}

func TestCloseOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := activities.New(db)
	actor := primitive.NewObjectID()

	a := testutil.NewActivity(actor)
	if err := store.Create(ctx, a); err != nil {
		t.Fatal(err)
	}

	const closers = 5
	var wg sync.WaitGroup
	errs := make([]error, closers)
	for i := 0; i < closers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Close(ctx, a.ID, "fin de jornada", actor)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, activities.ErrAlreadyClosed):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("close succeeded %d times, want exactly 1", wins)
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Estado != models.ActivityCerrada {
		t.Errorf("estado = %q, want cerrada", got.Estado)
	}
	if got.FechaCierre == nil || got.MotivoCierre != "fin de jornada" {
		t.Errorf("close metadata missing: %+v", got)
	}

	// Closed activities are immutable.
	titulo := "nuevo título"
	if _, err := store.Update(ctx, a.ID, activities.UpdateFields{Titulo: &titulo}); !errors.Is(err, activities.ErrAlreadyClosed) {
		t.Errorf("update after close: got %v, want ErrAlreadyClosed", err)
	}

	if _, err := store.Close(ctx, primitive.NewObjectID(), "", actor); !errors.Is(err, activities.ErrNotFound) {
		t.Errorf("close missing: got %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := activities.New(db)
	actor := primitive.NewObjectID()

	mk := func(titulo, area string) *models.Activity {
		a := testutil.NewActivity(actor)
		a.Titulo = titulo
		a.Area = area
		if err := store.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
		return a
	}
	mk("Apoyo escolar La Serena", "educacion")
	mk("Limpieza de playa", "medioambiente")
	closed := mk("Colecta de invierno", "comunidad")
	if _, err := store.Close(ctx, closed.ID, "", actor); err != nil {
		t.Fatal(err)
	}

	open, total, err := store.List(ctx, activities.ListFilter{Estado: models.ActivityActiva})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(open) != 2 {
		t.Errorf("open: total=%d len=%d, want 2/2", total, len(open))
	}

	found, total, err := store.List(ctx, activities.ListFilter{Search: "PLAYA"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || found[0].Titulo != "Limpieza de playa" {
		t.Errorf("search: total=%d got=%v", total, found)
	}

	byArea, _, err := store.List(ctx, activities.ListFilter{Area: "educacion"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byArea) != 1 {
		t.Errorf("area filter: len=%d, want 1", len(byArea))
	}
}
