// internal/app/store/attendance/attendancestore.go
package attendance

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// ErrNotFound is returned when no attendance list matches.
var ErrNotFound = errors.New("attendance list not found")

// Store provides access to the registrosAsistencia collection. It reads
// inscripciones to seed and refresh lists from current enrollments.
type Store struct {
	c   *mongo.Collection
	ins *mongo.Collection
}

// New binds the store to its collections.
func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection("registrosAsistencia"),
		ins: db.Collection("inscripciones"),
	}
}

// GetByID fetches one attendance list.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AttendanceList, error) {
	var l models.AttendanceList
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetByActivity fetches the attendance list of an activity.
func (s *Store) GetByActivity(ctx context.Context, activityID primitive.ObjectID) (*models.AttendanceList, error) {
	var l models.AttendanceList
	err := s.c.FindOne(ctx, bson.M{"actividad": activityID}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteByActivity removes an activity's attendance list, if any.
func (s *Store) DeleteByActivity(ctx context.Context, activityID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"actividad": activityID})
	return err
}

// Create seeds the attendance list for an activity: one "ausente" entry
// per open enrollment. Creating is idempotent; when a list already exists
// (including via a concurrent create caught by the unique index) it is
// returned with created == false.
func (s *Store) Create(ctx context.Context, activityID, actor primitive.ObjectID) (*models.AttendanceList, bool, error) {
	if l, err := s.GetByActivity(ctx, activityID); err == nil {
		return l, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	entries, err := s.openEnrollmentEntries(ctx, activityID)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	l := &models.AttendanceList{
		Actividad:     activityID,
		Inscripciones: entries,
		Fecha:         now,
		RegistradoPor: actor,
		CreadoEn:      now,
		ActualizadoEn: now,
	}
	res, err := s.c.InsertOne(ctx, l)
	if err != nil {
		if wafflemongo.IsDup(err) {
			existing, getErr := s.GetByActivity(ctx, activityID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		l.ID = oid
	}
	return l, true, nil
}

// openEnrollmentEntries builds "ausente" entries for every open
// enrollment of the activity.
func (s *Store) openEnrollmentEntries(ctx context.Context, activityID primitive.ObjectID) ([]models.AttendanceEntry, error) {
	cur, err := s.ins.Find(ctx,
		bson.M{"actividad": activityID, "estado": bson.M{"$in": models.OpenEnrollmentStates}},
		options.Find().SetSort(bson.D{{Key: "creadoEn", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	entries := []models.AttendanceEntry{}
	for cur.Next(ctx) {
		var e models.Enrollment
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		entries = append(entries, models.AttendanceEntry{
			Usuario:    e.Usuario,
			Asistencia: models.AsistenciaAusente,
		})
	}
	return entries, cur.Err()
}

// Take records a full attendance pass. Every entry is reset to "ausente",
// then the three groups are overlaid in order presentes, ausentes,
// justificadas; a user named in more than one group keeps the last mark.
// Users named but not on the list are ignored.
func (s *Store) Take(ctx context.Context, listID primitive.ObjectID, presentes, ausentes, justificadas []primitive.ObjectID, actor primitive.ObjectID) (*models.AttendanceList, error) {
	l, err := s.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}

	marks := make(map[primitive.ObjectID]string, len(presentes)+len(ausentes)+len(justificadas))
	for _, id := range presentes {
		marks[id] = models.AsistenciaPresente
	}
	for _, id := range ausentes {
		marks[id] = models.AsistenciaAusente
	}
	for _, id := range justificadas {
		marks[id] = models.AsistenciaJustificada
	}

	for i := range l.Inscripciones {
		mark := models.AsistenciaAusente
		if m, ok := marks[l.Inscripciones[i].Usuario]; ok {
			mark = m
		}
		l.Inscripciones[i].Asistencia = mark
	}

	return s.save(ctx, l, actor)
}

// EntryUpdate is one per-user mark change.
type EntryUpdate struct {
	Usuario    primitive.ObjectID
	Asistencia string
}

// UpdateEntries changes individual marks without resetting the rest.
// Updates for users not on the list are reported back in skipped.
func (s *Store) UpdateEntries(ctx context.Context, listID primitive.ObjectID, updates []EntryUpdate, actor primitive.ObjectID) (*models.AttendanceList, []string, error) {
	l, err := s.GetByID(ctx, listID)
	if err != nil {
		return nil, nil, err
	}

	onList := make(map[primitive.ObjectID]int, len(l.Inscripciones))
	for i, e := range l.Inscripciones {
		onList[e.Usuario] = i
	}

	var skipped []string
	for _, u := range updates {
		i, ok := onList[u.Usuario]
		if !ok {
			skipped = append(skipped, u.Usuario.Hex())
			continue
		}
		l.Inscripciones[i].Asistencia = u.Asistencia
	}

	saved, err := s.save(ctx, l, actor)
	return saved, skipped, err
}

// Refresh rebuilds the roster from the activity's current open
// enrollments. The replacement is total: every entry comes back
// "ausente", prior marks included. Returns how many users were added to
// and dropped from the roster.
func (s *Store) Refresh(ctx context.Context, listID, actor primitive.ObjectID) (*models.AttendanceList, int, int, error) {
	l, err := s.GetByID(ctx, listID)
	if err != nil {
		return nil, 0, 0, err
	}

	current, err := s.openEnrollmentEntries(ctx, l.Actividad)
	if err != nil {
		return nil, 0, 0, err
	}

	before := make(map[primitive.ObjectID]bool, len(l.Inscripciones))
	for _, e := range l.Inscripciones {
		before[e.Usuario] = true
	}
	added := 0
	for _, e := range current {
		if !before[e.Usuario] {
			added++
		}
	}
	removed := len(l.Inscripciones) + added - len(current)

	l.Inscripciones = current
	saved, err := s.save(ctx, l, actor)
	return saved, added, removed, err
}

func (s *Store) save(ctx context.Context, l *models.AttendanceList, actor primitive.ObjectID) (*models.AttendanceList, error) {
	now := time.Now().UTC()
	l.Fecha = now
	l.RegistradoPor = actor
	l.ActualizadoEn = now

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": l.ID},
		bson.M{"$set": bson.M{
			"inscripciones": l.Inscripciones,
			"fecha":         l.Fecha,
			"registradoPor": l.RegistradoPor,
			"actualizadoEn": l.ActualizadoEn,
		}},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return l, nil
}
