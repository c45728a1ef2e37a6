// internal/app/store/reports/reportstore.go
package reports

import (
	"context"
	"errors"
	"math"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

var (
	// ErrNotFound is returned when no report matches.
	ErrNotFound = errors.New("impact report not found")
	// ErrExists is returned when the activity already has a report.
	ErrExists = errors.New("impact report already exists")
	// ErrActivityNotFound is returned when the activity is missing.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrActivityNotClosed is returned when generating a report for an
	// activity that is neither closed nor past its end date.
	ErrActivityNotClosed = errors.New("activity not closed")
	// ErrNoAttendance is returned when the activity has no attendance
	// list to compute metrics from.
	ErrNoAttendance = errors.New("no attendance recorded")
)

// Store provides access to the reportesImpacto collection and computes
// report metrics from the activity, enrollment, and attendance data.
type Store struct {
	c    *mongo.Collection
	acts *mongo.Collection
	ins  *mongo.Collection
	asis *mongo.Collection
}

// New binds the store to its collections.
func New(db *mongo.Database) *Store {
	return &Store{
		c:    db.Collection("reportesImpacto"),
		acts: db.Collection("actividades"),
		ins:  db.Collection("inscripciones"),
		asis: db.Collection("registrosAsistencia"),
	}
}

// Generate computes and stores the impact report for a finished activity.
// Preconditions are checked in order: the activity must exist, must be
// closed or past its end date, and must have an attendance list. The
// unique index on idActividad turns duplicate generation into ErrExists.
func (s *Store) Generate(ctx context.Context, activityID primitive.ObjectID, beneficiarios int, notas string, actor primitive.ObjectID) (*models.ImpactReport, error) {
	var act models.Activity
	err := s.acts.FindOne(ctx, bson.M{"_id": activityID}).Decode(&act)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	ended := act.FechaFin != nil && !act.FechaFin.After(time.Now().UTC())
	if act.Estado != models.ActivityCerrada && !ended {
		return nil, ErrActivityNotClosed
	}

	var list models.AttendanceList
	err = s.asis.FindOne(ctx, bson.M{"actividad": activityID}).Decode(&list)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoAttendance
	}
	if err != nil {
		return nil, err
	}

	invitados, err := s.ins.CountDocuments(ctx, bson.M{"actividad": activityID})
	if err != nil {
		return nil, err
	}
	confirmados, err := s.ins.CountDocuments(ctx, bson.M{
		"actividad": activityID,
		"estado":    models.EnrollmentConfirmada,
	})
	if err != nil {
		return nil, err
	}

	asistieron := int64(list.CountPresent())

	report := &models.ImpactReport{
		IDActividad: activityID,
		Metricas: models.ImpactMetrics{
			VoluntariosInvitados:   invitados,
			VoluntariosConfirmados: confirmados,
			VoluntariosAsistieron:  asistieron,
			HorasTotales:           TotalHours(&act, asistieron),
			Beneficiarios:          beneficiarios,
			Notas:                  notas,
		},
		GeneradoPor: actor,
		CreadoEn:    time.Now().UTC(),
	}

	res, err := s.c.InsertOne(ctx, report)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrExists
		}
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		report.ID = oid
	}
	return report, nil
}

// GetByActivity fetches the report for an activity.
func (s *Store) GetByActivity(ctx context.Context, activityID primitive.ObjectID) (*models.ImpactReport, error) {
	var r models.ImpactReport
	err := s.c.FindOne(ctx, bson.M{"idActividad": activityID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns all reports, newest first.
func (s *Store) List(ctx context.Context) ([]models.ImpactReport, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "creadoEn", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ImpactReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TotalHours is the scheduled duration of the activity multiplied by the
// number of attendees, rounded to two decimals. A missing or inverted
// date range, or zero attendees, yields 0.
func TotalHours(act *models.Activity, asistieron int64) float64 {
	hours := act.DurationHours()
	if hours <= 0 || asistieron <= 0 {
		return 0
	}
	return math.Round(hours*float64(asistieron)*100) / 100
}
