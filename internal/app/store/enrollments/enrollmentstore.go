// internal/app/store/enrollments/enrollmentstore.go
package enrollments

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

var (
	// ErrNotFound is returned when no enrollment matches.
	ErrNotFound = errors.New("enrollment not found")
	// ErrAlreadyEnrolled is returned when the user already has an
	// enrollment for the activity, in any state.
	ErrAlreadyEnrolled = errors.New("already enrolled")
	// ErrActivityNotFound is returned when the target activity is missing.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrActivityClosed is returned when the activity is not open for
	// enrollment.
	ErrActivityClosed = errors.New("activity not open for enrollment")
	// ErrNoCapacity is returned when the activity has no seats left.
	ErrNoCapacity = errors.New("activity at capacity")
	// ErrNotCancelable is returned when the enrollment is not in a state
	// that can be cancelled.
	ErrNotCancelable = errors.New("enrollment not cancelable")
)

// Store provides access to the inscripciones collection. It also writes
// to actividades for capacity reservation, which keeps the seat count and
// the enrollment row in one place.
type Store struct {
	c    *mongo.Collection
	acts *mongo.Collection
}

// New binds the store to its collections.
func New(db *mongo.Database) *Store {
	return &Store{
		c:    db.Collection("inscripciones"),
		acts: db.Collection("actividades"),
	}
}

// Enroll creates an enrollment for userID in activityID.
//
// For capacity-limited activities the seat is reserved first with a
// conditional decrement, so concurrent enrollments can never oversell:
// the filter requires estado "activa" and capacidad > 0 in the same
// server-side operation as the $inc. If the subsequent insert hits the
// unique (usuario, actividad) index, the seat is released again.
func (s *Store) Enroll(ctx context.Context, userID, activityID primitive.ObjectID) (*models.Enrollment, error) {
	var act models.Activity
	err := s.acts.FindOne(ctx, bson.M{"_id": activityID}).Decode(&act)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	if act.Estado != models.ActivityActiva {
		return nil, ErrActivityClosed
	}

	reserved := false
	if act.Capacidad != nil {
		res, err := s.acts.UpdateOne(ctx,
			bson.M{
				"_id":       activityID,
				"estado":    models.ActivityActiva,
				"capacidad": bson.M{"$gt": 0},
			},
			bson.M{"$inc": bson.M{"capacidad": -1}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			// Lost a race: the activity closed or filled up since the read.
			if err := s.acts.FindOne(ctx, bson.M{"_id": activityID}).Decode(&act); err == nil && act.Estado != models.ActivityActiva {
				return nil, ErrActivityClosed
			}
			return nil, ErrNoCapacity
		}
		reserved = true
	}

	now := time.Now().UTC()
	e := &models.Enrollment{
		Usuario:       userID,
		Actividad:     activityID,
		Estado:        models.EnrollmentActiva,
		CreadoEn:      now,
		ActualizadoEn: now,
	}
	res, err := s.c.InsertOne(ctx, e)
	if err != nil {
		if reserved {
			if relErr := s.releaseSeat(ctx, activityID); relErr != nil {
				return nil, fmt.Errorf("enrollment insert failed and seat not released: %w", errors.Join(err, relErr))
			}
		}
		if wafflemongo.IsDup(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		e.ID = oid
	}
	return e, nil
}

// releaseSeat undoes a capacity reservation.
func (s *Store) releaseSeat(ctx context.Context, activityID primitive.ObjectID) error {
	_, err := s.acts.UpdateOne(ctx,
		bson.M{"_id": activityID, "capacidad": bson.M{"$ne": nil}},
		bson.M{"$inc": bson.M{"capacidad": 1}},
	)
	return err
}

// GetByID fetches one enrollment.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Enrollment, error) {
	var e models.Enrollment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Cancel moves an open enrollment to "cancelada" and releases the seat it
// held. Only open enrollments can be cancelled; the state check rides on
// the same conditional update that flips the state.
func (s *Store) Cancel(ctx context.Context, id primitive.ObjectID, motivo string) (*models.Enrollment, error) {
	var e models.Enrollment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "estado": bson.M{"$in": models.OpenEnrollmentStates}},
		bson.M{"$set": bson.M{
			"estado":            models.EnrollmentCancelada,
			"motivoCancelacion": motivo,
			"actualizadoEn":     time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNotCancelable
	}
	if err != nil {
		return nil, err
	}

	if err := s.releaseSeat(ctx, e.Actividad); err != nil {
		return nil, fmt.Errorf("enrollment cancelled but seat not released: %w", err)
	}
	return &e, nil
}

// Confirm moves an enrollment from "activa" to "confirmada".
func (s *Store) Confirm(ctx context.Context, id primitive.ObjectID) (*models.Enrollment, error) {
	var e models.Enrollment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "estado": models.EnrollmentActiva},
		bson.M{"$set": bson.M{
			"estado":        models.EnrollmentConfirmada,
			"actualizadoEn": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNotCancelable
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByUser returns all of a user's enrollments, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Enrollment, error) {
	return s.list(ctx, bson.M{"usuario": userID})
}

// ListByActivity returns an activity's enrollments, optionally narrowed
// to the given states.
func (s *Store) ListByActivity(ctx context.Context, activityID primitive.ObjectID, states ...string) ([]models.Enrollment, error) {
	filter := bson.M{"actividad": activityID}
	if len(states) > 0 {
		filter["estado"] = bson.M{"$in": states}
	}
	return s.list(ctx, filter)
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Enrollment, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "creadoEn", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Enrollment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TerminateOpen moves every open enrollment of an activity to
// "terminada" and returns how many changed. Used during close-out.
func (s *Store) TerminateOpen(ctx context.Context, activityID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"actividad": activityID, "estado": bson.M{"$in": models.OpenEnrollmentStates}},
		bson.M{"$set": bson.M{
			"estado":        models.EnrollmentTerminada,
			"actualizadoEn": time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountByEstado groups all enrollments by estado.
func (s *Store) CountByEstado(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$estado", "total": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Estado string `bson:"_id"`
			Total  int64  `bson:"total"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Estado] = row.Total
	}
	return out, cur.Err()
}

// DeleteByActivity removes every enrollment of an activity. Used when an
// activity itself is deleted.
func (s *Store) DeleteByActivity(ctx context.Context, activityID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"actividad": activityID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByActivity counts enrollments for an activity; estado "" counts
// all states.
func (s *Store) CountByActivity(ctx context.Context, activityID primitive.ObjectID, estado string) (int64, error) {
	filter := bson.M{"actividad": activityID}
	if estado != "" {
		filter["estado"] = estado
	}
	return s.c.CountDocuments(ctx, filter)
}
