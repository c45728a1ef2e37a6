// internal/app/store/activities/activitystore.go
package activities

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ulsconnect/ulsconnect/internal/app/system/normalize"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

var (
	// ErrNotFound is returned when no activity matches.
	ErrNotFound = errors.New("activity not found")
	// ErrAlreadyClosed is returned when closing an already closed activity.
	ErrAlreadyClosed = errors.New("activity already closed")
)

// Store provides access to the actividades collection.
type Store struct {
	c *mongo.Collection
}

// New binds the store to its collection.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("actividades")}
}

// Create inserts a new activity in state "activa".
func (s *Store) Create(ctx context.Context, a *models.Activity) error {
	now := time.Now().UTC()
	a.CreadoEn = now
	a.ActualizadoEn = now
	if a.Estado == "" {
		a.Estado = models.ActivityActiva
	}
	res, err := s.c.InsertOne(ctx, a)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid
	}
	return nil
}

// GetByID fetches one activity.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Activity, error) {
	var a models.Activity
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateFields holds the editable fields of an activity. Nil pointers are
// left unchanged; Capacidad distinguishes "don't touch" (nil Set) from
// "set unlimited" via the ClearCapacidad flag.
type UpdateFields struct {
	Titulo         *string
	Descripcion    *string
	Area           *string
	Lugar          *string
	FechaInicio    *time.Time
	FechaFin       *time.Time
	Capacidad      *int
	ClearCapacidad bool
}

// Update edits an open activity. Closed activities are immutable and
// yield ErrAlreadyClosed.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, f UpdateFields) (*models.Activity, error) {
	set := bson.M{"actualizadoEn": time.Now().UTC()}
	if f.Titulo != nil {
		set["titulo"] = *f.Titulo
	}
	if f.Descripcion != nil {
		set["descripcion"] = *f.Descripcion
	}
	if f.Area != nil {
		set["area"] = *f.Area
	}
	if f.Lugar != nil {
		set["lugar"] = *f.Lugar
	}
	if f.FechaInicio != nil {
		set["fechaInicio"] = *f.FechaInicio
	}
	if f.FechaFin != nil {
		set["fechaFin"] = *f.FechaFin
	}
	update := bson.M{"$set": set}
	if f.ClearCapacidad {
		update["$unset"] = bson.M{"capacidad": ""}
	} else if f.Capacidad != nil {
		set["capacidad"] = *f.Capacidad
	}

	var a models.Activity
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "estado": models.ActivityActiva},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish missing from closed.
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrAlreadyClosed
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Close marks an activity "cerrada" in one conditional update, so two
// concurrent closes cannot both succeed.
func (s *Store) Close(ctx context.Context, id primitive.ObjectID, motivo string, por primitive.ObjectID) (*models.Activity, error) {
	now := time.Now().UTC()
	var a models.Activity
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "estado": bson.M{"$ne": models.ActivityCerrada}},
		bson.M{"$set": bson.M{
			"estado":        models.ActivityCerrada,
			"fechaCierre":   now,
			"motivoCierre":  motivo,
			"cerradaPor":    por,
			"actualizadoEn": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrAlreadyClosed
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete removes an activity document. Callers are responsible for
// cascading enrollment and attendance removal first.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFilter narrows and pages List results.
type ListFilter struct {
	Estado  string
	Area    string
	Search  string // case-insensitive match on titulo
	Page    int64
	PerPage int64
}

// List returns a page of activities plus the total count, soonest start
// first with undated activities last.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Activity, int64, error) {
	filter := bson.M{}
	if f.Estado != "" {
		filter["estado"] = f.Estado
	}
	if f.Area != "" {
		filter["area"] = f.Area
	}
	if f.Search != "" {
		filter["titulo"] = primitive.Regex{Pattern: normalize.RegexQuote(f.Search), Options: "i"}
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if f.PerPage <= 0 || f.PerPage > 100 {
		f.PerPage = 25
	}
	if f.Page < 1 {
		f.Page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "fechaInicio", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip((f.Page - 1) * f.PerPage).
		SetLimit(f.PerPage)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Activity
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountByEstado counts activities in the given state; empty counts all.
func (s *Store) CountByEstado(ctx context.Context, estado string) (int64, error) {
	filter := bson.M{}
	if estado != "" {
		filter["estado"] = estado
	}
	return s.c.CountDocuments(ctx, filter)
}

// CountByArea groups activities by area, largest group first.
func (s *Store) CountByArea(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$area", "total": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Area  string `bson:"_id"`
			Total int64  `bson:"total"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		if row.Area == "" {
			row.Area = "sin área"
		}
		out[row.Area] = row.Total
	}
	return out, cur.Err()
}
