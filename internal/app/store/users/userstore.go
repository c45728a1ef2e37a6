// internal/app/store/users/userstore.go
package users

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ulsconnect/ulsconnect/internal/app/system/normalize"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

var (
	// ErrNotFound is returned when no user matches the query.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the institutional email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store provides access to the usuarios collection.
type Store struct {
	c *mongo.Collection
}

// New binds the store to its collection.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("usuarios")}
}

// Create inserts a new user. The email must already be normalized; the
// unique index turns races into ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.CreadoEn = now
	u.ActualizadoEn = now
	if u.Rol == "" {
		u.Rol = models.RoleEstudiante
	}

	res, err := s.c.InsertOne(ctx, u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

// GetByID fetches one user.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail fetches one user by institutional email, normalizing first.
func (s *Store) GetByEmail(ctx context.Context, correo string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"correoUniversitario": normalize.Email(correo)}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile changes the fields a user may edit about themselves.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, nombre, carrera string) error {
	return s.updateOne(ctx, id, bson.M{"nombre": nombre, "carrera": carrera})
}

// UpdatePasswordHash replaces the stored bcrypt hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateOne(ctx, id, bson.M{"password": hash})
}

// SetBlocked blocks or unblocks an account.
func (s *Store) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) error {
	return s.updateOne(ctx, id, bson.M{"bloqueado": blocked})
}

// UpdateRole assigns a new (already validated) role.
func (s *Store) UpdateRole(ctx context.Context, id primitive.ObjectID, rol string) error {
	return s.updateOne(ctx, id, bson.M{"rol": rol})
}

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["actualizadoEn"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ByIDs fetches many users in one query, keyed by ID. Missing IDs are
// simply absent from the map.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// ListFilter narrows and pages List results.
type ListFilter struct {
	Rol       string
	Bloqueado *bool
	Search    string // matches nombre or correo, case-insensitive
	Page      int64  // 1-based
	PerPage   int64
}

// List returns a page of users plus the total match count, newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.User, int64, error) {
	filter := bson.M{}
	if f.Rol != "" {
		filter["rol"] = f.Rol
	}
	if f.Bloqueado != nil {
		filter["bloqueado"] = *f.Bloqueado
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: normalize.RegexQuote(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"nombre": rx},
			bson.M{"correoUniversitario": rx},
		}
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
		SetSort(bson.D{{Key: "creadoEn", Value: -1}}).
		SetSkip((f.Page - 1) * f.PerPage).
		SetLimit(f.PerPage)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountByRole counts users with the given role; an empty role counts
// everyone. Set blocked to count only blocked users.
func (s *Store) CountByRole(ctx context.Context, rol string, blocked *bool) (int64, error) {
	filter := bson.M{}
	if rol != "" {
		filter["rol"] = rol
	}
	if blocked != nil {
		filter["bloqueado"] = *blocked
	}
	return s.c.CountDocuments(ctx, filter)
}

// Leaderboard returns the top students by score. The password hash and
// points history are projected out.
func (s *Store) Leaderboard(ctx context.Context, limit int64) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "puntos", Value: -1}, {Key: "nombre", Value: 1}}).
		SetLimit(limit).
		SetProjection(bson.M{"password": 0, "historialPuntos": 0})

	cur, err := s.c.Find(ctx, bson.M{"rol": models.RoleEstudiante, "bloqueado": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
