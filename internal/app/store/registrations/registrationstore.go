// internal/app/store/registrations/registrationstore.go
package registrations

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

var (
	// ErrNotFound is returned when no request matches.
	ErrNotFound = errors.New("registration request not found")
	// ErrEmailTaken is returned when the email already belongs to a user.
	ErrEmailTaken = errors.New("email already registered")
	// ErrDuplicateRequest is returned when a pending or approved request
	// already exists for the email.
	ErrDuplicateRequest = errors.New("registration request already exists")
	// ErrAlreadyReviewed is returned when approving or rejecting a
	// request that is no longer pending.
	ErrAlreadyReviewed = errors.New("registration request already reviewed")
)

// Store provides access to the registrationRequests collection. Approval
// writes the new account into usuarios, so the store holds both.
type Store struct {
	c     *mongo.Collection
	users *mongo.Collection
}

// New binds the store to its collections.
func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("registrationRequests"),
		users: db.Collection("usuarios"),
	}
}

// Submit files a new pending request. An email with an existing account
// is refused outright; an email with a rejected request gets that request
// recycled back to pending with the new data, so rejected applicants can
// try again.
func (s *Store) Submit(ctx context.Context, req *models.RegistrationRequest) error {
	n, err := s.users.CountDocuments(ctx, bson.M{"correoUniversitario": req.CorreoUniversitario})
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrEmailTaken
	}

	now := time.Now().UTC()
	req.Status = models.RegistrationPending
	req.CreadoEn = now
	req.ActualizadoEn = now

	res, err := s.c.InsertOne(ctx, req)
	if err == nil {
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			req.ID = oid
		}
		return nil
	}
	if !wafflemongo.IsDup(err) {
		return err
	}

	// A request for this email exists. Only a rejected one may be retried.
	var existing models.RegistrationRequest
	upd := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"correoUniversitario": req.CorreoUniversitario,
			"status":              models.RegistrationRejected,
		},
		bson.M{
			"$set": bson.M{
				"nombre":        req.Nombre,
				"password":      req.PasswordHash,
				"rolSolicitado": req.RolSolicitado,
				"carrera":       req.Carrera,
				"status":        models.RegistrationPending,
				"actualizadoEn": now,
			},
			"$unset": bson.M{"reviewedBy": "", "reviewedAt": "", "reviewNotes": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := upd.Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrDuplicateRequest
		}
		return err
	}
	req.ID = existing.ID
	return nil
}

// GetByID fetches one request.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.RegistrationRequest, error) {
	var r models.RegistrationRequest
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns requests, optionally filtered by status, newest first.
func (s *Store) List(ctx context.Context, status string) ([]models.RegistrationRequest, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "creadoEn", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RegistrationRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByStatus counts requests in the given status; empty counts all.
func (s *Store) CountByStatus(ctx context.Context, status string) (int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.c.CountDocuments(ctx, filter)
}

// Approve flips a pending request to approved and creates the account.
// The status flip is conditional on "pending", so two reviewers racing on
// the same request cannot both approve it.
func (s *Store) Approve(ctx context.Context, id, reviewer primitive.ObjectID, notes string) (*models.RegistrationRequest, *models.User, error) {
	now := time.Now().UTC()
	var req models.RegistrationRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.RegistrationPending},
		bson.M{"$set": bson.M{
			"status":        models.RegistrationApproved,
			"reviewedBy":    reviewer,
			"reviewedAt":    now,
			"reviewNotes":   notes,
			"actualizadoEn": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return nil, nil, getErr
		}
		return nil, nil, ErrAlreadyReviewed
	}
	if err != nil {
		return nil, nil, err
	}

	rol := req.RolSolicitado
	if rol == "" {
		rol = models.RoleEstudiante
	}
	user := &models.User{
		Nombre:              req.Nombre,
		CorreoUniversitario: req.CorreoUniversitario,
		PasswordHash:        req.PasswordHash,
		Rol:                 rol,
		Carrera:             req.Carrera,
		CreadoEn:            now,
		ActualizadoEn:       now,
	}
	res, err := s.users.InsertOne(ctx, user)
	if err != nil {
		// Roll the request back so it can be reviewed again.
		_, _ = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
			"$set":   bson.M{"status": models.RegistrationPending, "actualizadoEn": time.Now().UTC()},
			"$unset": bson.M{"reviewedBy": "", "reviewedAt": "", "reviewNotes": ""},
		})
		if wafflemongo.IsDup(err) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return &req, user, nil
}

// Reject flips a pending request to rejected, recording the reviewer's
// notes.
func (s *Store) Reject(ctx context.Context, id, reviewer primitive.ObjectID, notes string) (*models.RegistrationRequest, error) {
	now := time.Now().UTC()
	var req models.RegistrationRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.RegistrationPending},
		bson.M{"$set": bson.M{
			"status":        models.RegistrationRejected,
			"reviewedBy":    reviewer,
			"reviewedAt":    now,
			"reviewNotes":   notes,
			"actualizadoEn": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrAlreadyReviewed
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}
