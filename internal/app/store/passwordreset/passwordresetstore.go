// internal/app/store/passwordreset/passwordresetstore.go
package passwordreset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// TokenTTL is how long a reset token stays valid.
const TokenTTL = time.Hour

// ErrInvalidToken is returned for unknown, expired, or already used
// tokens. Callers get one error for all three so responses don't leak
// which case occurred.
var ErrInvalidToken = errors.New("invalid or expired token")

// Store provides access to the passwordResetTokens collection.
type Store struct {
	c *mongo.Collection
}

// New binds the store to its collection.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("passwordResetTokens")}
}

// Issue creates a fresh token for the user, invalidating any earlier
// unused ones so only the newest link works.
func (s *Store) Issue(ctx context.Context, userID primitive.ObjectID) (*models.PasswordResetToken, error) {
	now := time.Now().UTC()
	_, err := s.c.UpdateMany(ctx,
		bson.M{"usuario": userID, "usedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"usedAt": now}},
	)
	if err != nil {
		return nil, err
	}

	tok := &models.PasswordResetToken{
		Usuario:   userID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(TokenTTL),
		CreadoEn:  now,
	}
	res, err := s.c.InsertOne(ctx, tok)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		tok.ID = oid
	}
	return tok, nil
}

// Consume validates token and marks it used in one conditional update, so
// a token can only ever be redeemed once. Returns the owning user's ID.
func (s *Store) Consume(ctx context.Context, token string) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	var tok models.PasswordResetToken
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"token":     token,
			"usedAt":    bson.M{"$exists": false},
			"expiresAt": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"usedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&tok)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return primitive.NilObjectID, ErrInvalidToken
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return tok.Usuario, nil
}
