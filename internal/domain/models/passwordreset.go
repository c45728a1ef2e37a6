// internal/domain/models/passwordreset.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PasswordResetToken is a single-use reset token mailed to a user.
// Expired tokens are reaped by a TTL index on ExpiresAt.
type PasswordResetToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Usuario   primitive.ObjectID `bson:"usuario" json:"usuario"`
	Token     string             `bson:"token" json:"-"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	UsedAt    *time.Time         `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
	CreadoEn  time.Time          `bson:"creadoEn" json:"creadoEn"`
}
