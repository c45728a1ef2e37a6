// internal/domain/models/registration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration request review states.
const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

// RegistrationRequest is a self-service signup awaiting admin review.
// The password is hashed at submission time so the plaintext never
// persists; approval copies the hash straight into the new user.
type RegistrationRequest struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Nombre              string              `bson:"nombre" json:"nombre"`
	CorreoUniversitario string              `bson:"correoUniversitario" json:"correoUniversitario"`
	PasswordHash        string              `bson:"password" json:"-"`
	RolSolicitado       string              `bson:"rolSolicitado" json:"rolSolicitado"`
	Carrera             string              `bson:"carrera,omitempty" json:"carrera,omitempty"`
	Status              string              `bson:"status" json:"status"`
	ReviewedBy          *primitive.ObjectID `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt          *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	ReviewNotes         string              `bson:"reviewNotes,omitempty" json:"reviewNotes,omitempty"`
	CreadoEn            time.Time           `bson:"creadoEn" json:"creadoEn"`
	ActualizadoEn       time.Time           `bson:"actualizadoEn" json:"actualizadoEn"`
}
