// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user account can hold. Stored values follow the institutional
// vocabulary used across the API ("estudiante", "staff", "admin").
const (
	RoleEstudiante = "estudiante"
	RoleStaff      = "staff"
	RoleAdmin      = "admin"
)

// MaxPointsHistory caps how many score adjustments are retained per user,
// newest first.
const MaxPointsHistory = 50

// User is a registered volunteer, staff member, or administrator.
type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nombre              string             `bson:"nombre" json:"nombre"`
	CorreoUniversitario string             `bson:"correoUniversitario" json:"correoUniversitario"`
	PasswordHash        string             `bson:"password" json:"-"`
	Rol                 string             `bson:"rol" json:"rol"`
	Carrera             string             `bson:"carrera,omitempty" json:"carrera,omitempty"`
	Puntos              float64            `bson:"puntos" json:"puntos"`
	HistorialPuntos     []PointsEntry      `bson:"historialPuntos,omitempty" json:"historialPuntos,omitempty"`
	Bloqueado           bool               `bson:"bloqueado" json:"bloqueado"`
	CreadoEn            time.Time          `bson:"creadoEn" json:"creadoEn"`
	ActualizadoEn       time.Time          `bson:"actualizadoEn" json:"actualizadoEn"`
}

// PointsEntry records one score adjustment in a user's history.
type PointsEntry struct {
	Delta         float64             `bson:"delta" json:"delta"`
	Motivo        string              `bson:"motivo,omitempty" json:"motivo,omitempty"`
	Actividad     *primitive.ObjectID `bson:"actividad,omitempty" json:"actividad,omitempty"`
	RegistradoPor *primitive.ObjectID `bson:"registradoPor,omitempty" json:"registradoPor,omitempty"`
	Fecha         time.Time           `bson:"fecha" json:"fecha"`
}

// ValidRole reports whether rol is one of the three stored role values.
func ValidRole(rol string) bool {
	switch rol {
	case RoleEstudiante, RoleStaff, RoleAdmin:
		return true
	}
	return false
}
