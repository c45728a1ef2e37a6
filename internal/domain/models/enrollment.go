// internal/domain/models/enrollment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment states. An enrollment starts "activa"; staff may mark it
// "confirmada" ahead of the event; closing the activity moves open
// enrollments to "terminada"; a volunteer can cancel their own.
const (
	EnrollmentActiva     = "activa"
	EnrollmentConfirmada = "confirmada"
	EnrollmentCancelada  = "cancelada"
	EnrollmentTerminada  = "terminada"
)

// OpenEnrollmentStates are the states that count as a live enrollment for
// attendance lists and activity close-out.
var OpenEnrollmentStates = []string{EnrollmentActiva, EnrollmentConfirmada}

// Enrollment links a user to an activity. The (usuario, actividad) pair is
// unique regardless of state.
type Enrollment struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Usuario           primitive.ObjectID `bson:"usuario" json:"usuario"`
	Actividad         primitive.ObjectID `bson:"actividad" json:"actividad"`
	Estado            string             `bson:"estado" json:"estado"`
	MotivoCancelacion string             `bson:"motivoCancelacion,omitempty" json:"motivoCancelacion,omitempty"`
	CreadoEn          time.Time          `bson:"creadoEn" json:"creadoEn"`
	ActualizadoEn     time.Time          `bson:"actualizadoEn" json:"actualizadoEn"`
}
