// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity lifecycle states.
const (
	ActivityActiva  = "activa"
	ActivityCerrada = "cerrada"
)

// Activity is a volunteer activity that users can enroll in.
// Capacidad is nil when the activity has unlimited capacity; otherwise it
// holds the number of seats still available.
type Activity struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Titulo        string              `bson:"titulo" json:"titulo"`
	Descripcion   string              `bson:"descripcion,omitempty" json:"descripcion,omitempty"`
	Area          string              `bson:"area,omitempty" json:"area,omitempty"`
	Lugar         string              `bson:"lugar,omitempty" json:"lugar,omitempty"`
	FechaInicio   *time.Time          `bson:"fechaInicio,omitempty" json:"fechaInicio,omitempty"`
	FechaFin      *time.Time          `bson:"fechaFin,omitempty" json:"fechaFin,omitempty"`
	Capacidad     *int                `bson:"capacidad,omitempty" json:"capacidad,omitempty"`
	Estado        string              `bson:"estado" json:"estado"`
	CreadoPor     primitive.ObjectID  `bson:"creadoPor" json:"creadoPor"`
	FechaCierre   *time.Time          `bson:"fechaCierre,omitempty" json:"fechaCierre,omitempty"`
	MotivoCierre  string              `bson:"motivoCierre,omitempty" json:"motivoCierre,omitempty"`
	CerradaPor    *primitive.ObjectID `bson:"cerradaPor,omitempty" json:"cerradaPor,omitempty"`
	CreadoEn      time.Time           `bson:"creadoEn" json:"creadoEn"`
	ActualizadoEn time.Time           `bson:"actualizadoEn" json:"actualizadoEn"`
}

// DurationHours returns the scheduled duration of the activity in hours,
// or 0 when either date is missing or the range is not positive.
func (a *Activity) DurationHours() float64 {
	if a.FechaInicio == nil || a.FechaFin == nil {
		return 0
	}
	d := a.FechaFin.Sub(*a.FechaInicio)
	if d <= 0 {
		return 0
	}
	return d.Hours()
}
