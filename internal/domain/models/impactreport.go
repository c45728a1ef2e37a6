// internal/domain/models/impactreport.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImpactMetrics aggregates the outcome of a closed activity.
// HorasTotales is the scheduled duration multiplied by the number of
// attendees, rounded to two decimals.
type ImpactMetrics struct {
	VoluntariosInvitados   int64   `bson:"voluntariosInvitados" json:"voluntariosInvitados"`
	VoluntariosConfirmados int64   `bson:"voluntariosConfirmados" json:"voluntariosConfirmados"`
	VoluntariosAsistieron  int64   `bson:"voluntariosAsistieron" json:"voluntariosAsistieron"`
	HorasTotales           float64 `bson:"horasTotales" json:"horasTotales"`
	Beneficiarios          int     `bson:"beneficiarios" json:"beneficiarios"`
	Notas                  string  `bson:"notas,omitempty" json:"notas,omitempty"`
}

// ImpactReport is the one-per-activity impact summary generated after an
// activity is closed and its attendance recorded.
type ImpactReport struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IDActividad primitive.ObjectID `bson:"idActividad" json:"idActividad"`
	Metricas    ImpactMetrics      `bson:"metricas" json:"metricas"`
	GeneradoPor primitive.ObjectID `bson:"generadoPor" json:"generadoPor"`
	CreadoEn    time.Time          `bson:"creadoEn" json:"creadoEn"`
}
