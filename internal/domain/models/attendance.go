// internal/domain/models/attendance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendance marks. Every entry on a list carries exactly one of these.
const (
	AsistenciaPresente    = "presente"
	AsistenciaAusente     = "ausente"
	AsistenciaJustificada = "justificada"
)

// AttendanceList is the single attendance sheet for an activity: one entry
// per enrolled user, each with a mark. There is at most one list per
// activity.
type AttendanceList struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Actividad     primitive.ObjectID `bson:"actividad" json:"actividad"`
	Inscripciones []AttendanceEntry  `bson:"inscripciones" json:"inscripciones"`
	Fecha         time.Time          `bson:"fecha" json:"fecha"`
	RegistradoPor primitive.ObjectID `bson:"registradoPor" json:"registradoPor"`
	CreadoEn      time.Time          `bson:"creadoEn" json:"creadoEn"`
	ActualizadoEn time.Time          `bson:"actualizadoEn" json:"actualizadoEn"`
}

// AttendanceEntry is one user's mark on an attendance list.
type AttendanceEntry struct {
	Usuario    primitive.ObjectID `bson:"usuario" json:"usuario"`
	Asistencia string             `bson:"asistencia" json:"asistencia"`
}

// ValidAsistencia reports whether mark is a recognized attendance value.
func ValidAsistencia(mark string) bool {
	switch mark {
	case AsistenciaPresente, AsistenciaAusente, AsistenciaJustificada:
		return true
	}
	return false
}

// CountPresent returns how many entries are marked "presente".
func (l *AttendanceList) CountPresent() int {
	n := 0
	for _, e := range l.Inscripciones {
		if e.Asistencia == AsistenciaPresente {
			n++
		}
	}
	return n
}
