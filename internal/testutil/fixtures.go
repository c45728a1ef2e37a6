// internal/testutil/fixtures.go
package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

var seq atomic.Int64

// NewUser builds a student user with a unique institutional email.
// Mutate the result for specific scenarios before inserting it.
func NewUser() *models.User {
	n := seq.Add(1)
	now := time.Now().UTC()
	return &models.User{
		Nombre:              fmt.Sprintf("Voluntario %d", n),
		CorreoUniversitario: fmt.Sprintf("voluntario%d@userena.cl", n),
		PasswordHash:        "$2a$10$fixturefixturefixturefixturefixturefixturefixturefix",
		Rol:                 models.RoleEstudiante,
		CreadoEn:            now,
		ActualizadoEn:       now,
	}
}

// NewActivity builds an active two-hour activity created by creador.
func NewActivity(creador primitive.ObjectID) *models.Activity {
	n := seq.Add(1)
	now := time.Now().UTC()
	inicio := now.Add(24 * time.Hour)
	fin := inicio.Add(2 * time.Hour)
	return &models.Activity{
		Titulo:        fmt.Sprintf("Actividad %d", n),
		Descripcion:   "Jornada de voluntariado",
		Area:          "comunidad",
		Lugar:         "Campus Andrés Bello",
		FechaInicio:   &inicio,
		FechaFin:      &fin,
		Estado:        models.ActivityActiva,
		CreadoPor:     creador,
		CreadoEn:      now,
		ActualizadoEn: now,
	}
}

// IntPtr is a convenience for capacity fields.
func IntPtr(n int) *int { return &n }
