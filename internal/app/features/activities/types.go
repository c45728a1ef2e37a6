// internal/app/features/activities/types.go
package activities

import "time"

type createRequest struct {
	Titulo      string     `json:"titulo" validate:"required,min=3,max=200"`
	Descripcion string     `json:"descripcion" validate:"max=4000"`
	Area        string     `json:"area" validate:"max=120"`
	Lugar       string     `json:"lugar" validate:"max=200"`
	FechaInicio *time.Time `json:"fechaInicio"`
	FechaFin    *time.Time `json:"fechaFin"`
	Capacidad   *int       `json:"capacidad" validate:"omitempty,min=0"`
}

type updateRequest struct {
	Titulo      *string    `json:"titulo" validate:"omitempty,min=3,max=200"`
	Descripcion *string    `json:"descripcion" validate:"omitempty,max=4000"`
	Area        *string    `json:"area" validate:"omitempty,max=120"`
	Lugar       *string    `json:"lugar" validate:"omitempty,max=200"`
	FechaInicio *time.Time `json:"fechaInicio"`
	FechaFin    *time.Time `json:"fechaFin"`
	Capacidad   *int       `json:"capacidad" validate:"omitempty,min=0"`
	// SinLimite clears the capacity, making the activity unlimited.
	SinLimite bool `json:"sinLimite"`
}

type closeRequest struct {
	Motivo string `json:"motivo" validate:"max=500"`
}

// scoreRules are the per-mark point deltas for a scoring pass. A nil
// request body uses the defaults.
type scoreRules struct {
	Presente    float64 `json:"presente"`
	Justificada float64 `json:"justificada"`
	Ausente     float64 `json:"ausente"`
}

type scoreRequest struct {
	Reglas *scoreRules `json:"reglas"`
}

// scoreResult is the per-user outcome of a scoring pass.
type scoreResult struct {
	Usuario         string  `json:"usuario"`
	Asistencia      string  `json:"asistencia"`
	PuntosAplicados float64 `json:"puntosAplicados"`
	Aplicado        bool    `json:"aplicado"`
	Encontrado      bool    `json:"encontrado"`
}
