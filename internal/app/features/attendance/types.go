// internal/app/features/attendance/types.go
package attendance

type takeRequest struct {
	Presentes    []string `json:"presentes"`
	Ausentes     []string `json:"ausentes"`
	Justificadas []string `json:"justificadas"`
}

type entryUpdate struct {
	Usuario    string `json:"usuario"`
	Asistencia string `json:"asistencia"`
}

type updateRequest struct {
	Entradas []entryUpdate `json:"entradas"`
}
