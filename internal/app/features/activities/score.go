// internal/app/features/activities/score.go
package activities

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	attstore "github.com/ulsconnect/ulsconnect/internal/app/store/attendance"
	"github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// Default point deltas per attendance mark.
var defaultRules = scoreRules{Presente: 10, Justificada: 2, Ausente: -5}

func (r scoreRules) deltaFor(mark string) float64 {
	switch mark {
	case models.AsistenciaPresente:
		return r.Presente
	case models.AsistenciaJustificada:
		return r.Justificada
	case models.AsistenciaAusente:
		return r.Ausente
	}
	return 0
}

// Score runs a scoring pass over the activity's attendance list. Each
// user is scored at most once per activity, so repeating the pass (for
// example after refreshing attendance) only affects users not yet scored.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())
	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	rules := defaultRules
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Reglas != nil {
		rules = *req.Reglas
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "score activity")
	defer cancel()

	list, err := h.Attendance.GetByActivity(ctx, id)
	if err != nil {
		if errors.Is(err, attstore.ErrNotFound) {
			h.Resp.BadRequest(w, "La actividad no tiene asistencia registrada")
			return
		}
		h.Resp.ServerError(w, r, "score attendance", err)
		return
	}

	resultados := make([]scoreResult, 0, len(list.Inscripciones))
	aplicados := 0
	for _, entry := range list.Inscripciones {
		delta := rules.deltaFor(entry.Asistencia)
		res := scoreResult{
			Usuario:         entry.Usuario.Hex(),
			Asistencia:      entry.Asistencia,
			PuntosAplicados: delta,
		}

		// A zero or non-finite delta is a skip, not an error: rules may
		// deliberately ignore a mark.
		if delta == 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
			res.Encontrado = true
			res.PuntosAplicados = 0
			resultados = append(resultados, res)
			continue
		}

		adj, err := h.Users.AdjustScore(ctx, entry.Usuario, delta, users.AdjustOptions{
			Motivo:            "Asistencia: " + entry.Asistencia,
			Actividad:         &list.Actividad,
			RegistradoPor:     &su.ID,
			DedupePerActivity: true,
		})
		if err != nil {
			h.Resp.ServerError(w, r, "score adjust", err)
			return
		}
		res.Aplicado = adj.Applied
		res.Encontrado = adj.Found
		if !adj.Applied {
			res.PuntosAplicados = 0
		} else {
			aplicados++
		}
		resultados = append(resultados, res)
	}

	respond.OK(w, map[string]any{
		"reglas":          rules,
		"totalProcesados": len(resultados),
		"totalAplicados":  aplicados,
		"resultados":      resultados,
	})
}
