// internal/app/features/adminpanel/reports.go
package adminpanel

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ulsconnect/ulsconnect/internal/app/store/reports"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/htmlsanitize"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
)

// GenerateReport computes the impact report for a closed activity. The
// metrics are frozen at generation time; re-generating is rejected.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.UserFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Resp.BadRequest(w, "Cuerpo de la solicitud inválido")
		return
	}
	req.Notas = htmlsanitize.Clean(req.Notas)
	if err := validate.Struct(req); err != nil {
		h.Resp.BadRequest(w, "El número de beneficiarios no puede ser negativo")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "report generate")
	defer cancel()

	report, err := h.Reports.Generate(ctx, id, req.Beneficiarios, req.Notas, su.ID)
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrActivityNotFound):
			h.Resp.NotFound(w, "Actividad no encontrada")
		case errors.Is(err, reports.ErrActivityNotClosed):
			h.Resp.BadRequest(w, "La actividad debe estar cerrada o finalizada para generar el reporte")
		case errors.Is(err, reports.ErrNoAttendance):
			h.Resp.BadRequest(w, "La actividad no tiene asistencia registrada")
		case errors.Is(err, reports.ErrExists):
			h.Resp.Conflict(w, "El reporte de esta actividad ya fue generado")
		default:
			h.Resp.ServerError(w, r, "report generate", err)
		}
		return
	}

	h.Audit.Admin(r, "report_generated", su.ID, id, nil)
	respond.Success(w, http.StatusCreated, map[string]any{"reporte": report})
}

// GetReport returns the stored report for one activity.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.Resp.BadRequest(w, "ID de actividad inválido")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "report get")
	defer cancel()

	report, err := h.Reports.GetByActivity(ctx, id)
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			h.Resp.NotFound(w, "Reporte no encontrado")
			return
		}
		h.Resp.ServerError(w, r, "report get", err)
		return
	}
	respond.OK(w, map[string]any{"reporte": report})
}

// ListReports returns every generated report, newest first.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "report list")
	defer cancel()

	items, err := h.Reports.List(ctx)
	if err != nil {
		h.Resp.ServerError(w, r, "report list", err)
		return
	}
	respond.OK(w, map[string]any{"reportes": items})
}
