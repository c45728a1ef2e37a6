// internal/app/features/adminpanel/export.go
package adminpanel

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/csvutil"
	"github.com/ulsconnect/ulsconnect/internal/app/system/normalize"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
)

// ExportUsers streams the user roster as CSV, honoring the same filters
// as the user list.
func (h *Handler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := users.ListFilter{
		Rol:     normalize.Role(q.Get("rol")),
		Search:  q.Get("buscar"),
		Page:    1,
		PerPage: 100,
	}
	if v := q.Get("bloqueado"); v != "" {
		b := v == "true" || v == "1"
		filter.Bloqueado = &b
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "export users")
	defer cancel()

	cw := csvutil.NewDownload(w, csvutil.Filename("usuarios", time.Now().UTC()))
	defer cw.Flush()

	if err := cw.Write([]string{"nombre", "correo", "rol", "carrera", "puntos", "bloqueado", "creado"}); err != nil {
		return
	}
	for {
		page, total, err := h.Users.List(ctx, filter)
		if err != nil {
			h.Log.Error("export users page failed")
			return
		}
		for _, u := range page {
			creado := u.CreadoEn
			_ = cw.Write(csvutil.SanitizeRow([]string{
				u.Nombre,
				u.CorreoUniversitario,
				u.Rol,
				u.Carrera,
				strconv.FormatFloat(u.Puntos, 'f', -1, 64),
				strconv.FormatBool(u.Bloqueado),
				csvutil.FormatTime(&creado),
			}))
		}
		if filter.Page*filter.PerPage >= total || len(page) == 0 {
			return
		}
		filter.Page++
	}
}

// ExportReports streams every impact report as CSV, joined with the
// activity title.
func (h *Handler) ExportReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "export reports")
	defer cancel()

	items, err := h.Reports.List(ctx)
	if err != nil {
		h.Resp.ServerError(w, r, "export reports", err)
		return
	}

	cw := csvutil.NewDownload(w, csvutil.Filename("reportes_impacto", time.Now().UTC()))
	defer cw.Flush()

	if err := cw.Write([]string{"actividad", "invitados", "confirmados", "asistieron", "horasTotales", "beneficiarios", "generado"}); err != nil {
		return
	}
	for _, rep := range items {
		titulo := rep.IDActividad.Hex()
		if act, err := h.Activities.GetByID(ctx, rep.IDActividad); err == nil {
			titulo = act.Titulo
		}
		creado := rep.CreadoEn
		_ = cw.Write(csvutil.SanitizeRow([]string{
			titulo,
			strconv.FormatInt(rep.Metricas.VoluntariosInvitados, 10),
			strconv.FormatInt(rep.Metricas.VoluntariosConfirmados, 10),
			strconv.FormatInt(rep.Metricas.VoluntariosAsistieron, 10),
			strconv.FormatFloat(rep.Metricas.HorasTotales, 'f', 2, 64),
			strconv.Itoa(rep.Metricas.Beneficiarios),
			csvutil.FormatTime(&creado),
		}))
	}
}
