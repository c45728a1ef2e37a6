// internal/app/system/mailer/templates.go
package mailer

import (
	"context"
	"fmt"
	"html"
)

// NotifyRegistrationRequest alerts the admin mailbox that a signup is
// waiting for review. No-op when no admin address is configured.
func (m *Mailer) NotifyRegistrationRequest(ctx context.Context, nombre, correo string) error {
	if m.cfg.AdminEmail == "" {
		return nil
	}
	subject := "Nueva solicitud de registro en ULSConnect"
	text := fmt.Sprintf(
		"Hay una nueva solicitud de registro pendiente de revisión.\n\nNombre: %s\nCorreo: %s\n\nRevísala en el panel de administración: %s/admin/solicitudes\n",
		nombre, correo, m.cfg.BaseURL,
	)
	htmlBody := fmt.Sprintf(
		"<p>Hay una nueva solicitud de registro pendiente de revisión.</p><p><b>Nombre:</b> %s<br><b>Correo:</b> %s</p><p><a href=%q>Abrir panel de administración</a></p>",
		html.EscapeString(nombre), html.EscapeString(correo), m.cfg.BaseURL+"/admin/solicitudes",
	)
	return m.send(ctx, m.cfg.AdminEmail, subject, text, htmlBody)
}

// SendRegistrationApproved tells a requester their account is ready.
func (m *Mailer) SendRegistrationApproved(ctx context.Context, correo, nombre string) error {
	subject := "Tu cuenta de ULSConnect fue aprobada"
	text := fmt.Sprintf(
		"Hola %s,\n\nTu solicitud de registro fue aprobada. Ya puedes iniciar sesión con tu correo institucional en %s.\n\nEquipo ULSConnect\n",
		nombre, m.cfg.BaseURL,
	)
	htmlBody := fmt.Sprintf(
		"<p>Hola %s,</p><p>Tu solicitud de registro fue aprobada. Ya puedes <a href=%q>iniciar sesión</a> con tu correo institucional.</p><p>Equipo ULSConnect</p>",
		html.EscapeString(nombre), m.cfg.BaseURL,
	)
	return m.send(ctx, correo, subject, text, htmlBody)
}

// SendRegistrationRejected tells a requester their signup was declined,
// including the reviewer's notes when present.
func (m *Mailer) SendRegistrationRejected(ctx context.Context, correo, nombre, notes string) error {
	subject := "Sobre tu solicitud de registro en ULSConnect"
	motivo := ""
	if notes != "" {
		motivo = fmt.Sprintf("\nMotivo: %s\n", notes)
	}
	text := fmt.Sprintf(
		"Hola %s,\n\nLamentamos informarte que tu solicitud de registro no fue aprobada.\n%s\nSi crees que se trata de un error, contacta a la coordinación de voluntariado.\n",
		nombre, motivo,
	)
	htmlMotivo := ""
	if notes != "" {
		htmlMotivo = fmt.Sprintf("<p><b>Motivo:</b> %s</p>", html.EscapeString(notes))
	}
	htmlBody := fmt.Sprintf(
		"<p>Hola %s,</p><p>Lamentamos informarte que tu solicitud de registro no fue aprobada.</p>%s<p>Si crees que se trata de un error, contacta a la coordinación de voluntariado.</p>",
		html.EscapeString(nombre), htmlMotivo,
	)
	return m.send(ctx, correo, subject, text, htmlBody)
}

// SendActivityClosed notifies an enrolled volunteer that an activity was
// closed.
func (m *Mailer) SendActivityClosed(ctx context.Context, correo, nombre, titulo, motivo string) error {
	subject := fmt.Sprintf("Actividad finalizada: %s", titulo)
	motivoTxt := ""
	if motivo != "" {
		motivoTxt = fmt.Sprintf("\nMotivo: %s\n", motivo)
	}
	text := fmt.Sprintf(
		"Hola %s,\n\nLa actividad \"%s\" en la que estabas inscrito/a ha sido finalizada.\n%s\nGracias por participar.\n",
		nombre, titulo, motivoTxt,
	)
	htmlMotivo := ""
	if motivo != "" {
		htmlMotivo = fmt.Sprintf("<p><b>Motivo:</b> %s</p>", html.EscapeString(motivo))
	}
	htmlBody := fmt.Sprintf(
		"<p>Hola %s,</p><p>La actividad <b>%s</b> en la que estabas inscrito/a ha sido finalizada.</p>%s<p>Gracias por participar.</p>",
		html.EscapeString(nombre), html.EscapeString(titulo), htmlMotivo,
	)
	return m.send(ctx, correo, subject, text, htmlBody)
}

// SendPasswordReset mails a single-use reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, correo, nombre, token string) error {
	link := fmt.Sprintf("%s/restablecer?token=%s", m.cfg.BaseURL, token)
	subject := "Restablece tu contraseña de ULSConnect"
	text := fmt.Sprintf(
		"Hola %s,\n\nRecibimos una solicitud para restablecer tu contraseña. Abre este enlace para continuar (válido por una hora):\n\n%s\n\nSi no lo solicitaste, ignora este mensaje.\n",
		nombre, link,
	)
	htmlBody := fmt.Sprintf(
		"<p>Hola %s,</p><p>Recibimos una solicitud para restablecer tu contraseña. El enlace es válido por una hora.</p><p><a href=%q>Restablecer contraseña</a></p><p>Si no lo solicitaste, ignora este mensaje.</p>",
		html.EscapeString(nombre), link,
	)
	return m.send(ctx, correo, subject, text, htmlBody)
}
