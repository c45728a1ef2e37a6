// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	adminpanelfeature "github.com/ulsconnect/ulsconnect/internal/app/features/adminpanel"
	activitiesfeature "github.com/ulsconnect/ulsconnect/internal/app/features/activities"
	attendancefeature "github.com/ulsconnect/ulsconnect/internal/app/features/attendance"
	authnfeature "github.com/ulsconnect/ulsconnect/internal/app/features/authn"
	enrollmentsfeature "github.com/ulsconnect/ulsconnect/internal/app/features/enrollments"
	healthfeature "github.com/ulsconnect/ulsconnect/internal/app/features/health"
	passwordresetfeature "github.com/ulsconnect/ulsconnect/internal/app/features/passwordreset"
	registrationfeature "github.com/ulsconnect/ulsconnect/internal/app/features/registration"
	volunteerpanelfeature "github.com/ulsconnect/ulsconnect/internal/app/features/volunteerpanel"
	activitystore "github.com/ulsconnect/ulsconnect/internal/app/store/activities"
	attendancestore "github.com/ulsconnect/ulsconnect/internal/app/store/attendance"
	auditstore "github.com/ulsconnect/ulsconnect/internal/app/store/audit"
	enrollmentstore "github.com/ulsconnect/ulsconnect/internal/app/store/enrollments"
	resetstore "github.com/ulsconnect/ulsconnect/internal/app/store/passwordreset"
	registrationstore "github.com/ulsconnect/ulsconnect/internal/app/store/registrations"
	reportstore "github.com/ulsconnect/ulsconnect/internal/app/store/reports"
	userstore "github.com/ulsconnect/ulsconnect/internal/app/store/users"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auditlog"
	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
	"github.com/ulsconnect/ulsconnect/internal/app/system/mailer"
	"github.com/ulsconnect/ulsconnect/internal/app/system/ratelimit"
	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connection, and schema setup
// have completed. Stores are built once here and shared by every feature
// handler; the session middleware wraps the whole API so handlers can
// read the current user from the request context.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	activities := activitystore.New(db)
	enrollments := enrollmentstore.New(db)
	attendance := attendancestore.New(db)
	reports := reportstore.New(db)
	registrations := registrationstore.New(db)
	resetTokens := resetstore.New(db)

	secure := coreCfg.Env == "prod"
	sessionMgr := auth.NewSessionManager(auth.Config{
		Key:      appCfg.SessionKey,
		Secure:   secure,
		Domain:   appCfg.SessionDomain,
		MaxAge:   appCfg.SessionMaxAge,
		SameSite: http.SameSiteLaxMode,
	}, users, logger)

	mail, err := mailer.New(mailer.Config{
		Host:       appCfg.MailSMTPHost,
		Port:       appCfg.MailSMTPPort,
		Username:   appCfg.MailSMTPUser,
		Password:   appCfg.MailSMTPPass,
		From:       appCfg.MailFrom,
		FromName:   appCfg.MailFromName,
		AdminEmail: appCfg.AdminEmail,
		BaseURL:    appCfg.BaseURL,
	}, logger)
	if err != nil {
		logger.Error("mailer init failed", zap.Error(err))
		return nil, err
	}

	audit := auditlog.New(auditstore.New(db), logger, appCfg.AuditLogMode)
	resp := respond.NewLogger(logger)

	logins := ratelimit.NewLoginLimiter(
		appCfg.LoginIPLimit, appCfg.LoginIPWindow,
		appCfg.LoginEmailLimit, appCfg.LoginEmailWindow,
	)
	public := ratelimit.New(appCfg.PublicRateLimit, appCfg.PublicRateWindow)

	r := chi.NewRouter()

	// Health stays outside the session and CSRF stack so load balancers
	// can probe without cookies.
	healthfeature.Routes(r, &healthfeature.Handler{DB: db, Log: logger})

	protect := csrf.Protect([]byte(appCfg.CSRFKey),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respond.Error(w, http.StatusForbidden, "Token CSRF inválido")
		})),
	)

	r.Route("/api", func(api chi.Router) {
		api.Use(protect)
		api.Use(sessionMgr.WithUser)

		// Unauthenticated endpoints carry their own per-IP limit.
		api.Group(func(pub chi.Router) {
			pub.Use(public.Middleware)
			registrationfeature.Routes(pub, &registrationfeature.Handler{
				Registrations:  registrations,
				Mail:           mail,
				Resp:           resp,
				Log:            logger,
				AllowedDomains: appCfg.AllowedEmailDomains,
			})
			passwordresetfeature.Routes(pub, &passwordresetfeature.Handler{
				Users:  users,
				Tokens: resetTokens,
				Mail:   mail,
				Resp:   resp,
				Log:    logger,
			})
		})

		authnfeature.Routes(api, &authnfeature.Handler{
			Users:    users,
			Sessions: sessionMgr,
			Logins:   logins,
			Audit:    audit,
			Resp:     resp,
			Log:      logger,
		}, sessionMgr)

		activitiesfeature.Routes(api, &activitiesfeature.Handler{
			Activities:  activities,
			Enrollments: enrollments,
			Attendance:  attendance,
			Users:       users,
			Mail:        mail,
			Audit:       audit,
			Resp:        resp,
			Log:         logger,
		}, sessionMgr)

		enrollmentsfeature.Routes(api, &enrollmentsfeature.Handler{
			Enrollments: enrollments,
			Activities:  activities,
			Users:       users,
			Resp:        resp,
			Log:         logger,
		}, sessionMgr)

		attendancefeature.Routes(api, &attendancefeature.Handler{
			Attendance: attendance,
			Users:      users,
			Resp:       resp,
			Log:        logger,
		}, sessionMgr)

		volunteerpanelfeature.Routes(api, &volunteerpanelfeature.Handler{
			Users:       users,
			Enrollments: enrollments,
			Activities:  activities,
			Resp:        resp,
			Log:         logger,
		}, sessionMgr)

		adminpanelfeature.Routes(api, &adminpanelfeature.Handler{
			Users:         users,
			Activities:    activities,
			Enrollments:   enrollments,
			Registrations: registrations,
			Reports:       reports,
			Mail:          mail,
			Audit:         audit,
			Resp:          resp,
			Log:           logger,
		}, sessionMgr)
	})

	return r, nil
}
