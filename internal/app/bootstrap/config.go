// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ULSConnect. They are
// loaded through WAFFLE's config system, so each key can come from a
// config file (mongo_uri), an environment variable (ULSCONNECT_MONGO_URI),
// or a command-line flag (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "ulsconnect", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: 604800, Desc: "Session cookie lifetime in seconds (default 7 days)"},

	{Name: "csrf_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "CSRF authenticator key (32+ bytes, must be strong in production)"},

	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (empty disables outgoing mail)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@ulsconnect.cl", Desc: "From email address"},
	{Name: "mail_from_name", Default: "ULSConnect", Desc: "From display name"},
	{Name: "admin_email", Default: "", Desc: "Email that receives new-registration notifications"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public frontend URL for email links"},

	{Name: "allowed_email_domains", Default: "userena.cl,alumnouls.cl", Desc: "Comma-separated institutional email domains allowed to register"},

	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts allowed per IP per window"},
	{Name: "login_ip_window", Default: "15m", Desc: "Login rate-limit window per IP"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts allowed per email per window"},
	{Name: "login_email_window", Default: "15m", Desc: "Login rate-limit window per email"},

	{Name: "public_rate_limit", Default: 30, Desc: "Requests allowed per IP per window on public endpoints"},
	{Name: "public_rate_window", Default: "1m", Desc: "Public endpoint rate-limit window"},

	{Name: "audit_log", Default: "all", Desc: "Audit sink: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config. It runs
// early in startup so both layers are available before any backends or
// handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ULSCONNECT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Int("session_max_age"),

		CSRFKey: appValues.String("csrf_key"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),
		AdminEmail:   appValues.String("admin_email"),

		BaseURL: appValues.String("base_url"),

		LoginIPLimit:     appValues.Int("login_ip_limit"),
		LoginIPWindow:    appValues.Duration("login_ip_window", 15*time.Minute),
		LoginEmailLimit:  appValues.Int("login_email_limit"),
		LoginEmailWindow: appValues.Duration("login_email_window", 15*time.Minute),

		PublicRateLimit:  appValues.Int("public_rate_limit"),
		PublicRateWindow: appValues.Duration("public_rate_window", time.Minute),

		AuditLogMode: appValues.String("audit_log"),
	}

	for _, d := range strings.Split(appValues.String("allowed_email_domains"), ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			appCfg.AllowedEmailDomains = append(appCfg.AllowedEmailDomains, d)
		}
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. It catches
// configuration errors before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if len(appCfg.AllowedEmailDomains) == 0 {
		return fmt.Errorf("allowed_email_domains must name at least one domain")
	}
	if coreCfg.Env == "prod" {
		if strings.HasPrefix(appCfg.SessionKey, "dev-only") {
			return fmt.Errorf("session_key must be changed for production")
		}
		if strings.HasPrefix(appCfg.CSRFKey, "dev-only") {
			return fmt.Errorf("csrf_key must be changed for production")
		}
	}
	return nil
}
