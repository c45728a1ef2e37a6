// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS). AppConfig is everything specific to ULSConnect:
// database connection, session and CSRF secrets, SMTP settings, signup
// policy, and rate limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // secret key for signing session cookies
	SessionDomain string // cookie domain (blank means current host)
	SessionMaxAge int    // cookie lifetime in seconds

	// CSRF protection
	CSRFKey string // 32-byte secret for the CSRF token authenticator

	// Email/SMTP configuration
	MailSMTPHost string // empty disables outgoing mail
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string
	AdminEmail   string // receives new-registration notifications

	// BaseURL is the public frontend URL used to build email links.
	BaseURL string

	// AllowedEmailDomains restricts signups to institutional addresses.
	AllowedEmailDomains []string

	// Login rate limits
	LoginIPLimit     int
	LoginIPWindow    time.Duration
	LoginEmailLimit  int
	LoginEmailWindow time.Duration

	// Public endpoint rate limit (per client IP)
	PublicRateLimit  int
	PublicRateWindow time.Duration

	// Audit logging sink: "all", "db", "log", or "off"
	AuditLogMode string
}
