// internal/app/system/auditlog/auditlog.go
//
// Package auditlog records security-relevant actions: registration review,
// account blocking, role changes, activity close-out, and failed logins.
// The sink is configurable: "all" writes to MongoDB and the zap log,
// "db" and "log" pick one, "off" disables auditing.
package auditlog

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ulsconnect/ulsconnect/internal/app/store/audit"
	"github.com/ulsconnect/ulsconnect/internal/app/system/ratelimit"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
)

// Event categories.
const (
	CategoryAuth     = "auth"
	CategoryAdmin    = "admin"
	CategoryActivity = "activity"
)

// Sink modes.
const (
	ModeAll = "all"
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Logger fans audit events out to the configured sinks. Writing an event
// never fails the request that produced it.
type Logger struct {
	store *audit.Store
	log   *zap.Logger
	mode  string
}

// New builds a Logger. Unknown modes behave like "all".
func New(store *audit.Store, log *zap.Logger, mode string) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	switch mode {
	case ModeAll, ModeDB, ModeLog, ModeOff:
	default:
		mode = ModeAll
	}
	return &Logger{store: store, log: log, mode: mode}
}

// Record writes ev to the configured sinks, filling the client IP from r.
func (l *Logger) Record(r *http.Request, ev audit.Event) {
	if l == nil || l.mode == ModeOff {
		return
	}
	if r != nil && ev.IP == "" {
		ev.IP = ratelimit.ClientIP(r)
	}

	if l.mode == ModeAll || l.mode == ModeLog {
		fields := []zap.Field{
			zap.String("category", ev.Category),
			zap.String("event", ev.EventType),
			zap.Bool("success", ev.Success),
			zap.String("ip", ev.IP),
		}
		if ev.ActorID != nil {
			fields = append(fields, zap.String("actor", ev.ActorID.Hex()))
		}
		if ev.FailureReason != "" {
			fields = append(fields, zap.String("reason", ev.FailureReason))
		}
		l.log.Info("audit", fields...)
	}

	if (l.mode == ModeAll || l.mode == ModeDB) && l.store != nil {
		// Detached context: the event should land even if the request is
		// already done.
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		defer cancel()
		if err := l.store.Insert(ctx, ev); err != nil {
			l.log.Warn("audit event not persisted", zap.String("event", ev.EventType), zap.Error(err))
		}
	}
}

// Admin records a successful admin action on a user account.
func (l *Logger) Admin(r *http.Request, eventType string, actor primitive.ObjectID, target primitive.ObjectID, details map[string]string) {
	l.Record(r, audit.Event{
		Category:   CategoryAdmin,
		EventType:  eventType,
		Success:    true,
		ActorID:    &actor,
		TargetUser: &target,
		Details:    details,
	})
}

// ActivityClosed records an activity close-out.
func (l *Logger) ActivityClosed(r *http.Request, actor, activity primitive.ObjectID, details map[string]string) {
	l.Record(r, audit.Event{
		Category:       CategoryActivity,
		EventType:      "activity_closed",
		Success:        true,
		ActorID:        &actor,
		TargetActivity: &activity,
		Details:        details,
	})
}

// ActivityDeleted records an activity removal.
func (l *Logger) ActivityDeleted(r *http.Request, actor, activity primitive.ObjectID, details map[string]string) {
	l.Record(r, audit.Event{
		Category:       CategoryActivity,
		EventType:      "activity_deleted",
		Success:        true,
		ActorID:        &actor,
		TargetActivity: &activity,
		Details:        details,
	})
}

// LoginFailed records a rejected login attempt.
func (l *Logger) LoginFailed(r *http.Request, correo, reason string) {
	l.Record(r, audit.Event{
		Category:      CategoryAuth,
		EventType:     "login_failed",
		Success:       false,
		Details:       map[string]string{"correo": correo},
		FailureReason: reason,
	})
}
