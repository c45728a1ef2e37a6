// internal/app/features/health/handler.go
package health

import (
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/ulsconnect/ulsconnect/internal/app/system/respond"
	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
)

// Handler answers liveness and readiness probes.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// Get reports service health, including database reachability.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Ping(), h.Log, "health ping")
	defer cancel()

	dbStatus := "ok"
	status := http.StatusOK
	if err := h.DB.Client().Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Warn("health check: database unreachable", zap.Error(err))
		dbStatus = "unreachable"
		status = http.StatusServiceUnavailable
	}

	respond.JSON(w, status, map[string]any{
		"status":   dbStatus == "ok",
		"database": dbStatus,
	})
}
