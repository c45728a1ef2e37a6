// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/ulsconnect/ulsconnect/internal/app/system/timeouts"
)

// Startup runs one-time initialization after DB connections and schema
// setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Packages that log outside a request (index reconciliation, audit
	// fallbacks) use the global logger.
	zap.ReplaceGlobals(logger)

	timeouts.Reset()
	return nil
}
