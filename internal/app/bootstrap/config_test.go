package bootstrap

import (
	"testing"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/ulsconnect/ulsconnect/internal/testutil"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func devAppConfig() AppConfig {
	return AppConfig{
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "ulsconnect_test",
		SessionKey:          "dev-only-change-me-please-0123456789ABCDEF",
		CSRFKey:             "dev-only-change-me-please-0123456789ABCDEF",
		AllowedEmailDomains: []string{"userena.cl", "alumnouls.cl"},
	}
}

func TestValidateConfig_AcceptsDevDefaults(t *testing.T) {
	coreCfg := &config.CoreConfig{Env: "dev"}
	if err := ValidateConfig(coreCfg, devAppConfig(), testLogger()); err != nil {
		t.Fatalf("ValidateConfig failed: %v", err)
	}
}

func TestValidateConfig_RejectsBadMongoURI(t *testing.T) {
	appCfg := devAppConfig()
	appCfg.MongoURI = "not-a-mongo-uri"
	coreCfg := &config.CoreConfig{Env: "dev"}
	if err := ValidateConfig(coreCfg, appCfg, testLogger()); err == nil {
		t.Fatal("expected error for invalid MongoDB URI")
	}
}

func TestValidateConfig_RejectsDevKeysInProd(t *testing.T) {
	coreCfg := &config.CoreConfig{Env: "prod"}
	if err := ValidateConfig(coreCfg, devAppConfig(), testLogger()); err == nil {
		t.Fatal("expected error for dev session key in prod")
	}

	appCfg := devAppConfig()
	appCfg.SessionKey = "a-real-production-key-0123456789ABCDEF"
	if err := ValidateConfig(coreCfg, appCfg, testLogger()); err == nil {
		t.Fatal("expected error for dev CSRF key in prod")
	}
}

func TestValidateConfig_RequiresEmailDomains(t *testing.T) {
	appCfg := devAppConfig()
	appCfg.AllowedEmailDomains = nil
	coreCfg := &config.CoreConfig{Env: "dev"}
	if err := ValidateConfig(coreCfg, appCfg, testLogger()); err == nil {
		t.Fatal("expected error when no email domains are configured")
	}
}

func TestEnsureSchema_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	deps := DBDeps{MongoDatabase: db}
	coreCfg := &config.CoreConfig{Env: "dev"}

	if err := EnsureSchema(ctx, coreCfg, devAppConfig(), deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	// Running twice must be idempotent.
	if err := EnsureSchema(ctx, coreCfg, devAppConfig(), deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema second run failed: %v", err)
	}

	cur, err := db.Collection("usuarios").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("listing indexes failed: %v", err)
	}
	var specs []struct {
		Name string `bson:"name"`
	}
	if err := cur.All(ctx, &specs); err != nil {
		t.Fatalf("decoding indexes failed: %v", err)
	}
	found := false
	for _, s := range specs {
		if s.Name == "uniq_correo" {
			found = true
		}
	}
	if !found {
		t.Error("expected uniq_correo index on usuarios")
	}
}
