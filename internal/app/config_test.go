package app

import (
	"testing"
	"time"

	"github.com/yungbote/formflow-backend/internal/data/aggregates"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "JWT_SECRET_KEY", "PUBLISH_DEMOTION", "CORS_ALLOWED_ORIGINS", "IDEMPOTENCY_TTL_SECONDS", "CATALOG_SEED"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.Addr() != ":8080" {
		t.Fatalf("addr=%q", cfg.Addr())
	}
	if cfg.JWTSecretKey == "" {
		t.Fatalf("expected fallback secret")
	}
	if cfg.PublishDemotion != aggregates.DemotePublishedOnly {
		t.Fatalf("demotion=%q", cfg.PublishDemotion)
	}
	if cfg.IdempotencyTTL != 24*time.Hour || !cfg.SeedCatalog || cfg.AllowedOrigins != nil {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("JWT_SECRET_KEY", "s3cret")
	t.Setenv("PUBLISH_DEMOTION", "all")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "60")
	t.Setenv("SUBMIT_RATE_PER_MINUTE", "0")
	t.Setenv("CATALOG_SEED", "false")

	cfg := LoadConfig(logger.Nop())
	if cfg.Addr() != ":9000" || cfg.JWTSecretKey != "s3cret" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.PublishDemotion != aggregates.DemoteAll {
		t.Fatalf("demotion=%q", cfg.PublishDemotion)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("origins=%v", cfg.AllowedOrigins)
	}
	if cfg.IdempotencyTTL != time.Minute || cfg.SubmitRatePerMinute != 0 || cfg.SeedCatalog {
		t.Fatalf("cfg=%+v", cfg)
	}
}
