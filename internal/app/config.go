package app

import (
	"strings"
	"time"

	"github.com/yungbote/formflow-backend/internal/data/aggregates"
	"github.com/yungbote/formflow-backend/internal/platform/envutil"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	Environment string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	RedisEventsChannel string
	IdempotencyTTL     time.Duration

	PublishDemotion aggregates.DemotionPolicy
	ActionTimeout   time.Duration

	SubmitRatePerMinute int
	AllowedOrigins      []string

	MetricsAddr string
	SeedCatalog bool
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "")
	if jwtSecretKey == "" {
		jwtSecretKey = "defaultsecret"
		log.Warn("JWT_SECRET_KEY not set, using insecure default")
	}
	return Config{
		Port:                envutil.String("PORT", "8080"),
		Environment:         envutil.String("APP_ENV", "development"),
		JWTSecretKey:        jwtSecretKey,
		AccessTokenTTL:      envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		RedisEventsChannel:  envutil.String("REDIS_EVENTS_CHANNEL", "formflow.events"),
		IdempotencyTTL:      envutil.Seconds("IDEMPOTENCY_TTL_SECONDS", 24*time.Hour),
		PublishDemotion:     aggregates.ParseDemotionPolicy(envutil.String("PUBLISH_DEMOTION", "")),
		ActionTimeout:       envutil.Seconds("ACTION_TIMEOUT_SECONDS", 15*time.Second),
		SubmitRatePerMinute: envutil.Int("SUBMIT_RATE_PER_MINUTE", 60),
		AllowedOrigins:      envutil.CSV("CORS_ALLOWED_ORIGINS", nil),
		MetricsAddr:         envutil.String("METRICS_ADDR", ":9090"),
		SeedCatalog:         envutil.Bool("CATALOG_SEED", true),
	}
}

func (c Config) Addr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	return ":" + port
}
