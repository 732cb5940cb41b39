package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/formflow-backend/internal/platform/eventbus"
	"github.com/yungbote/formflow-backend/internal/platform/idempotency"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
	"github.com/yungbote/formflow-backend/internal/platform/redisx"
	"github.com/yungbote/formflow-backend/internal/platform/sendgrid"
	"github.com/yungbote/formflow-backend/internal/platform/webhook"
)

// Clients are the outbound integrations. Redis-backed ones are nil when
// REDIS_ADDR is unset; Mail is nil without a SendGrid key.
type Clients struct {
	Redis       goredis.UniversalClient
	Events      eventbus.Bus
	Idempotency idempotency.Store
	Mail        sendgrid.Client
	Webhooks    webhook.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	redisCfg := redisx.ConfigFromEnv()
	if redisCfg.Enabled() {
		rdb, err := redisx.New(ctx, log, redisCfg)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		bus, err := eventbus.New(log, rdb, cfg.RedisEventsChannel)
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("init event bus: %w", err)
		}
		out.Redis = rdb
		out.Events = bus
		out.Idempotency = idempotency.NewRedisStore(rdb, idempotency.WithTTL(cfg.IdempotencyTTL))
	} else {
		log.Warn("REDIS_ADDR not set; idempotency keys and publish_event actions are disabled")
	}

	// SendGrid
	mail, err := sendgrid.NewFromEnv(log)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init sendgrid: %w", err)
	}
	if mail == nil {
		log.Warn("SENDGRID_API_KEY not set; send_email actions will fail")
	}
	out.Mail = mail

	// Webhooks
	out.Webhooks = webhook.New(log, webhook.ConfigFromEnv())
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
