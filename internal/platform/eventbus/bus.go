// Package eventbus publishes workflow events over Redis pub/sub.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

// Event is the envelope every published message carries.
type Event struct {
	Name       string         `json:"event"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

type Bus interface {
	// Publish sends ev on channel, or on the default channel when channel is blank.
	Publish(ctx context.Context, channel string, ev Event) error
	// Subscribe delivers events from channel until ctx is done.
	Subscribe(ctx context.Context, channel string, onEvent func(Event)) error
}

type bus struct {
	log            *logger.Logger
	rdb            goredis.UniversalClient
	defaultChannel string
}

func New(log *logger.Logger, rdb goredis.UniversalClient, defaultChannel string) (Bus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if log == nil {
		log = logger.Nop()
	}
	defaultChannel = strings.TrimSpace(defaultChannel)
	if defaultChannel == "" {
		defaultChannel = "formflow.events"
	}
	return &bus{log: log.With("service", "RedisEventBus"), rdb: rdb, defaultChannel: defaultChannel}, nil
}

func (b *bus) channel(ch string) string {
	if ch = strings.TrimSpace(ch); ch != "" {
		return ch
	}
	return b.defaultChannel
}

func (b *bus) Publish(ctx context.Context, channel string, ev Event) error {
	if strings.TrimSpace(ev.Name) == "" {
		return fmt.Errorf("event name required")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel(channel), raw).Err()
}

func (b *bus) Subscribe(ctx context.Context, channel string, onEvent func(Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel(channel))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad event payload", "channel", m.Channel, "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}
