package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/realtime"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

const defaultChannel = "lms-events"

// NewRedisBus connects and pings once; an unreachable redis fails startup
// instead of silently dropping events.
func NewRedisBus(log *logger.Logger, cfg RedisConfig) (Bus, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis bus: missing REDIS_ADDR")
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = defaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis bus: ping %s: %w", addr, err)
	}

	log.Info("Event bus connected", "backend", "redis", "addr", addr, "channel", channel)
	return &redisBus{log: log.With("service", "RedisEventBus"), rdb: rdb, channel: channel}, nil
}

// Client exposes the underlying connection for health and metrics collectors.
func Client(b Bus) *goredis.Client {
	if rb, ok := b.(*redisBus); ok {
		return rb.rdb
	}
	return nil
}

func (b *redisBus) Publish(ctx context.Context, evt realtime.Event) error {
	if b == nil || b.rdb == nil {
		return errBusClosed
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", evt.Type, err)
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes before returning, so events published after it
// returns are delivered. The subscription closes with ctx.
func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(evt realtime.Event)) error {
	if b == nil || b.rdb == nil {
		return errBusClosed
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	msgs := sub.Channel(goredis.WithChannelHealthCheckInterval(30 * time.Second))

	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()
	go func() {
		for m := range msgs {
			evt, err := decodeEvent(m.Payload)
			if err != nil {
				b.log.Warn("Dropping malformed event", "channel", m.Channel, "error", err)
				continue
			}
			onMsg(evt)
		}
	}()
	return nil
}

func decodeEvent(payload string) (realtime.Event, error) {
	var evt realtime.Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return evt, err
	}
	if evt.Type == "" {
		return evt, fmt.Errorf("event without type")
	}
	return evt, nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
