package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/logger"

	goredis "github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// RedisPublisher fans engine events out over a Redis pub/sub channel so other
// processes (a second bot instance, a dashboard) can follow list changes.
type RedisPublisher struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

var _ ingest.Listener = (*RedisPublisher)(nil)

// NewRedisPublisher connects to addr and verifies the connection.
func NewRedisPublisher(ctx context.Context, log *logger.Logger, addr, channel string) (*RedisPublisher, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = "smartlist:events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisPublisher{
		log:     log.With("service", "RedisPublisher"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

// OnEvent publishes ev. Failures are logged; the engine never waits on Redis
// longer than publishTimeout.
func (p *RedisPublisher) OnEvent(ctx context.Context, ev ingest.Event) {
	if err := p.Publish(ctx, FromEvent(ev)); err != nil {
		p.log.Warn("failed to publish event", "kind", string(ev.Kind), "error", err)
	}
}

// Publish sends one message.
func (p *RedisPublisher) Publish(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	return p.rdb.Publish(ctx, p.channel, raw).Err()
}

// Subscribe calls onMsg for every message on the channel until ctx is done.
// It returns once the subscription is confirmed.
func (p *RedisPublisher) Subscribe(ctx context.Context, onMsg func(Message)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					p.log.Warn("bad event payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()
	return nil
}

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
