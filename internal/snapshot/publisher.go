// Package snapshot keeps the latest reports in Redis and announces every update
// on a pub/sub channel.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/kerim47/quantdesk/internal/logger"
)

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Update is the message sent on the updates channel.
type Update struct {
	Name string          `json:"name"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// Publisher writes snapshots to Redis.
type Publisher struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis and pings the server.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("Connected to Redis at %s", cfg.Addr)
	return NewWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string, ttl time.Duration) *Publisher {
	return &Publisher{client: client, prefix: prefix, ttl: ttl}
}

// Key is where the snapshot called name is stored.
func (p *Publisher) Key(name string) string {
	return p.prefix + "latest:" + name
}

// Channel is the pub/sub channel that carries every Update.
func (p *Publisher) Channel() string {
	return p.prefix + "updates"
}

// Publish stores v as the latest snapshot called name and announces it.
func (p *Publisher) Publish(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", name, err)
	}
	msg, err := json.Marshal(Update{Name: name, At: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode update %s: %w", name, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, p.Key(name), data, p.ttl)
		pipe.Publish(ctx, p.Channel(), msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish snapshot %s: %w", name, err)
	}
	return nil
}

// Get decodes the latest snapshot called name into out. It reports false
// when no snapshot is stored.
func (p *Publisher) Get(ctx context.Context, name string, out any) (bool, error) {
	data, err := p.client.Get(ctx, p.Key(name)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode snapshot %s: %w", name, err)
	}
	return true, nil
}

// Subscribe delivers updates until ctx is cancelled. The returned channel is
// closed when the subscription ends.
func (p *Publisher) Subscribe(ctx context.Context) <-chan Update {
	sub := p.client.Subscribe(ctx, p.Channel())
	out := make(chan Update)
	go func() {
		defer close(out)
		defer sub.Close() //nolint:errcheck
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var u Update
				if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
					logger.Warn("Dropping malformed update on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
