// Package kvstore wraps the redis-backed selection storage and its change
// channel. Selections are written as whole values; cross-instance consistency
// is last-writer-wins by design.
package kvstore

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/joho/godotenv/autoload"
	goredis "github.com/redis/go-redis/v9"
)

type Service interface {
	// Get returns the raw value for key, with ok=false on a missing key.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set replaces the value for key atomically.
	Set(ctx context.Context, key, value string) error
	// Publish broadcasts payload on the change channel.
	Publish(ctx context.Context, payload string) error
	// StartForwarder subscribes to the change channel and invokes onMsg for
	// every payload until ctx is cancelled. Messages published from this
	// process are delivered back to it as well.
	StartForwarder(ctx context.Context, onMsg func(payload string)) error
	Health() map[string]string
	Close() error
}

type service struct {
	rdb     *goredis.Client
	channel string
}

func New() Service {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Fatal().Msg("REDIS_ADDR environment variable not set")
	}
	channel := os.Getenv("REDIS_CHANNEL")
	if channel == "" {
		channel = "comparison.changed"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("Failed to connect to Redis")
	}

	return &service{rdb: rdb, channel: channel}
}

func (s *service) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *service) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *service) Publish(ctx context.Context, payload string) error {
	return s.rdb.Publish(ctx, s.channel, payload).Err()
}

func (s *service) StartForwarder(ctx context.Context, onMsg func(payload string)) error {
	sub := s.rdb.Subscribe(ctx, s.channel)

	// ensures the subscription actually started before we return
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
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
				onMsg(m.Payload)
			}
		}
	}()

	return nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Msg("Key-value store health check failed")
		return map[string]string{
			"message": "kv down",
			"error":   err.Error(),
		}
	}

	return map[string]string{
		"message": "It's healthy",
	}
}

func (s *service) Close() error {
	return s.rdb.Close()
}
