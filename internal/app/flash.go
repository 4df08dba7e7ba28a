// internal/app/flash.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const flashKeyTpl = "flash:%s" // flash:${browser key}

// FlashStore keeps one-shot confirmation messages across the
// post/redirect/get hop. Pop returns "" when there is nothing pending.
type FlashStore interface {
	Put(ctx context.Context, key, message string) error
	Pop(ctx context.Context, key string) (string, error)
	Close() error
}

// NewFlashStore picks redis when a URL is configured, otherwise an
// in-process fallback. The fallback is fine for a single instance.
func NewFlashStore(config *Config) (FlashStore, error) {
	ttl := time.Duration(config.Flash.TTLSeconds) * time.Second

	if config.Flash.RedisURL == "" {
		return NewMemoryFlash(ttl), nil
	}
	return NewRedisFlash(config.Flash.RedisURL, ttl)
}

type RedisFlash struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisFlash(url string, ttl time.Duration) (*RedisFlash, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisFlash{redis: client, ttl: ttl}, nil
}

func (f *RedisFlash) Put(ctx context.Context, key, message string) error {
	return f.redis.Set(ctx, fmt.Sprintf(flashKeyTpl, key), message, f.ttl).Err()
}

func (f *RedisFlash) Pop(ctx context.Context, key string) (string, error) {
	message, err := f.redis.GetDel(ctx, fmt.Sprintf(flashKeyTpl, key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis error: %w", err)
	}
	return message, nil
}

func (f *RedisFlash) Close() error {
	if f.redis != nil {
		return f.redis.Close()
	}
	return nil
}

type flashEntry struct {
	message string
	expires time.Time
}

type MemoryFlash struct {
	mu       sync.Mutex
	ttl      time.Duration
	messages map[string]flashEntry
}

func NewMemoryFlash(ttl time.Duration) *MemoryFlash {
	return &MemoryFlash{
		ttl:      ttl,
		messages: make(map[string]flashEntry),
	}
}

func (f *MemoryFlash) Put(_ context.Context, key, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[key] = flashEntry{
		message: message,
		expires: time.Now().Add(f.ttl),
	}
	return nil
}

func (f *MemoryFlash) Pop(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.messages[key]
	if !ok {
		return "", nil
	}
	delete(f.messages, key)

	if time.Now().After(entry.expires) {
		return "", nil
	}
	return entry.message, nil
}

func (f *MemoryFlash) Close() error {
	return nil
}
