package sessionstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/moonpalace/concierge/internal/repo"
)

// GormBackend keeps session ids in the widget_sessions table.
type GormBackend struct {
	DB *gorm.DB
}

func (b GormBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := repo.GetSession(ctx, b.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrNotFound
	}
	return v, err
}

func (b GormBackend) Set(ctx context.Context, key, value string) error {
	return repo.PutSession(ctx, b.DB, key, value)
}

func (b GormBackend) Delete(ctx context.Context, key string) error {
	return repo.DeleteSession(ctx, b.DB, key)
}

// RedisBackend keeps session ids as plain string keys. A zero TTL keeps them
// until deleted.
type RedisBackend struct {
	Client *redis.Client
	TTL    time.Duration
}

func (b RedisBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := b.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (b RedisBackend) Set(ctx context.Context, key, value string) error {
	return b.Client.Set(ctx, key, value, b.TTL).Err()
}

func (b RedisBackend) Delete(ctx context.Context, key string) error {
	return b.Client.Del(ctx, key).Err()
}

// MemoryBackend is a process-local backend for tests and the memory store mode.
type MemoryBackend struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{m: make(map[string]string)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.m[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (b *MemoryBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	b.m[key] = value
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.m, key)
	b.mu.Unlock()
	return nil
}

// Len reports how many keys are stored.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.m)
}
