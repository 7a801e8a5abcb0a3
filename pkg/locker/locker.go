package locker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker -- взаимоисключение заданий по ключу (cabinet, sync_type), чтобы
// дважды сработавший планировщик не запустил одно задание параллельно.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// RedisLocker -- SETNX-замок с TTL; переживает несколько инстансов процесса.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock %s: %w", key, err)
	}
	return ok, nil
}

func (l *RedisLocker) Unlock(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis unlock %s: %w", key, err)
	}
	return nil
}

// MemoryLocker -- процессный замок для запуска без redis и для тестов.
type MemoryLocker struct {
	mu    sync.Mutex
	taken map[string]time.Time // ключ -> срок истечения
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{taken: make(map[string]time.Time)}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if deadline, ok := l.taken[key]; ok && time.Now().Before(deadline) {
		return false, nil
	}
	l.taken[key] = time.Now().Add(ttl)
	return true, nil
}

func (l *MemoryLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.taken, key)
	return nil
}
