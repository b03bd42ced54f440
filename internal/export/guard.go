package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"workshop-web/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Guard holds the in-flight export flag per screen key. Acquire returns an
// empty lease when another export already holds the key.
type Guard interface {
	Acquire(ctx context.Context, key string, format models.Format) (lease string, err error)
	Release(ctx context.Context, key, lease string) error
	Current(ctx context.Context, key string) (models.Format, bool, error)
}

type memoryLease struct {
	id     string
	format models.Format
}

// MemoryGuard keeps flags in process. Suitable for a single web replica.
type MemoryGuard struct {
	mu     sync.Mutex
	leases map[string]memoryLease
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{leases: make(map[string]memoryLease)}
}

func (g *MemoryGuard) Acquire(ctx context.Context, key string, format models.Format) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.leases[key]; busy {
		return "", nil
	}
	id := uuid.NewString()
	g.leases[key] = memoryLease{id: id, format: format}
	return id, nil
}

func (g *MemoryGuard) Release(ctx context.Context, key, lease string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.leases[key]; ok && cur.id == lease {
		delete(g.leases, key)
	}
	return nil
}

func (g *MemoryGuard) Current(ctx context.Context, key string) (models.Format, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur, ok := g.leases[key]
	return cur.format, ok, nil
}

// releaseScript deletes the flag only if it still carries our lease, so an
// export that outlived the TTL cannot free someone else's flag.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard shares flags across replicas through SETNX with a TTL. The TTL
// bounds how long a crashed export can block the screen.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) key(key string) string {
	return fmt.Sprintf("export:inflight:%s", key)
}

func (g *RedisGuard) Acquire(ctx context.Context, key string, format models.Format) (string, error) {
	lease := string(format) + "|" + uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key(key), lease, g.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire export flag: %w", err)
	}
	if !ok {
		return "", nil
	}
	return lease, nil
}

func (g *RedisGuard) Release(ctx context.Context, key, lease string) error {
	if err := releaseScript.Run(ctx, g.client, []string{g.key(key)}, lease).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release export flag: %w", err)
	}
	return nil
}

func (g *RedisGuard) Current(ctx context.Context, key string) (models.Format, bool, error) {
	val, err := g.client.Get(ctx, g.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	format, _, _ := strings.Cut(val, "|")
	return models.Format(format), true, nil
}
