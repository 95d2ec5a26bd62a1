package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"launder/pkg/platform/sentinel"
)

// ReplayGuard records consumed token ids. MarkUsed reports false when the
// id was already consumed.
type ReplayGuard interface {
	MarkUsed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

// MemoryReplayGuard is a single-process guard.
type MemoryReplayGuard struct {
	mu   sync.Mutex
	used map[string]time.Time
	now  func() time.Time
}

func NewMemoryReplayGuard() *MemoryReplayGuard {
	return &MemoryReplayGuard{used: make(map[string]time.Time), now: time.Now}
}

func (g *MemoryReplayGuard) MarkUsed(_ context.Context, tokenID string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for id, exp := range g.used {
		if now.After(exp) {
			delete(g.used, id)
		}
	}
	if _, ok := g.used[tokenID]; ok {
		return false, nil
	}
	g.used[tokenID] = now.Add(ttl)
	return true, nil
}

// RedisReplayGuard shares consumed ids across laundromat replicas.
type RedisReplayGuard struct {
	client *redis.Client
	prefix string
}

func NewRedisReplayGuard(client *redis.Client, prefix string) *RedisReplayGuard {
	return &RedisReplayGuard{client: client, prefix: prefix}
}

func (g *RedisReplayGuard) MarkUsed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, fmt.Sprintf("%s:payment:%s", g.prefix, tokenID), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark payment token used: %w: %w", sentinel.ErrUnavailable, err)
	}
	return ok, nil
}
