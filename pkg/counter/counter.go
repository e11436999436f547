// Package counter hands out sequential ids. A counter is seeded once from the
// current maximum in the database and then only moves through atomic INCR, so
// concurrent creates never receive the same id.
package counter

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"sowp-lms/pkg/apierr"
)

// SeedFunc reports the highest id already in use.
type SeedFunc func(ctx context.Context) (int, error)

type Counter interface {
	Next(ctx context.Context, key string, seed SeedFunc) (int, error)
}

const prefix = "sowp:counter:"

type RedisCounter struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (c *RedisCounter) Next(ctx context.Context, key string, seed SeedFunc) (int, error) {
	k := prefix + key
	exists, err := c.rdb.Exists(ctx, k).Result()
	if err != nil {
		return 0, apierr.Network(fmt.Errorf("counter %s: %w", key, err))
	}
	if exists == 0 {
		start, err := seed(ctx)
		if err != nil {
			return 0, err
		}
		// Losing the race is fine: the winner seeded from the same table.
		if err := c.rdb.SetNX(ctx, k, start, 0).Err(); err != nil {
			return 0, apierr.Network(fmt.Errorf("counter %s: %w", key, err))
		}
	}
	n, err := c.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, apierr.Network(fmt.Errorf("counter %s: %w", key, err))
	}
	return int(n), nil
}

// Memory is an in-process Counter for tests and single-instance setups.
type Memory struct {
	mu   sync.Mutex
	vals map[string]int
}

func NewMemory() *Memory {
	return &Memory{vals: map[string]int{}}
}

func (m *Memory) Next(ctx context.Context, key string, seed SeedFunc) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	if !ok {
		start, err := seed(ctx)
		if err != nil {
			return 0, err
		}
		v = start
	}
	v++
	m.vals[key] = v
	return v, nil
}

func CourseKey() string                 { return "course" }
func NotificationKey() string           { return "notification" }
func TopicKey() string                  { return "topic" }
func AssignmentKey(courseID int) string { return fmt.Sprintf("course:%d:assignment", courseID) }
func QuizKey(courseID int) string       { return fmt.Sprintf("course:%d:quiz", courseID) }
