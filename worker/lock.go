package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInFlight means another verification of the same upload is running.
var ErrInFlight = errors.New("verification already in progress")

// Locker grants single ownership of an upload id. Acquire returns
// ErrInFlight when the id is already held.
type Locker interface {
	Acquire(ctx context.Context, id string, ttl time.Duration) (release func(), err error)
}

// MemoryLocker is a Locker for a single process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time // id -> expiry
	now  func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryLocker) Acquire(_ context.Context, id string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, ok := l.held[id]; ok && now.Before(exp) {
		return nil, ErrInFlight
	}
	exp := now.Add(ttl)
	l.held[id] = exp

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			// a lock that expired and was re-acquired belongs to someone else
			if cur, ok := l.held[id]; ok && cur.Equal(exp) {
				delete(l.held, id)
			}
			l.mu.Unlock()
		})
	}, nil
}

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `if redis.call('GET', KEYS[1]) == ARGV[1] then return redis.call('DEL', KEYS[1]) end return 0`

// RedisLocker shares locks between instances with SET NX and a TTL.
type RedisLocker struct {
	rc     *redis.Client
	prefix string
}

func NewRedisLocker(rc *redis.Client, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "veridoc:verify:lock:"
	}
	return &RedisLocker{rc: rc, prefix: prefix}
}

func (l *RedisLocker) Acquire(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	key := l.prefix + id
	token := uuid.NewString()
	ok, err := l.rc.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrInFlight
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = l.rc.Eval(ctx, releaseScript, []string{key}, token).Err()
		})
	}, nil
}
