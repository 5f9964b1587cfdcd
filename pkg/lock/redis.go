package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// RedisLocker holds keys in Redis so that every instance of the service
// shares them. A holder that dies loses the key after ttl.
type RedisLocker struct {
	client   redis.Cmdable
	prefix   string
	ttl      time.Duration
	wait     time.Duration
	retry    time.Duration
	newToken func() string
	log      *zap.Logger
}

func NewRedisLocker(client redis.Cmdable, ttl, wait time.Duration, log *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client:   client,
		prefix:   "booking:lock:",
		ttl:      ttl,
		wait:     wait,
		retry:    50 * time.Millisecond,
		newToken: uuid.NewString,
		log:      log.With(zap.String("component", "redis_locker")),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	name := l.prefix + key
	token := l.newToken()

	for {
		ok, err := l.client.SetNX(ctx, name, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("acquire %s: %w", name, err)
		}
		if ok {
			return l.unlocker(name, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisLocker) unlocker(name, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := l.client.Eval(ctx, releaseScript, []string{name}, token).Err(); err != nil {
				l.log.Warn("Failed to release lock", zap.String("key", name), zap.Error(err))
			}
		})
	}
}
