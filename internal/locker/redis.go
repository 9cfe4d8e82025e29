package locker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultLockTTL     = 5 * time.Second
	defaultRetries     = 30
	defaultRetryPeriod = 100 * time.Millisecond
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX lock shared by every instance pointing at the same Redis.
type RedisLocker struct {
	client      redis.Cmdable
	prefix      string
	ttl         time.Duration
	retries     int
	retryPeriod time.Duration
	logger      *zap.Logger
}

func NewRedisLocker(client redis.Cmdable, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client:      client,
		prefix:      "lock:warehouse:",
		ttl:         defaultLockTTL,
		retries:     defaultRetries,
		retryPeriod: defaultRetryPeriod,
		logger:      logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := uuid.New().String()

	for attempt := 0; attempt < l.retries; attempt++ {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			l.logger.Error("failed to acquire lock redis error", zap.String("key", lockKey), zap.Error(err))
		}
		if ok {
			return func() {
				// release on a fresh context so a cancelled request still frees the key
				relCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := releaseScript.Run(relCtx, l.client, []string{lockKey}, token).Err(); err != nil {
					l.logger.Warn("failed to release lock", zap.String("key", lockKey), zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryPeriod):
		}
	}

	return nil, ErrBusy
}
