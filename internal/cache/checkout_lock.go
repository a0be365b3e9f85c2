package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CheckoutLock guards a payment reference while its checkout runs, so a
// retried request does not race the original one.
type CheckoutLock interface {
	Acquire(ctx context.Context, reference string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, reference string, token string) error
}

type RedisCheckoutLock struct {
	client   *redis.Client
	newToken func() string
}

func NewRedisCheckoutLock(client *redis.Client) *RedisCheckoutLock {
	return &RedisCheckoutLock{
		client:   client,
		newToken: func() string { return uuid.NewString() },
	}
}

func (l *RedisCheckoutLock) withTokenGenerator(gen func() string) *RedisCheckoutLock {
	l.newToken = gen
	return l
}

func checkoutLockKey(reference string) string {
	return "checkout:lock:" + reference
}

// 只刪除自己持有的鎖
const releaseLockScript = `
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`

func (l *RedisCheckoutLock) Acquire(ctx context.Context, reference string, ttl time.Duration) (string, bool, error) {
	token := l.newToken()
	ok, err := l.client.SetNX(ctx, checkoutLockKey(reference), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RedisCheckoutLock) Release(ctx context.Context, reference string, token string) error {
	return l.client.Eval(ctx, releaseLockScript, []string{checkoutLockKey(reference)}, token).Err()
}
