package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	oplockPrefix     = "ad_oplock:"
	defaultOplockTTL = 2 * time.Minute
)

// releaseScript deletes the lock only when the caller still holds it, so a
// lock that expired and was re-acquired by someone else is never released by
// the stale holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// OpLockRepo serializes moderation operations per advertisement across
// console instances. The TTL bounds how long a crashed holder can block a
// record.
type OpLockRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewOpLockRepo(client *goredis.Client, ttl time.Duration) *OpLockRepo {
	if ttl <= 0 {
		ttl = defaultOplockTTL
	}
	return &OpLockRepo{
		client: client,
		ttl:    ttl,
	}
}

func (r *OpLockRepo) Acquire(ctx context.Context, adID int64) (string, bool, error) {
	if r.client == nil {
		return "", false, fmt.Errorf("redis client is nil")
	}
	if adID <= 0 {
		return "", false, fmt.Errorf("invalid advertisement id")
	}

	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, oplockKey(adID), token, r.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire ad operation lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (r *OpLockRepo) Release(ctx context.Context, adID int64, token string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if adID <= 0 || token == "" {
		return nil
	}

	if err := r.client.Eval(ctx, releaseScript, []string{oplockKey(adID)}, token).Err(); err != nil {
		return fmt.Errorf("release ad operation lock: %w", err)
	}
	return nil
}

func oplockKey(adID int64) string {
	return fmt.Sprintf("%s%d", oplockPrefix, adID)
}
