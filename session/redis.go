package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// DefaultPrefix namespaces session keys.
const DefaultPrefix = "acs"

const takeScript = `
local user = redis.call("GET", KEYS[1])
if not user then
  return false
end
redis.call("DEL", KEYS[1])
return user
`

var takeLua = redis.NewScript(takeScript)

// RedisCache is a [Cache] backed by Redis string keys with native expiry.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisCache returns a cache using keys "<prefix>:<sessionID>". An empty
// prefix means DefaultPrefix.
func NewRedisCache(rdb redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) key(sessionID string) string {
	return c.prefix + ":" + sessionID
}

func (c *RedisCache) Put(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := validate(sessionID, ttl); err != nil {
		return err
	}
	ok, err := c.rdb.SetNX(ctx, c.key(sessionID), userID, ttl).Result()
	if err != nil {
		return unavailable("put", sessionID, err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, sessionID string) (string, error) {
	user, err := c.rdb.Get(ctx, c.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", unavailable("get", sessionID, err)
	}
	return user, nil
}

func (c *RedisCache) Take(ctx context.Context, sessionID string) (string, error) {
	user, err := takeLua.Run(ctx, c.rdb, []string{c.key(sessionID)}).Text()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", unavailable("take", sessionID, err)
	}
	return user, nil
}

func (c *RedisCache) Delete(ctx context.Context, sessionID string) error {
	if err := c.rdb.Del(ctx, c.key(sessionID)).Err(); err != nil {
		return unavailable("delete", sessionID, err)
	}
	return nil
}

// TTL reports the remaining lifetime of an entry.
func (c *RedisCache) TTL(ctx context.Context, sessionID string) (time.Duration, error) {
	ttl, err := c.rdb.PTTL(ctx, c.key(sessionID)).Result()
	if err != nil {
		return 0, unavailable("ttl", sessionID, err)
	}
	if ttl < 0 {
		return 0, ErrNotFound
	}
	return ttl, nil
}

func unavailable(op, sessionID string, err error) error {
	return oops.
		In("session").
		Code("SESSION_CACHE_UNAVAILABLE").
		With("op", op, "session_id", sessionID).
		Wrap(fmt.Errorf("%w: %v", ErrUnavailable, err))
}
