package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// DefaultPrefix namespaces revocation keys.
const DefaultPrefix = "art"

// RedisStore keeps one persistent key per revoked token digest.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store using keys "<prefix>:<digest>".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + ":" + Digest(token)
}

// Revoke stores the revocation time once. Repeat calls keep the first value.
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	// Zero expiration keeps the key forever.
	err := s.rdb.SetNX(ctx, s.key(token), time.Now().UTC().Format(time.RFC3339), 0).Err()
	if err != nil {
		return unavailable("revoke", err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, unavailable("is_revoked", err)
	}
	return n > 0, nil
}

func unavailable(op string, err error) error {
	return oops.
		In("revocation").
		Code("REVOCATION_STORE_UNAVAILABLE").
		With("op", op).
		Wrap(fmt.Errorf("%w: %v", ErrUnavailable, err))
}
