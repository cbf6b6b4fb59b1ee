package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	fieldOwner = "sid"
	fieldToken = "token"
)

// KEYS[1] anti-CSRF hash, ARGV[1] session identifier observed by the caller.
const antiCSRFScript = `
local owner = redis.call("HGET", KEYS[1], "sid")
if not owner then
  return false
end
if owner ~= ARGV[1] then
  redis.call("DEL", KEYS[1])
  return false
end
return redis.call("HGET", KEYS[1], "token")
`

var antiCSRFLua = redis.NewScript(antiCSRFScript)

// RedisStore is a [Store] shared through Redis. Several processes acting for the same
// client identity use the same namespace.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	namespace string
}

// NewRedisStore creates a [RedisStore]. prefix sets the key namespace of the library and
// namespace separates client identities sharing one Redis.
func NewRedisStore(rdb redis.UniversalClient, prefix, namespace string) *RedisStore {
	if prefix == "" {
		prefix = "gs"
	}
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStore{redis: rdb, prefix: prefix, namespace: namespace}
}

func (s *RedisStore) antiCSRFKey() string {
	return s.prefix + ":" + s.namespace + ":csrf"
}

func (s *RedisStore) frontTokenKey() string {
	return s.prefix + ":" + s.namespace + ":front"
}

// AntiCSRF implements [Store].
func (s *RedisStore) AntiCSRF(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", s.RemoveAntiCSRF(ctx)
	}
	token, err := antiCSRFLua.Run(ctx, s.redis, []string{s.antiCSRFKey()}, sessionID).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return token, nil
}

// SetAntiCSRF implements [Store].
func (s *RedisStore) SetAntiCSRF(ctx context.Context, sessionID, token string) error {
	if sessionID == "" || token == "" {
		return s.RemoveAntiCSRF(ctx)
	}
	if err := s.redis.HSet(ctx, s.antiCSRFKey(), fieldOwner, sessionID, fieldToken, token).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RemoveAntiCSRF implements [Store].
func (s *RedisStore) RemoveAntiCSRF(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.antiCSRFKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// FrontToken implements [Store].
func (s *RedisStore) FrontToken(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.frontTokenKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return token, nil
}

// SetFrontToken implements [Store].
func (s *RedisStore) SetFrontToken(ctx context.Context, token string) error {
	if token == "" {
		return s.RemoveFrontToken(ctx)
	}
	if err := s.redis.Set(ctx, s.frontTokenKey(), token, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RemoveFrontToken implements [Store].
func (s *RedisStore) RemoveFrontToken(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.frontTokenKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
