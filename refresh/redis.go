package refresh

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	renameStatusNotFound int64 = 0
	renameStatusExpired  int64 = 1
	renameStatusMismatch int64 = 2
	renameStatusRenamed  int64 = 3
)

const renameScript = `
local old_key = KEYS[1]
local new_key = KEYS[2]
local expected_owner = ARGV[1]

local owner = redis.call("GET", old_key)
if not owner then
  return {0}
end

if owner ~= expected_owner then
  return {2}
end

local ttl = redis.call("PTTL", old_key)
if ttl <= 0 then
  redis.call("DEL", old_key)
  return {1}
end

redis.call("DEL", old_key)
redis.call("SET", new_key, owner, "PX", ttl)

return {3, ttl}
`

var renameLua = redis.NewScript(renameScript)

// RedisRegistry keeps refresh tokens as "<prefix>:<sha256>" keys whose value is
// the owning user id and whose Redis TTL is the token's remaining validity.
type RedisRegistry struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisRegistry creates a [RedisRegistry] on the given client. An empty
// prefix selects [DefaultPrefix].
func NewRedisRegistry(client redis.UniversalClient, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisRegistry{redis: client, prefix: prefix}
}

func (r *RedisRegistry) key(token string) string {
	return KeyFor(r.prefix, token)
}

// Save stores token with SET ... PX ttl.
func (r *RedisRegistry) Save(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if token == "" {
		return ErrEmptyToken
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := r.redis.Set(ctx, r.key(token), strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Exists reports whether the key is present. Redis drops expired keys itself.
func (r *RedisRegistry) Exists(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := r.redis.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n == 1, nil
}

// RemainingTTL returns PTTL for the token key.
func (r *RedisRegistry) RemainingTTL(ctx context.Context, token string) (time.Duration, error) {
	ttl, err := r.redis.PTTL(ctx, r.key(token)).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	// go-redis reports -2 (missing) and -1 (no expiry) as negative durations.
	if ttl <= 0 {
		return 0, ErrNotFound
	}
	return ttl, nil
}

// Delete removes the token key; deleting a missing key is not an error.
func (r *RedisRegistry) Delete(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := r.redis.Del(ctx, r.key(token)).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

// Rename runs a single Lua script that checks ownership, reads PTTL, deletes
// the old key and writes the new key with that PTTL. Concurrent renames of the
// same old token therefore have exactly one winner.
func (r *RedisRegistry) Rename(ctx context.Context, oldToken, newToken string, userID int64) error {
	if oldToken == "" || newToken == "" {
		return ErrEmptyToken
	}

	res, err := renameLua.Run(
		ctx,
		r.redis,
		[]string{r.key(oldToken), r.key(newToken)},
		strconv.FormatInt(userID, 10),
	).Result()
	if err != nil {
		return unavailable(err)
	}

	arr, ok := res.([]interface{})
	if !ok || len(arr) == 0 {
		return fmt.Errorf("%w: unexpected rename script result", ErrUnavailable)
	}
	status, ok := arr[0].(int64)
	if !ok {
		return fmt.Errorf("%w: unexpected rename script status", ErrUnavailable)
	}

	switch status {
	case renameStatusRenamed:
		return nil
	case renameStatusMismatch:
		return ErrOwnerMismatch
	case renameStatusNotFound, renameStatusExpired:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: unknown rename status %d", ErrUnavailable, status)
	}
}

// Ping checks Redis reachability.
func (r *RedisRegistry) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
