package repository

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-event-roster/core/cache"
	"go-event-roster/core/constants"
	"go-event-roster/core/logger"
	"go-event-roster/modules/lock/entity"

	"github.com/redis/go-redis/v9"
)

// Values are stored as "holder|acquiredMillis|expiresMillis". The key's Redis
// TTL only bounds garbage; liveness is decided against the caller's clock.
var acquireScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
local holder = ARGV[1]
local now = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])
local acquired = now
if cur then
  local h, a, e = string.match(cur, '^(.*)|(%d+)|(%d+)$')
  if h and tonumber(e) > now then
    if h ~= holder then
      return {0, h, a, e}
    end
    acquired = tonumber(a)
  end
end
local expires = now + ttl
redis.call('SET', KEYS[1], holder .. '|' .. acquired .. '|' .. expires, 'PX', ttl)
return {1, holder, tostring(acquired), tostring(expires)}
`)

var releaseScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then
  return 0
end
local h = string.match(cur, '^(.*)|%d+|%d+$')
if h == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// RedisStore shares locks across service replicas.
type RedisStore struct {
	cache cache.Cache
}

func NewRedisStore(c cache.Cache) *RedisStore {
	return &RedisStore{cache: c}
}

func lockKey(eventID string) string {
	return constants.RedisKeyEditLock + eventID
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

func (s *RedisStore) Acquire(ctx context.Context, eventID, holderID string, now time.Time, ttl time.Duration) (entity.EditLock, bool, error) {
	ttlMillis := ttl.Milliseconds()
	if ttlMillis <= 0 {
		ttlMillis = 1
	}
	res, err := acquireScript.Run(ctx, s.cache.Client(), []string{lockKey(eventID)}, holderID, millis(now), ttlMillis).Slice()
	if err != nil {
		logger.Error("RedisStore:Acquire", err)
		return entity.EditLock{}, false, err
	}
	if len(res) != 4 {
		return entity.EditLock{}, false, fmt.Errorf("unexpected acquire reply %v", res)
	}

	acquiredAt, err := fromMillis(toString(res[2]))
	if err != nil {
		return entity.EditLock{}, false, err
	}
	expiresAt, err := fromMillis(toString(res[3]))
	if err != nil {
		return entity.EditLock{}, false, err
	}
	lock := entity.EditLock{
		EventID:    eventID,
		HolderID:   toString(res[1]),
		AcquiredAt: acquiredAt,
		ExpiresAt:  expiresAt,
	}
	granted, _ := res[0].(int64)
	return lock, granted == 1, nil
}

func (s *RedisStore) Release(ctx context.Context, eventID, holderID string) error {
	if err := releaseScript.Run(ctx, s.cache.Client(), []string{lockKey(eventID)}, holderID).Err(); err != nil {
		logger.Error("RedisStore:Release", err)
		return err
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, eventID string, now time.Time) (*entity.EditLock, error) {
	raw, err := s.cache.Client().Get(ctx, lockKey(eventID)).Result()
	if err != nil {
		if stdErrors.Is(err, redis.Nil) {
			return nil, nil
		}
		logger.Error("RedisStore:Get", err)
		return nil, err
	}

	lock, err := parseLock(eventID, raw)
	if err != nil {
		return nil, err
	}
	if !lock.Live(now) {
		return nil, nil
	}
	return lock, nil
}

func (s *RedisStore) Clear(ctx context.Context, eventID string) error {
	return s.cache.Del(ctx, lockKey(eventID))
}

func parseLock(eventID, raw string) (*entity.EditLock, error) {
	parts := strings.Split(raw, "|")
	if len(parts) < 3 {
		return nil, fmt.Errorf("malformed lock value %q", raw)
	}
	n := len(parts)
	acquiredAt, err := fromMillis(parts[n-2])
	if err != nil {
		return nil, err
	}
	expiresAt, err := fromMillis(parts[n-1])
	if err != nil {
		return nil, err
	}
	return &entity.EditLock{
		EventID:    eventID,
		HolderID:   strings.Join(parts[:n-2], "|"),
		AcquiredAt: acquiredAt,
		ExpiresAt:  expiresAt,
	}, nil
}
