package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultOpTimeout bounds a single store round trip so a struggling
// Redis cannot hold requests hostage.
const defaultOpTimeout = 500 * time.Millisecond

// takeScript runs the full admission decision atomically server-side:
// decode the JSON record, honor an active block, roll the window, count
// the request, and persist with a TTL covering whichever of the window
// or the block ends later.
//
// Reply: {allowed, count, resetAt, blockedUntil} in unix milliseconds,
// or {-1, 0, 0, 0} when the stored record is not valid JSON.
var takeScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local points = tonumber(ARGV[2])
local duration = tonumber(ARGV[3])
local block = tonumber(ARGV[4])

local count = 0
local reset_at = 0
local blocked_until = 0

local raw = redis.call('GET', KEYS[1])
if raw then
  local ok, record = pcall(cjson.decode, raw)
  if not ok or type(record) ~= 'table'
      or type(record.count) ~= 'number' or type(record.resetAt) ~= 'number' then
    return {-1, 0, 0, 0}
  end
  count = record.count
  reset_at = record.resetAt
  blocked_until = tonumber(record.blockedUntil) or 0
end

local allowed = 1
if raw and blocked_until > now then
  return {0, count, reset_at, blocked_until}
elseif not raw or reset_at <= now then
  count = 1
  reset_at = now + duration
  blocked_until = 0
else
  count = count + 1
  if count > points then
    blocked_until = now + block
    allowed = 0
  end
end

local record = {count = count, resetAt = reset_at}
if blocked_until > 0 then
  record.blockedUntil = blocked_until
end
local ttl = reset_at - now
if blocked_until - now > ttl then
  ttl = blocked_until - now
end
if ttl < 1 then
  ttl = 1
end
redis.call('SET', KEYS[1], cjson.encode(record), 'PX', ttl)
return {allowed, count, reset_at, blocked_until}
`)

// RedisStore implements the fixed-window counter with cooldown over a
// shared Redis instance, so limits hold across gateway replicas.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	opTimeout time.Duration
}

// NewRedisStore constructs a RedisStore. The prefix namespaces keys per
// deployment and may be empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client:    client,
		prefix:    strings.TrimSpace(prefix),
		opTimeout: defaultOpTimeout,
	}
}

// Take records one request for the identity and decides admission.
func (s *RedisStore) Take(ctx context.Context, identity string, cfg Config, now time.Time) (Result, error) {
	if s == nil || s.client == nil {
		return Result{Allowed: true, Limit: cfg.Points, Remaining: cfg.Points}, nil
	}
	if identity == "" {
		return Result{Allowed: true, Limit: cfg.Points, Remaining: cfg.Points}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	key := RecordKey(s.prefix, identity)
	nowMS := now.UnixMilli()
	reply, errEval := takeScript.Run(ctx, s.client, []string{key},
		nowMS, cfg.Points, cfg.Duration.Milliseconds(), cfg.BlockDuration.Milliseconds()).Result()
	if errEval != nil {
		return Result{}, fmt.Errorf("ratelimit redis: %w", errEval)
	}

	values, okReply := reply.([]interface{})
	if !okReply || len(values) != 4 {
		return Result{}, fmt.Errorf("ratelimit redis: unexpected reply %T", reply)
	}
	allowed, okAllowed := toInt64(values[0])
	count, okCount := toInt64(values[1])
	resetAt, okReset := toInt64(values[2])
	blockedUntil, okBlocked := toInt64(values[3])
	if !okAllowed || !okCount || !okReset || !okBlocked {
		return Result{}, fmt.Errorf("ratelimit redis: unexpected reply values")
	}
	if allowed < 0 {
		return Result{}, ErrCorruptRecord
	}

	result := Result{
		Allowed: allowed == 1,
		Limit:   cfg.Points,
		Reset:   time.UnixMilli(resetAt).UTC(),
	}
	result.Remaining = cfg.Points - int(count)
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	if !result.Allowed && blockedUntil > nowMS {
		result.RetryAfter = time.Duration(blockedUntil-nowMS) * time.Millisecond
	}
	return result, nil
}

// toInt64 normalizes the integer types go-redis may hand back.
func toInt64(v interface{}) (int64, bool) {
	switch typed := v.(type) {
	case int64:
		return typed, true
	case int:
		return int64(typed), true
	case uint64:
		return int64(typed), true
	default:
		return 0, false
	}
}
