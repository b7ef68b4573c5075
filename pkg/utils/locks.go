package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var lockScript = redis.NewScript(`
local owner  = ARGV[1]
local ttl_ms = tonumber(ARGV[2])
local setkey = "lockset:" .. owner

-- 1) collect conflicts (keys owned by someone else)
local offenders = {}
for _, id in ipairs(KEYS) do
	local k = "lock:" .. id
	local cur = redis.call("GET", k)
	if cur and cur ~= owner then
		offenders[#offenders+1] = id
	end
end
if #offenders > 0 then
	return offenders
end

-- 2) acquire/refresh locks for this owner
for _, id in ipairs(KEYS) do
	redis.call("SET", "lock:" .. id, owner, "PX", ttl_ms)
end

-- 3) remember the keys for unlock
if #KEYS > 0 then
	redis.call("SADD", setkey, unpack(KEYS))
end
redis.call("PEXPIRE", setkey, ttl_ms)

return {}
`)

var unlockScript = redis.NewScript(`
local owner  = ARGV[1]
local setkey = "lockset:" .. owner

local ids = redis.call("SMEMBERS", setkey)
local n = 0
for _, id in ipairs(ids) do
	local k = "lock:" .. id
	if redis.call("GET", k) == owner then
		redis.call("DEL", k)
		n = n + 1
	end
end
redis.call("DEL", setkey)
return n
`)

// LockKeys takes every key for owner or none of them. It returns the keys
// held by another owner.
func LockKeys(redisCli *redis.Client, ctx context.Context, keys []string, owner string, ttl time.Duration) ([]string, error) {

	res, err := lockScript.Run(ctx, redisCli, keys, owner, ttl.Milliseconds()).Result()
	if err != nil {
		return nil, err
	}

	raw, _ := res.([]any)
	failed := make([]string, len(raw))
	for i, v := range raw {
		failed[i], _ = v.(string)
	}
	return failed, nil

}

// UnlockKeys releases every key still held by owner. It runs on its own
// context so it completes after the request is canceled.
func UnlockKeys(redisCli *redis.Client, owner string) (int64, error) {

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := unlockScript.Run(ctx, redisCli, []string{}, owner).Result()
	if err != nil {
		return 0, err
	}
	n, _ := res.(int64)
	return n, nil

}
