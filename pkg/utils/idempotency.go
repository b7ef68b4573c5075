package utils

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrIdempotencyInFlight = errors.New("request with this idempotency key is still in flight")

const inFlight = "-"

// deletes KEYS[1] only while it still holds ARGV[1]
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		redis.call("DEL", KEYS[1])
		return 1
	end
	return 0
`)

func idempotencyKey(scope string, key string) string {
	return "idem:" + scope + ":" + key
}

// ClaimIdempotencyKey reserves key within scope for claimTtl. It returns ""
// when the caller now owns the key, the stored result when an earlier request
// completed, or ErrIdempotencyInFlight while another request holds it. A claim
// that is never completed lapses after claimTtl.
func ClaimIdempotencyKey(redisCli *redis.Client, ctx context.Context, scope string, key string, claimTtl time.Duration) (string, error) {

	k := idempotencyKey(scope, key)
	ok, err := redisCli.SetNX(ctx, k, inFlight, claimTtl).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return "", nil
	}

	prev, err := redisCli.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) { // expired between calls, try once more
		return ClaimIdempotencyKey(redisCli, ctx, scope, key, claimTtl)
	} else if err != nil {
		return "", err
	}
	if prev == inFlight {
		return "", ErrIdempotencyInFlight
	}

	return prev, nil

}

// CompleteIdempotencyKey stores the result for a claimed key and keeps it for
// ttl. It runs on its own context so a disconnected client can't leave the
// claim unfinished.
func CompleteIdempotencyKey(redisCli *redis.Client, scope string, key string, result string, ttl time.Duration) error {

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return redisCli.Set(ctx, idempotencyKey(scope, key), result, ttl).Err()

}

// ReleaseIdempotencyKey drops a claim that never completed so the client may
// retry.
func ReleaseIdempotencyKey(redisCli *redis.Client, scope string, key string) error {
	return ForgetIdempotencyKey(redisCli, scope, key, inFlight)
}

// ForgetIdempotencyKey drops a completed key whose stored result is result,
// for when the result no longer exists.
func ForgetIdempotencyKey(redisCli *redis.Client, scope string, key string, result string) error {

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return releaseScript.Run(ctx, redisCli, []string{idempotencyKey(scope, key)}, result).Err()

}
