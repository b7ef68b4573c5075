package cart

import (
	"context"
	"encoding/json"
	"errors"

	"greencreditapi/pkg/config"
	"greencreditapi/pkg/schemas"

	"github.com/redis/go-redis/v9"
)

func key(uid string) string {
	return "cart:" + uid
}

// Load returns the stored cart for uid, or an empty cart.
func Load(redisCli *redis.Client, ctx context.Context, uid string) (*Cart, error) {

	data, err := redisCli.Get(ctx, key(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{Lines: []schemas.OrderLine{}}, nil
	} else if err != nil {
		return nil, err
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Lines == nil {
		c.Lines = []schemas.OrderLine{}
	}

	return &c, nil

}

func Save(redisCli *redis.Client, ctx context.Context, uid string, c *Cart) error {

	if c.Empty() {
		return Clear(redisCli, ctx, uid)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	return redisCli.Set(ctx, key(uid), data, config.CART_TTL).Err()

}

func Clear(redisCli *redis.Client, ctx context.Context, uid string) error {
	return redisCli.Del(ctx, key(uid)).Err()
}
