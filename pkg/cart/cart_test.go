package cart

import (
	"context"
	"testing"

	"greencreditapi/pkg/config"
	"greencreditapi/pkg/schemas"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id string, cost int) *schemas.Product {
	return &schemas.Product{Id: id, Name: "item " + id, Cost: cost}
}

func TestAddItem(t *testing.T) {

	t.Run("balance scenario", func(t *testing.T) {
		c := &Cart{}
		balance := 70

		assert.ErrorIs(t, c.AddItem(product("p80", 80), balance), ErrInsufficientBalance)
		assert.True(t, c.Empty())

		require.NoError(t, c.AddItem(product("p70", 70), balance))
		assert.Equal(t, 70, c.Total())

		assert.ErrorIs(t, c.AddItem(product("p1", 1), balance), ErrInsufficientBalance)
		assert.ErrorIs(t, c.AddItem(product("p70", 70), balance), ErrInsufficientBalance)
		assert.Equal(t, 70, c.Total())
	})

	t.Run("increments existing line", func(t *testing.T) {
		c := &Cart{}
		require.NoError(t, c.AddItem(product("a", 10), 100))
		require.NoError(t, c.AddItem(product("a", 10), 100))
		require.Len(t, c.Lines, 1)
		assert.Equal(t, 2, c.Lines[0].Quantity)
		assert.Equal(t, 20, c.Total())
	})

	t.Run("running total never exceeds balance", func(t *testing.T) {
		c := &Cart{}
		balance := 95
		for i := 0; i < 20; i++ {
			_ = c.AddItem(product("a", 10), balance)
			_ = c.AddItem(product("b", 7), balance)
			assert.LessOrEqual(t, c.Total(), balance)
		}
	})

	t.Run("line limit", func(t *testing.T) {
		c := &Cart{}
		for i := 0; i < config.MAX_CART_LINES; i++ {
			require.NoError(t, c.AddItem(product(string(rune('A'+i)), 1), 1000))
		}
		assert.ErrorIs(t, c.AddItem(product("overflow", 1), 1000), ErrCartFull)
	})

}

func TestQuantity(t *testing.T) {

	c := &Cart{}
	require.NoError(t, c.AddItem(product("a", 10), 100))

	require.NoError(t, c.Increase("a", 100))
	assert.Equal(t, 2, c.Lines[0].Quantity)

	assert.ErrorIs(t, c.Increase("a", 25), ErrInsufficientBalance)
	assert.Equal(t, 2, c.Lines[0].Quantity)

	require.NoError(t, c.Decrease("a"))
	require.NoError(t, c.Decrease("a"))
	assert.Equal(t, 1, c.Lines[0].Quantity, "quantity floors at 1")

	assert.ErrorIs(t, c.SetQuantity("a", 20, 100), ErrInsufficientBalance)
	require.NoError(t, c.SetQuantity("a", 10, 100))
	assert.Equal(t, 100, c.Total())

	require.NoError(t, c.SetQuantity("a", 0, 100))
	assert.True(t, c.Empty())

	assert.ErrorIs(t, c.Decrease("a"), ErrNotInCart)
	assert.ErrorIs(t, c.Remove("a"), ErrNotInCart)

}

func TestRedisPersistence(t *testing.T) {

	mr := miniredis.RunT(t)
	redisCli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	c, err := Load(redisCli, ctx, "u1")
	require.NoError(t, err)
	assert.True(t, c.Empty())

	require.NoError(t, c.AddItem(product("a", 10), 100))
	require.NoError(t, Save(redisCli, ctx, "u1", c))
	assert.True(t, mr.Exists("cart:u1"))
	assert.Greater(t, mr.TTL("cart:u1"), 0*config.CART_TTL)

	loaded, err := Load(redisCli, ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, c.Lines, loaded.Lines)

	// saving an empty cart removes the key
	require.NoError(t, loaded.Remove("a"))
	require.NoError(t, Save(redisCli, ctx, "u1", loaded))
	assert.False(t, mr.Exists("cart:u1"))

}
