package router

import (
	"context"
	"net/http"
	"testing"

	"greencreditapi/pkg/config"
	"greencreditapi/pkg/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartLine struct {
	ProductId string `json:"productId"`
	Cost      int    `json:"cost"`
	Quantity  int    `json:"quantity"`
}

type cartBody struct {
	Lines      []cartLine `json:"lines"`
	Total      int        `json:"total"`
	Redeemable int        `json:"redeemable"`
}

type orderBody struct {
	Order struct {
		Id               string     `json:"id"`
		Cart             []cartLine `json:"cart"`
		DeliveryOption   bool       `json:"deliveryOption"`
		DeliveryLocation string     `json:"deliveryLocation"`
		DeliveryFee      int        `json:"deliveryFee"`
		Total            int        `json:"total"`
		Status           string     `json:"status"`
	} `json:"order"`
	Duplicate bool `json:"duplicate"`
}

func TestProducts(t *testing.T) {

	env := newTestEnv(t)
	userToken := env.user("u1", false)
	adminToken := env.user("admin", true)
	product := map[string]any{"name": "Bamboo bottle", "description": "Reusable", "cost": 30}

	assert.Equal(t, http.StatusForbidden, env.do("POST", "/admin/products", userToken, product, nil))
	assert.Equal(t, http.StatusBadRequest, env.do("POST", "/admin/products", adminToken, map[string]any{"name": "Free", "cost": 0}, nil))

	var created schemas.Product
	require.Equal(t, http.StatusCreated, env.do("POST", "/admin/products", adminToken, product, &created))
	assert.NotEmpty(t, created.Id)

	// the catalog is public
	var products []schemas.Product
	require.Equal(t, http.StatusOK, env.do("GET", "/products", "", nil, &products))
	require.Len(t, products, 1)
	assert.Equal(t, 30, products[0].Cost)

}

func TestCheckout(t *testing.T) {

	env := newTestEnv(t)
	token := env.user("u1", false)
	env.credit("u1", 100)

	bottle := &schemas.Product{Name: "Bamboo bottle", Cost: 30}
	require.NoError(t, env.st.InsertProduct(context.Background(), bottle))

	t.Run("cart respects the balance", func(t *testing.T) {
		var c cartBody
		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusOK, env.do("POST", "/cart/items", token, map[string]string{"productId": bottle.Id}, &c))
		}
		assert.Equal(t, 90, c.Total)
		assert.Equal(t, 100, c.Redeemable)
		require.Len(t, c.Lines, 1)
		assert.Equal(t, 3, c.Lines[0].Quantity)

		var flags map[string]bool
		code := env.do("POST", "/cart/items", token, map[string]string{"productId": bottle.Id}, &flags)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.True(t, flags["insufficientBalance"])

		assert.Equal(t, http.StatusNotFound, env.do("POST", "/cart/items", token, map[string]string{"productId": "missing"}, nil))
	})

	t.Run("update and remove lines", func(t *testing.T) {
		var c cartBody
		require.Equal(t, http.StatusOK, env.do("PATCH", "/cart/items/"+bottle.Id, token, map[string]string{"action": "decrease"}, &c))
		assert.Equal(t, 60, c.Total)
		require.Equal(t, http.StatusOK, env.do("PATCH", "/cart/items/"+bottle.Id, token, map[string]int{"quantity": 3}, &c))
		assert.Equal(t, 90, c.Total)
		assert.Equal(t, http.StatusBadRequest, env.do("PATCH", "/cart/items/"+bottle.Id, token, map[string]int{"quantity": 4}, nil))
		assert.Equal(t, http.StatusBadRequest, env.do("PATCH", "/cart/items/"+bottle.Id, token, map[string]string{}, nil))
		assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/cart/items/other", token, nil, nil))
	})

	t.Run("delivery needs an address", func(t *testing.T) {
		var res struct {
			AddressRequired bool   `json:"addressRequired"`
			Message         string `json:"message"`
		}
		code := env.do("POST", "/checkout", token, map[string]any{"deliveryOption": true}, &res)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.True(t, res.AddressRequired)
		assert.NotEmpty(t, res.Message)
	})

	t.Run("fee counts against the balance", func(t *testing.T) {
		// 120 + 10 > 120
		require.Equal(t, http.StatusOK, env.do("PATCH", "/cart/items/"+bottle.Id, token, map[string]string{"action": "decrease"}, nil))
		env.credit("u1", 20)
		require.Equal(t, http.StatusOK, env.do("PATCH", "/cart/items/"+bottle.Id, token, map[string]int{"quantity": 4}, nil))

		var flags map[string]bool
		code := env.do("POST", "/checkout", token, map[string]any{"deliveryOption": true, "address": "2 Elm Road"}, &flags)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.True(t, flags["insufficientBalance"])

		require.Equal(t, http.StatusOK, env.do("PATCH", "/cart/items/"+bottle.Id, token, map[string]int{"quantity": 3}, nil))
	})

	var placed orderBody
	t.Run("places the order once", func(t *testing.T) {
		body := map[string]any{"deliveryOption": true, "lat": 6.9271, "lon": 79.8612}
		code := env.do("POST", "/checkout", token, body, &placed, withHeader("Idempotency-Key", "order-1"))
		require.Equal(t, http.StatusCreated, code)
		assert.False(t, placed.Duplicate)
		assert.Equal(t, 90+config.DELIVERY_FEE, placed.Order.Total)
		assert.Equal(t, config.DELIVERY_FEE, placed.Order.DeliveryFee)
		assert.Equal(t, "1 Green Street", placed.Order.DeliveryLocation)
		assert.Equal(t, schemas.ORDER_STATUS_PLACED, placed.Order.Status)
		require.Len(t, placed.Order.Cart, 1)
		assert.Equal(t, 3, placed.Order.Cart[0].Quantity)

		var replay orderBody
		code = env.do("POST", "/checkout", token, body, &replay, withHeader("Idempotency-Key", "order-1"))
		require.Equal(t, http.StatusOK, code)
		assert.True(t, replay.Duplicate)
		assert.Equal(t, placed.Order.Id, replay.Order.Id)

		entries, err := env.st.ListLedger(context.Background(), "u1")
		require.NoError(t, err)
		debits := 0
		for _, e := range entries {
			if e.Type == schemas.LEDGER_DEBIT {
				debits++
				assert.Equal(t, -placed.Order.Total, e.Amount)
				assert.Equal(t, "order:"+placed.Order.Id, e.Source)
			}
		}
		assert.Equal(t, 1, debits)

		queued, err := env.mr.List(config.NOTIFY_QUEUE)
		require.NoError(t, err)
		assert.Len(t, queued, 1)
	})

	t.Run("cart is cleared and balance spent", func(t *testing.T) {
		var c cartBody
		require.Equal(t, http.StatusOK, env.do("GET", "/cart", token, nil, &c))
		assert.Empty(t, c.Lines)
		assert.Zero(t, c.Total)
		assert.Equal(t, 20, c.Redeemable)

		var flags map[string]bool
		code := env.do("POST", "/checkout", token, map[string]any{}, &flags)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.True(t, flags["emptyCart"])

		var rewards rewardsRes
		require.Equal(t, http.StatusOK, env.do("GET", "/rewards", token, nil, &rewards))
		assert.Equal(t, 100, rewards.Balance.Spent)
		assert.Equal(t, 20, rewards.Balance.Redeemable)
	})

	t.Run("order history", func(t *testing.T) {
		var orders []struct {
			Id    string `json:"id"`
			Total int    `json:"total"`
		}
		require.Equal(t, http.StatusOK, env.do("GET", "/orders", token, nil, &orders))
		require.Len(t, orders, 1)
		assert.Equal(t, placed.Order.Id, orders[0].Id)
	})

}

func TestCheckoutBusyCart(t *testing.T) {

	env := newTestEnv(t)
	token := env.user("u1", false)
	env.credit("u1", 100)

	bottle := &schemas.Product{Name: "Bamboo bottle", Cost: 30}
	require.NoError(t, env.st.InsertProduct(context.Background(), bottle))

	// another request holds the cart
	require.NoError(t, env.mr.Set("lock:cart:u1", "someone-else"))

	var flags map[string]bool
	code := env.do("POST", "/cart/items", token, map[string]string{"productId": bottle.Id}, &flags)
	assert.Equal(t, http.StatusConflict, code)
	assert.True(t, flags["cartBusy"])

	code = env.do("POST", "/checkout", token, map[string]any{}, &flags)
	assert.Equal(t, http.StatusConflict, code)
	assert.True(t, flags["cartBusy"])

}
