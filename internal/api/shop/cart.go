package shop

import (
	"errors"
	"net/http"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/cart"
	"greencreditapi/pkg/rewards"
	"greencreditapi/pkg/store"
	"greencreditapi/pkg/utils"

	"github.com/go-chi/chi/v5"
)

type cartRes struct {
	*cart.Cart
	Total      int `json:"total"`
	Redeemable int `json:"redeemable"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	c, err := cart.Load(h.RedisCli, ctx, session.Uid)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	balance, err := rewards.Balance(ctx, h.Store, session.Uid)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &cartRes{Cart: c, Total: c.Total(), Redeemable: balance.Redeemable}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		ProductId string `json:"productId" validate:"required"`
	}

	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	resParams.ReqData = reqData

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	product, err := h.Store.GetProduct(ctx, reqData.ProductId)
	if errors.Is(err, store.ErrNotFound) {
		resParams.ResData = api.Flag("productNotFound")
		resParams.Code = http.StatusNotFound
		resParams.Err = err
		h.Res(resParams)
		return
	} else if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	h.mutate(resParams, func(c *cart.Cart, balance int) error {
		return c.AddItem(product, balance)
	})

}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	resParams := &api.ResParams{W: w, R: r}
	productId := chi.URLParam(r, "productId")

	var reqData struct {
		Action   string `json:"action" validate:"required_without=Quantity,omitempty,oneof=increase decrease"`
		Quantity *int   `json:"quantity" validate:"required_without=Action,omitempty,min=0,max=1000"`
	}

	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	resParams.ReqData = reqData

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	h.mutate(resParams, func(c *cart.Cart, balance int) error {
		switch {
		case reqData.Quantity != nil:
			return c.SetQuantity(productId, *reqData.Quantity, balance)
		case reqData.Action == "increase":
			return c.Increase(productId, balance)
		default:
			return c.Decrease(productId)
		}
	})

}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {

	resParams := &api.ResParams{W: w, R: r}
	productId := chi.URLParam(r, "productId")

	h.mutate(resParams, func(c *cart.Cart, balance int) error {
		return c.Remove(productId)
	})

}

// mutate applies fn to the caller's cart under the cart lock and saves it.
func (h *Handler) mutate(resParams *api.ResParams, fn func(c *cart.Cart, balance int) error) {

	ctx := resParams.R.Context()
	session, _ := api.SessionFrom(ctx)

	owner, ok := h.lockCart(resParams, session.Uid)
	if !ok {
		return
	}
	defer utils.UnlockKeys(h.RedisCli, owner)

	c, err := cart.Load(h.RedisCli, ctx, session.Uid)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	balance, err := rewards.Balance(ctx, h.Store, session.Uid)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if err := fn(c, balance.Redeemable); err != nil {
		switch {
		case errors.Is(err, cart.ErrInsufficientBalance):
			resParams.ResData = api.Flag("insufficientBalance")
			resParams.Code = http.StatusBadRequest
		case errors.Is(err, cart.ErrNotInCart):
			resParams.ResData = api.Flag("notInCart")
			resParams.Code = http.StatusNotFound
		case errors.Is(err, cart.ErrCartFull):
			resParams.ResData = api.Flag("cartFull")
			resParams.Code = http.StatusBadRequest
		default:
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if err := cart.Save(h.RedisCli, ctx, session.Uid, c); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &cartRes{Cart: c, Total: c.Total(), Redeemable: balance.Redeemable}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
