package shop

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/cart"
	"greencreditapi/pkg/config"
	"greencreditapi/pkg/ledger"
	"greencreditapi/pkg/notify"
	"greencreditapi/pkg/rewards"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"
	"greencreditapi/pkg/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type checkoutRes struct {
	Order     *schemas.Order `json:"order"`
	Duplicate bool           `json:"duplicate,omitempty"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		DeliveryOption bool     `json:"deliveryOption"`
		Address        string   `json:"address" validate:"maxgraphemes=512"`
		Lat            *float64 `json:"lat" validate:"omitempty,latitude"`
		Lon            *float64 `json:"lon" validate:"omitempty,longitude"`
		IdempotencyKey string   `json:"idempotencyKey" validate:"max=128"`
	}

	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// normalize
	reqData.Address = strings.TrimSpace(reqData.Address)
	if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" {
		reqData.IdempotencyKey = key
	}
	reqData.IdempotencyKey = strings.TrimSpace(reqData.IdempotencyKey)
	resParams.ReqData = reqData

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// replayed request
	if reqData.IdempotencyKey != "" {
		prev, err := h.Store.GetOrderByIdempotencyKey(ctx, session.Uid, reqData.IdempotencyKey)
		if err == nil {
			resParams.ResData = &checkoutRes{Order: prev, Duplicate: true}
			resParams.Code = http.StatusOK
			h.Res(resParams)
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
	} else {
		reqData.IdempotencyKey = uuid.NewString()
	}

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
	if c.Empty() {
		resParams.ResData = api.Flag("emptyCart")
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}

	// delivery needs somewhere to go
	fee := 0
	location := ""
	if reqData.DeliveryOption {
		fee = config.DELIVERY_FEE
		location = reqData.Address
		if location == "" {
			if reqData.Lat == nil || reqData.Lon == nil {
				resParams.ResData = &struct {
					AddressRequired bool   `json:"addressRequired"`
					Message         string `json:"message"`
				}{
					AddressRequired: true,
					Message:         "a delivery address is required",
				}
				resParams.Code = http.StatusBadRequest
				h.Res(resParams)
				return
			}
			location = h.Geocoder.Address(ctx, *reqData.Lat, *reqData.Lon)
		}
	}

	total := c.Total() + fee
	balance, err := rewards.Balance(ctx, h.Store, session.Uid)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	if total > balance.Redeemable {
		resParams.ResData = api.Flag("insufficientBalance")
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}

	order := &schemas.Order{
		Id:               bson.NewObjectID().Hex(),
		UserId:           session.Uid,
		Cart:             c.Lines,
		DeliveryOption:   reqData.DeliveryOption,
		DeliveryLocation: location,
		DeliveryFee:      fee,
		Total:            total,
		Status:           schemas.ORDER_STATUS_PLACED,
		IdempotencyKey:   reqData.IdempotencyKey,
		Ctime:            time.Now().UTC(),
	}

	// balance is checked again inside the transaction
	err = h.Store.PlaceOrder(ctx, order, ledger.Debit(order))
	switch {
	case errors.Is(err, store.ErrInsufficientBalance):
		resParams.ResData = api.Flag("insufficientBalance")
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	case errors.Is(err, store.ErrDuplicateOrder):
		prev, err := h.Store.GetOrderByIdempotencyKey(ctx, session.Uid, reqData.IdempotencyKey)
		if err != nil {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
		resParams.ResData = &checkoutRes{Order: prev, Duplicate: true}
		resParams.Code = http.StatusOK
		h.Res(resParams)
		return
	case err != nil:
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// the order is placed, everything after is best effort
	if err := cart.Clear(h.RedisCli, ctx, session.Uid); err != nil {
		h.Logger.Warn("couldn't clear cart", zap.String("uid", session.Uid), zap.Error(err))
	}
	if user, err := h.Store.GetUser(ctx, session.Uid); err == nil {
		if err := notify.Enqueue(h.RedisCli, ctx, notify.OrderConfirmation(user.Email, order)); err != nil {
			h.Logger.Warn("couldn't enqueue order confirmation", zap.String("order", order.Id), zap.Error(err))
		}
	}

	resParams.ResData = &checkoutRes{Order: order}
	resParams.Code = http.StatusCreated
	h.Res(resParams)

}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	orders, err := h.Store.ListOrders(ctx, session.Uid)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = orders
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
