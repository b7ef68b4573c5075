package user

import (
	"errors"
	"net/http"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/rewards"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"

	"go.uber.org/zap"
)

func (h *Handler) GetUserData(w http.ResponseWriter, r *http.Request) {

	resParams := &api.ResParams{W: w, R: r}
	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)

	user, err := h.Store.GetUser(ctx, session.Uid)
	if errors.Is(err, store.ErrNotFound) {
		resParams.Err = err
		resParams.Code = http.StatusNotFound
		h.Res(resParams)
		return
	} else if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}

	// refresh token if expiring soon, carrying the current role
	var token string
	if session.Token != nil {
		session.Token.Admin = user.IsAdmin()
		session.Token.Refresh()
		signed, err := session.Token.Sign()
		if err != nil {
			resParams.Err = err
			resParams.Code = http.StatusInternalServerError
			h.Res(resParams)
			return
		}
		token = signed
	}

	// totals are display only, degrade to zero
	summary, err := rewards.Summarize(ctx, h.Store, user.Id)
	if err != nil {
		h.Logger.Warn("couldn't summarize rewards", zap.String("uid", user.Id), zap.Error(err))
	}
	balance, err := rewards.Balance(ctx, h.Store, user.Id)
	if err != nil {
		h.Logger.Warn("couldn't fold ledger", zap.String("uid", user.Id), zap.Error(err))
	}

	resParams.ResData = &struct {
		Token      string        `json:"token,omitempty"`
		User       *schemas.User `json:"user"`
		Earned     int           `json:"earned"`
		Redeemable int           `json:"redeemable"`
	}{
		Token:      token,
		User:       user,
		Earned:     summary.Total,
		Redeemable: balance.Redeemable,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
