package user

import (
	"net/http"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/ledger"
	"greencreditapi/pkg/rewards"

	"go.uber.org/zap"
)

// GetRewards returns the caller's reward history and balance.
func (h *Handler) GetRewards(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	summary, err := rewards.Summarize(ctx, h.Store, session.Uid)
	if err != nil {
		h.Logger.Warn("couldn't summarize rewards", zap.String("uid", session.Uid), zap.Error(err))
		summary = ledger.Summary{History: []ledger.Reward{}}
	}
	balance, err := rewards.Balance(ctx, h.Store, session.Uid)
	if err != nil {
		h.Logger.Warn("couldn't fold ledger", zap.String("uid", session.Uid), zap.Error(err))
		balance = ledger.Balance{}
	}

	resParams.ResData = &struct {
		ledger.Summary
		Balance ledger.Balance `json:"balance"`
	}{
		Summary: summary,
		Balance: balance,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
