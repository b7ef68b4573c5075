package leaderboard

import (
	"net/http"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/ledger"
	"greencreditapi/pkg/rewards"

	"go.uber.org/zap"
)

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {

	resParams := &api.ResParams{W: w, R: r}

	standings, err := rewards.Leaderboard(r.Context(), h.Store, h.RedisCli)
	if err != nil {
		// display only, serve an empty board
		h.Logger.Warn("couldn't compute leaderboard", zap.Error(err))
		standings = []ledger.Standing{}
	}

	resParams.ResData = standings
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

// GetMyStanding returns the caller's row of the live leaderboard.
func (h *Handler) GetMyStanding(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	standings, err := rewards.Leaderboard(ctx, h.Store, h.RedisCli)
	if err != nil {
		h.Logger.Warn("couldn't compute leaderboard", zap.Error(err))
		standings = nil
	}

	mine := &ledger.Standing{UserId: session.Uid, Tier: ledger.TierFor(0), Dir: 1}
	for i := range standings {
		if standings[i].UserId == session.Uid {
			mine = &standings[i]
			break
		}
	}

	resParams.ResData = mine
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
