package admin

import (
	"errors"
	"net/http"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/config"
	"greencreditapi/pkg/notify"
	"greencreditapi/pkg/rewards"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"
	"greencreditapi/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	kind, ok := schemas.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		resParams.ResData = api.Flag("invalidKind")
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}
	id := chi.URLParam(r, "id")

	var reqData struct {
		Status string `json:"status" validate:"required,oneof=approved rejected"`
		Tokens *int   `json:"tokens" validate:"omitempty,min=0"`
		Rating *int   `json:"rating" validate:"omitempty,min=1,max=10"`
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

	// one reviewer per submission at a time
	owner := uuid.NewString()
	failed, err := utils.LockKeys(h.RedisCli, ctx, []string{"review:" + string(kind) + ":" + id}, owner, config.REVIEW_LOCK_TTL)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	if len(failed) > 0 {
		resParams.ResData = api.Flag("reviewInProgress")
		resParams.Code = http.StatusConflict
		h.Res(resParams)
		return
	}
	defer utils.UnlockKeys(h.RedisCli, owner)

	sub, err := h.Store.GetSubmission(ctx, kind, id)
	if errors.Is(err, store.ErrNotFound) {
		resParams.ResData = api.Flag("notFound")
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

	review := store.Review{Status: reqData.Status, ReviewedBy: session.Uid}
	if reqData.Status == schemas.STATUS_APPROVED {
		var eventReward *int
		if sub.Kind == schemas.KIND_CLEANUP && sub.EventId != "" && reqData.Tokens == nil {
			event, err := h.Store.GetCleanupEvent(ctx, sub.EventId)
			if err == nil {
				eventReward = &event.RewardTokens
			} else if !errors.Is(err, store.ErrNotFound) {
				resParams.Code = http.StatusInternalServerError
				resParams.Err = err
				h.Res(resParams)
				return
			}
		}

		tokens, flag := awardFor(sub, reqData.Tokens, reqData.Rating, eventReward)
		if flag != "" {
			resParams.ResData = api.Flag(flag)
			resParams.Code = http.StatusBadRequest
			h.Res(resParams)
			return
		}
		review.Tokens = &tokens
		if kind == schemas.KIND_TREE {
			review.Rating = reqData.Rating
		}
	}

	_, after, err := h.Store.ReviewSubmission(ctx, kind, id, review)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if kind == schemas.KIND_SOLAR {
		if err := h.applySolar(r, after); err != nil {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
	}

	// reviewing again with the same decision repairs a ledger write that
	// failed here
	entry, err := rewards.Settle(ctx, h.Store, after.UserId, after.Source(), after.Award())
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if user, err := h.Store.GetUser(ctx, after.UserId); err == nil {
		if err := notify.Enqueue(h.RedisCli, ctx, notify.ReviewResult(user.Email, after)); err != nil {
			h.Logger.Warn("couldn't enqueue review notification", zap.String("submission", after.Source()), zap.Error(err))
		}
	}

	resParams.ResData = &struct {
		Submission  *schemas.Submission  `json:"submission"`
		LedgerEntry *schemas.LedgerEntry `json:"ledgerEntry,omitempty"`
	}{
		Submission:  after,
		LedgerEntry: entry,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

// awardFor picks the approval award for sub. eventReward is the reward of the
// cleanup event sub was filed for, if any. It returns a response flag when the
// request lacks what the kind needs.
func awardFor(sub *schemas.Submission, tokens *int, rating *int, eventReward *int) (int, string) {

	if tokens != nil {
		return *tokens, ""
	}

	switch sub.Kind {
	case schemas.KIND_TREE:
		if rating == nil {
			rating = sub.Rating
		}
		if rating == nil {
			return 0, "ratingRequired"
		}
		return *rating * config.TREE_RATING_MULTIPLIER, ""
	case schemas.KIND_CLEANUP:
		if eventReward != nil {
			return *eventReward, ""
		}
	case schemas.KIND_SOLAR:
		return config.SOLAR_DEFAULT_REWARD, ""
	}

	return 0, "tokensRequired"

}

// applySolar keeps the solar reward and the linked request in step with the
// installation review.
func (h *Handler) applySolar(r *http.Request, sub *schemas.Submission) error {

	ctx := r.Context()

	if sub.Status == schemas.STATUS_APPROVED {
		reward := &schemas.SolarReward{
			Id:           sub.Id,
			UserId:       sub.UserId,
			RewardTokens: sub.Award(),
			Type:         schemas.SOLAR_REWARD_TYPE,
			Ctime:        time.Now().UTC(),
		}
		if err := h.Store.UpsertSolarReward(ctx, reward); err != nil {
			return err
		}
		return h.ignoreMissing(h.Store.SetSolarRequestStatus(ctx, sub.RequestId, schemas.SOLAR_REQUEST_COMPLETED))
	}

	if err := h.Store.DeleteSolarReward(ctx, sub.Id); err != nil {
		return err
	}
	// the installer may submit a new proof
	return h.ignoreMissing(h.Store.SetSolarRequestStatus(ctx, sub.RequestId, schemas.SOLAR_REQUEST_IN_PROGRESS))

}

func (h *Handler) ignoreMissing(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		h.Logger.Warn("solar installation references a missing request", zap.Error(err))
		return nil
	}
	return err
}
