package submission

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/config"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"
	"greencreditapi/pkg/utils"

	"go.uber.org/zap"
)

func (h *Handler) CreateTree(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	session, _ := api.SessionFrom(r.Context())
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		BeforeUrl string `json:"beforeUrl" validate:"required,url"`
		AfterUrl  string `json:"afterUrl" validate:"required,url"`
		Location  string `json:"location" validate:"maxgraphemes=256"`
	}

	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	resParams.ReqData = reqData

	// normalize
	reqData.BeforeUrl = strings.TrimSpace(reqData.BeforeUrl)
	reqData.AfterUrl = strings.TrimSpace(reqData.AfterUrl)
	reqData.Location = strings.TrimSpace(reqData.Location)

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	h.insert(resParams, &schemas.Submission{
		Kind:      schemas.KIND_TREE,
		UserId:    session.Uid,
		BeforeUrl: reqData.BeforeUrl,
		AfterUrl:  reqData.AfterUrl,
		Location:  reqData.Location,
	})

}

func (h *Handler) CreateCleanup(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	session, _ := api.SessionFrom(r.Context())
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		ImageUrl string `json:"imageUrl" validate:"required,url"`
		Location string `json:"location" validate:"maxgraphemes=256"`
		EventId  string `json:"eventId" validate:"max=64"`
	}

	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	resParams.ReqData = reqData

	// normalize
	reqData.ImageUrl = strings.TrimSpace(reqData.ImageUrl)
	reqData.Location = strings.TrimSpace(reqData.Location)
	reqData.EventId = strings.TrimSpace(reqData.EventId)

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// proofs for an event come from its registered participants
	if reqData.EventId != "" && !h.checkRegistered(resParams, reqData.EventId, session.Uid) {
		return
	}

	h.insert(resParams, &schemas.Submission{
		Kind:     schemas.KIND_CLEANUP,
		UserId:   session.Uid,
		ImageUrl: reqData.ImageUrl,
		Location: reqData.Location,
		EventId:  reqData.EventId,
	})

}

func (h *Handler) checkRegistered(resParams *api.ResParams, eventId string, uid string) bool {

	ctx := resParams.R.Context()

	_, err := h.Store.GetCleanupEvent(ctx, eventId)
	if errors.Is(err, store.ErrNotFound) {
		resParams.ResData = api.Flag("eventNotFound")
		resParams.Code = http.StatusNotFound
		resParams.Err = err
		h.Res(resParams)
		return false
	} else if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return false
	}

	_, err = h.Store.GetEventRegistration(ctx, eventId, uid)
	if errors.Is(err, store.ErrNotFound) {
		resParams.ResData = api.Flag("notRegistered")
		resParams.Code = http.StatusForbidden
		resParams.Err = err
		h.Res(resParams)
		return false
	} else if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return false
	}

	return true

}

// insert stores sub as pending and responds with it. A retried request with
// the same Idempotency-Key gets the first submission back, unless that
// submission has since been deleted.
func (h *Handler) insert(resParams *api.ResParams, sub *schemas.Submission) {

	ctx := resParams.R.Context()
	scope := "submission:" + sub.UserId + ":" + string(sub.Kind)
	key := strings.TrimSpace(resParams.R.Header.Get("Idempotency-Key"))

	if key != "" {
		prev, ok := h.claim(resParams, scope, key)
		if !ok {
			return
		}
		if prev != "" {
			existing, err := h.Store.GetSubmission(ctx, sub.Kind, prev)
			if err == nil {
				resParams.ResData = existing
				resParams.Code = http.StatusOK
				h.Res(resParams)
				return
			} else if !errors.Is(err, store.ErrNotFound) {
				resParams.Code = http.StatusInternalServerError
				resParams.Err = err
				h.Res(resParams)
				return
			}

			// the first submission was deleted, start the key over
			if err := utils.ForgetIdempotencyKey(h.RedisCli, scope, key, prev); err != nil {
				resParams.Code = http.StatusInternalServerError
				resParams.Err = err
				h.Res(resParams)
				return
			}
			if prev, ok = h.claim(resParams, scope, key); !ok {
				return
			} else if prev != "" {
				resParams.ResData = api.Flag("inFlight")
				resParams.Code = http.StatusConflict
				h.Res(resParams)
				return
			}
		}
	}

	sub.Status = schemas.STATUS_PENDING
	sub.Ctime = time.Now().UTC()

	if err := h.Store.InsertSubmission(ctx, sub); err != nil {
		if key != "" {
			utils.ReleaseIdempotencyKey(h.RedisCli, scope, key)
		}
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if key != "" {
		if err := utils.CompleteIdempotencyKey(h.RedisCli, scope, key, sub.Id, config.IDEMPOTENCY_TTL); err != nil {
			h.Logger.Warn("couldn't complete idempotency key", zap.String("submission", sub.Source()), zap.Error(err))
		}
	}

	resParams.ResData = sub
	resParams.Code = http.StatusCreated
	h.Res(resParams)

}

// claim reserves key and returns the stored submission id of a completed
// request. It responds itself and returns false when the key can't be used.
func (h *Handler) claim(resParams *api.ResParams, scope string, key string) (string, bool) {

	prev, err := utils.ClaimIdempotencyKey(h.RedisCli, resParams.R.Context(), scope, key, config.IDEMPOTENCY_CLAIM)
	if errors.Is(err, utils.ErrIdempotencyInFlight) {
		resParams.ResData = api.Flag("inFlight")
		resParams.Code = http.StatusConflict
		resParams.Err = err
		h.Res(resParams)
		return "", false
	} else if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return "", false
	}

	return prev, true

}
