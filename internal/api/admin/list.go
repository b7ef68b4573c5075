package admin

import (
	"errors"
	"net/http"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/rewards"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	kind, ok := schemas.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		resParams.ResData = api.Flag("invalidKind")
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}

	status := r.URL.Query().Get("status")
	switch status {
	case "", schemas.STATUS_PENDING, schemas.STATUS_APPROVED, schemas.STATUS_REJECTED:
	default:
		resParams.ResData = api.Flag("invalidStatus")
		resParams.Code = http.StatusBadRequest
		resParams.Err = errors.New("invalid status " + status)
		h.Res(resParams)
		return
	}

	subs, err := h.Store.ListSubmissions(ctx, kind, store.SubmissionFilter{Status: status})
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = subs
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

type userRow struct {
	*schemas.User
	Earned int `json:"earned"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	users, err := h.Store.ListUsers(ctx)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	rows := make([]userRow, len(users))
	for i := range users {
		rows[i].User = &users[i]
		summary, err := rewards.Summarize(ctx, h.Store, users[i].Id)
		if err != nil {
			h.Logger.Warn("couldn't summarize rewards", zap.String("uid", users[i].Id), zap.Error(err))
			continue
		}
		rows[i].Earned = summary.Total
	}

	resParams.ResData = rows
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
