package event

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"

	"github.com/go-chi/chi/v5"
)

// ListUpcoming returns events that have not started yet, soonest first.
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {

	resParams := &api.ResParams{W: w, R: r}

	events, err := h.Store.ListCleanupEvents(r.Context(), time.Now().UTC())
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = events
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Title        string    `json:"title" validate:"required,maxgraphemes=120"`
		Description  string    `json:"description" validate:"maxgraphemes=1000"`
		Location     string    `json:"location" validate:"required,maxgraphemes=256"`
		StartsAt     time.Time `json:"startsAt" validate:"required"`
		RewardTokens int       `json:"rewardTokens" validate:"min=0"`
	}

	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	resParams.ReqData = reqData

	// normalize
	reqData.Title = strings.TrimSpace(reqData.Title)
	reqData.Description = strings.TrimSpace(reqData.Description)
	reqData.Location = strings.TrimSpace(reqData.Location)

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	if !reqData.StartsAt.After(time.Now()) {
		resParams.ResData = api.Flag("startsInPast")
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}

	event := &schemas.CleanupEvent{
		Title:        reqData.Title,
		Description:  reqData.Description,
		Location:     reqData.Location,
		StartsAt:     reqData.StartsAt.UTC(),
		RewardTokens: reqData.RewardTokens,
		CreatedBy:    session.Uid,
		Ctime:        time.Now().UTC(),
	}
	if err := h.Store.InsertCleanupEvent(ctx, event); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = event
	resParams.Code = http.StatusCreated
	h.Res(resParams)

}

// Register signs the caller up for an event that has not started.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	event, err := h.Store.GetCleanupEvent(ctx, chi.URLParam(r, "id"))
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
	if !event.StartsAt.After(time.Now()) {
		resParams.ResData = api.Flag("eventStarted")
		resParams.Code = http.StatusConflict
		h.Res(resParams)
		return
	}

	reg := &schemas.EventRegistration{
		EventId: event.Id,
		UserId:  session.Uid,
		Status:  schemas.EVENT_REGISTERED,
		Ctime:   time.Now().UTC(),
	}
	if err := h.Store.InsertEventRegistration(ctx, reg); err != nil {
		if errors.Is(err, store.ErrConflict) {
			resParams.ResData = api.Flag("alreadyRegistered")
			resParams.Code = http.StatusConflict
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = reg
	resParams.Code = http.StatusCreated
	h.Res(resParams)

}

func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {

	session, _ := api.SessionFrom(r.Context())
	resParams := &api.ResParams{W: w, R: r}

	regs, err := h.Store.ListEventRegistrations(r.Context(), session.Uid)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = regs
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
