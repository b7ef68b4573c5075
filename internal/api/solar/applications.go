package solar

import (
	"errors"
	"net/http"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"

	"github.com/go-chi/chi/v5"
)

// Apply records the caller as an installer candidate for an open request.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	req, ok := h.loadRequest(resParams, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if req.UserId == session.Uid {
		resParams.ResData = api.Flag("ownRequest")
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}
	if req.Status != schemas.SOLAR_REQUEST_OPEN {
		resParams.ResData = api.Flag("notOpen")
		resParams.Code = http.StatusConflict
		h.Res(resParams)
		return
	}

	app := &schemas.SolarApplication{
		RequestId: req.Id,
		UserId:    session.Uid,
		Status:    schemas.SOLAR_APPLICATION_APPLIED,
		Ctime:     time.Now().UTC(),
	}
	if err := h.Store.InsertSolarApplication(ctx, app); err != nil {
		if errors.Is(err, store.ErrConflict) {
			resParams.ResData = api.Flag("alreadyApplied")
			resParams.Code = http.StatusConflict
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = app
	resParams.Code = http.StatusCreated
	h.Res(resParams)

}

func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	req, ok := h.loadRequest(resParams, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if req.UserId != session.Uid {
		resParams.ResData = api.Flag("notFound")
		resParams.Code = http.StatusNotFound
		h.Res(resParams)
		return
	}

	apps, err := h.Store.ListSolarApplications(ctx, req.Id)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = apps
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		ApplicationId string `json:"applicationId" validate:"required"`
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

	req, err := h.Store.AcceptInstaller(ctx, chi.URLParam(r, "id"), session.Uid, reqData.ApplicationId)
	switch {
	case errors.Is(err, store.ErrNotFound):
		resParams.ResData = api.Flag("notFound")
		resParams.Code = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		resParams.ResData = api.Flag("notOpen")
		resParams.Code = http.StatusConflict
	case err != nil:
		resParams.Code = http.StatusInternalServerError
	default:
		resParams.ResData = req
		resParams.Code = http.StatusOK
	}
	resParams.Err = err
	h.Res(resParams)

}
