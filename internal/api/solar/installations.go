package solar

import (
	"net/http"
	"strings"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/schemas"
)

// SubmitInstallation files the accepted installer's proof photo for review.
func (h *Handler) SubmitInstallation(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		RequestId string `json:"requestId" validate:"required"`
		ImageUrl  string `json:"imageUrl" validate:"required,url"`
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

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	req, ok := h.loadRequest(resParams, reqData.RequestId)
	if !ok {
		return
	}
	if req.AcceptedInstallerId != session.Uid {
		resParams.ResData = api.Flag("notInstaller")
		resParams.Code = http.StatusForbidden
		h.Res(resParams)
		return
	}
	if req.Status != schemas.SOLAR_REQUEST_IN_PROGRESS {
		resParams.ResData = api.Flag("notInProgress")
		resParams.Code = http.StatusConflict
		h.Res(resParams)
		return
	}

	sub := &schemas.Submission{
		Kind:      schemas.KIND_SOLAR,
		UserId:    session.Uid,
		ImageUrl:  reqData.ImageUrl,
		RequestId: req.Id,
		Location:  req.Location,
		Status:    schemas.STATUS_PENDING,
		Ctime:     time.Now().UTC(),
	}
	if err := h.Store.InsertSubmission(ctx, sub); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	if err := h.Store.SetSolarRequestStatus(ctx, req.Id, schemas.SOLAR_REQUEST_PENDING_APPROVAL); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = sub
	resParams.Code = http.StatusCreated
	h.Res(resParams)

}
