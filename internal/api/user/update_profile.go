package user

import (
	"net/http"
	"strings"

	"greencreditapi/internal/api"
)

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		FirstName string `json:"firstName" validate:"required,maxgraphemes=64"`
		LastName  string `json:"lastName" validate:"maxgraphemes=64"`
	}

	// validate request body
	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	resParams.ReqData = reqData

	// normalize
	reqData.FirstName = strings.TrimSpace(reqData.FirstName)
	reqData.LastName = strings.TrimSpace(reqData.LastName)

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	user, err := h.Store.UpdateProfile(ctx, session.Uid, reqData.FirstName, reqData.LastName)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = user
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
