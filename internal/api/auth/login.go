package auth

import (
	"errors"
	"net/http"
	"strings"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/store"
	"greencreditapi/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// normalize
	reqData.Email = utils.NormalizeEmail(reqData.Email)
	reqData.Password = strings.TrimSpace(reqData.Password)

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	password := reqData.Password
	reqData.Password = ""
	resParams.ReqData = reqData

	user, err := h.Store.GetUserByEmail(ctx, reqData.Email)
	if errors.Is(err, store.ErrNotFound) {
		resParams.ResData = api.Flag("invalidCredentials")
		resParams.Code = http.StatusUnauthorized
		resParams.Err = err
		h.Res(resParams)
		return
	} else if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// accounts created through google or firebase have no password
	if user.PassHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)) != nil {
		resParams.ResData = api.Flag("invalidCredentials")
		resParams.Code = http.StatusUnauthorized
		resParams.Err = errors.New("password mismatch")
		h.Res(resParams)
		return
	}

	token, err := utils.CreateNewAuthToken(user.Id, user.IsAdmin()).Sign()
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		Token string `json:"token"`
		Admin bool   `json:"admin"`
	}{Token: token, Admin: user.IsAdmin()}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
