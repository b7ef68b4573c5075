package auth

import (
	"errors"
	"net/http"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"
	"greencreditapi/pkg/utils"
)

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Token string `json:"token" validate:"required"` //google token
	}

	// validate request body
	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// validate google token
	principal, err := h.Google.Verify(ctx, reqData.Token)
	if err != nil {
		resParams.Code = http.StatusForbidden
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// find user
	user, err := h.Store.GetUserByGoogleId(ctx, principal.Uid)
	accountCreated := errors.Is(err, store.ErrNotFound)

	// create new user if none found
	if accountCreated {

		// email must be provided
		if principal.Email == "" {
			resParams.ResData = api.Flag("emailMissing")
			resParams.Code = http.StatusBadRequest
			h.Res(resParams)
			return
		}

		user = &schemas.User{
			Ctime:     time.Now().UTC(),
			Email:     utils.NormalizeEmail(principal.Email),
			GoogleId:  principal.Uid,
			FirstName: principal.FirstName,
			LastName:  principal.LastName,
			Handle:    utils.NewHandle(),
			Role:      schemas.ROLE_USER,
		}

		if err := h.Store.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrConflict) {
				resParams.ResData = api.Flag("conflict")
				resParams.Code = http.StatusConflict
			} else {
				resParams.Code = http.StatusInternalServerError
			}
			resParams.Err = err
			h.Res(resParams)
			return
		}

	} else if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// create jwt
	token, err := utils.CreateNewAuthToken(user.Id, user.IsAdmin()).Sign()
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		Token          string `json:"token"`
		AccountCreated bool   `json:"accountCreated"`
	}{
		Token:          token,
		AccountCreated: accountCreated,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
