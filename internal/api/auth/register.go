package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"
	"greencreditapi/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Email     string `json:"email" validate:"required,email"`
		Password  string `json:"password" validate:"required,password"`
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

	// normalize
	reqData.Email = utils.NormalizeEmail(reqData.Email)
	reqData.Password = strings.TrimSpace(reqData.Password)
	reqData.FirstName = strings.TrimSpace(reqData.FirstName)
	reqData.LastName = strings.TrimSpace(reqData.LastName)

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	password := reqData.Password
	reqData.Password = ""
	resParams.ReqData = reqData

	// hash password
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	newUser := &schemas.User{
		Ctime:     time.Now().UTC(),
		Email:     reqData.Email,
		PassHash:  string(passHash),
		FirstName: reqData.FirstName,
		LastName:  reqData.LastName,
		Handle:    utils.NewHandle(),
		Role:      schemas.ROLE_USER,
	}

	// unique index by email
	if err := h.Store.CreateUser(ctx, newUser); err != nil {
		if errors.Is(err, store.ErrConflict) {
			resParams.ResData = api.Flag("emailConflict")
			resParams.Code = http.StatusConflict
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	token, err := utils.CreateNewAuthToken(newUser.Id, false).Sign()
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		Token string `json:"token"`
	}{Token: token}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
