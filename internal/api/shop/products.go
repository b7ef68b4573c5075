package shop

import (
	"net/http"
	"strings"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/schemas"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {

	resParams := &api.ResParams{W: w, R: r}

	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = products
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Name        string `json:"name" validate:"required,maxgraphemes=128"`
		Description string `json:"description" validate:"maxgraphemes=1024"`
		Image       string `json:"image" validate:"omitempty,url"`
		Cost        int    `json:"cost" validate:"required,gt=0"`
	}

	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	resParams.ReqData = reqData

	// normalize
	reqData.Name = strings.TrimSpace(reqData.Name)
	reqData.Description = strings.TrimSpace(reqData.Description)
	reqData.Image = strings.TrimSpace(reqData.Image)

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	product := &schemas.Product{
		Name:        reqData.Name,
		Description: reqData.Description,
		Image:       reqData.Image,
		Cost:        reqData.Cost,
	}
	if err := h.Store.InsertProduct(r.Context(), product); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = product
	resParams.Code = http.StatusCreated
	h.Res(resParams)

}
