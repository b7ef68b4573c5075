package solar

import (
	"errors"
	"net/http"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"
)

type Handler struct {
	*api.Handler
}

// loadRequest fetches a request by id, responding with 404 when it is missing.
func (h *Handler) loadRequest(resParams *api.ResParams, id string) (*schemas.SolarRequest, bool) {

	req, err := h.Store.GetSolarRequest(resParams.R.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		resParams.ResData = api.Flag("notFound")
		resParams.Code = http.StatusNotFound
		resParams.Err = err
		h.Res(resParams)
		return nil, false
	} else if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return nil, false
	}

	return req, true

}
