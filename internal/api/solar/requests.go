package solar

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

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Description string `json:"description" validate:"required,maxgraphemes=1000"`
		Location    string `json:"location" validate:"required,maxgraphemes=256"`
	}

	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	resParams.ReqData = reqData

	// normalize
	reqData.Description = strings.TrimSpace(reqData.Description)
	reqData.Location = strings.TrimSpace(reqData.Location)

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	req := &schemas.SolarRequest{
		UserId:      session.Uid,
		Description: reqData.Description,
		Location:    reqData.Location,
		Status:      schemas.SOLAR_REQUEST_OPEN,
		Ctime:       time.Now().UTC(),
	}
	if err := h.Store.InsertSolarRequest(ctx, req); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = req
	resParams.Code = http.StatusCreated
	h.Res(resParams)

}

func (h *Handler) ListOpen(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, store.SolarRequestFilter{Status: schemas.SOLAR_REQUEST_OPEN})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	session, _ := api.SessionFrom(r.Context())
	h.list(w, r, store.SolarRequestFilter{UserId: session.Uid})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter store.SolarRequestFilter) {

	resParams := &api.ResParams{W: w, R: r}

	reqs, err := h.Store.ListSolarRequests(r.Context(), filter)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = reqs
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

// Complete lets the owner confirm the installation on their side.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	err := h.Store.MarkCompletedByOwner(ctx, chi.URLParam(r, "id"), session.Uid)
	if errors.Is(err, store.ErrNotFound) {
		resParams.ResData = api.Flag("notFound")
		resParams.Code = http.StatusNotFound
	} else if err != nil {
		resParams.Code = http.StatusInternalServerError
	} else {
		resParams.Code = http.StatusOK
	}
	resParams.Err = err
	h.Res(resParams)

}
