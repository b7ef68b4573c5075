package submission

import (
	"context"
	"errors"
	"net/http"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Delete removes one of the caller's submissions while it is still pending or
// rejected. Withdrawing a pending solar proof hands the request back to the
// installer.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	kind, ok := schemas.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		resParams.ResData = api.Flag("invalidKind")
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}
	id := chi.URLParam(r, "id")
	resParams.ReqData = map[string]string{"kind": string(kind), "id": id}

	deleted, err := h.Store.DeleteSubmission(ctx, kind, id, session.Uid)
	if err == nil && kind == schemas.KIND_SOLAR && deleted.Status == schemas.STATUS_PENDING {
		err = h.reopenSolarRequest(ctx, deleted.RequestId)
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		resParams.ResData = api.Flag("notFound")
		resParams.Code = http.StatusNotFound
	case errors.Is(err, store.ErrNotDeletable):
		resParams.ResData = api.Flag("notDeletable")
		resParams.Code = http.StatusConflict
	case err != nil:
		resParams.Code = http.StatusInternalServerError
	default:
		resParams.Code = http.StatusOK
	}
	resParams.Err = err
	h.Res(resParams)

}

func (h *Handler) reopenSolarRequest(ctx context.Context, requestId string) error {

	err := h.Store.SetSolarRequestStatus(ctx, requestId, schemas.SOLAR_REQUEST_IN_PROGRESS)
	if errors.Is(err, store.ErrNotFound) {
		h.Logger.Warn("solar installation references a missing request", zap.String("request", requestId))
		return nil
	}
	return err

}
