package submission

import (
	"errors"
	"net/http"
	"sort"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"
)

// ListMine lists the caller's submissions of one kind, or of every kind when
// kind is omitted.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	kinds := []schemas.Kind{schemas.KIND_TREE, schemas.KIND_CLEANUP, schemas.KIND_SOLAR}
	if q := r.URL.Query().Get("kind"); q != "" {
		kind, ok := schemas.ParseKind(q)
		if !ok {
			resParams.ResData = api.Flag("invalidKind")
			resParams.Code = http.StatusBadRequest
			resParams.Err = errors.New("invalid kind " + q)
			h.Res(resParams)
			return
		}
		kinds = []schemas.Kind{kind}
	}

	subs := []schemas.Submission{}
	for _, kind := range kinds {
		batch, err := h.Store.ListSubmissions(ctx, kind, store.SubmissionFilter{UserId: session.Uid})
		if err != nil {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
		subs = append(subs, batch...)
	}

	sort.SliceStable(subs, func(i, j int) bool { return subs[i].Ctime.After(subs[j].Ctime) })

	resParams.ResData = subs
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
