package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/config"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) GetMyMessages(w http.ResponseWriter, r *http.Request) {
	session, _ := api.SessionFrom(r.Context())
	h.listMessages(w, r, session.Uid)
}

func (h *Handler) SendMyMessage(w http.ResponseWriter, r *http.Request) {
	session, _ := api.SessionFrom(r.Context())
	h.send(w, r, session.Uid, schemas.SENDER_USER)
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	h.listMessages(w, r, chi.URLParam(r, "uid"))
}

func (h *Handler) SendAdminMessage(w http.ResponseWriter, r *http.Request) {

	uid := chi.URLParam(r, "uid")
	if _, err := h.Store.GetUser(r.Context(), uid); err != nil {
		resParams := &api.ResParams{W: w, R: r, Err: err}
		if errors.Is(err, store.ErrNotFound) {
			resParams.ResData = api.Flag("notFound")
			resParams.Code = http.StatusNotFound
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		h.Res(resParams)
		return
	}

	h.send(w, r, uid, schemas.SENDER_ADMIN)

}

func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {

	resParams := &api.ResParams{W: w, R: r}

	threads, err := h.Store.ListThreads(r.Context())
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = threads
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request, uid string) {

	resParams := &api.ResParams{W: w, R: r}

	msgs, err := h.Store.ListMessages(r.Context(), uid)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = msgs
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

// send stores a message in uid's thread and publishes it to the thread and
// admin channels.
func (h *Handler) send(w http.ResponseWriter, r *http.Request, uid string, sender string) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Message string `json:"message" validate:"required,maxgraphemes=1000"`
	}

	if err := api.DecodeBody(r, &reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// normalize
	reqData.Message = strings.TrimSpace(reqData.Message)
	resParams.ReqData = reqData

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	msg := &schemas.ChatMessage{
		UserId:  uid,
		Sender:  sender,
		Message: reqData.Message,
		Ctime:   time.Now().UTC(),
	}
	if err := h.Store.InsertMessage(ctx, msg); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// stored is what counts, live delivery is best effort
	if data, err := json.Marshal(msg); err == nil {
		for _, ch := range []string{channel(uid), config.CHAT_ADMIN_CHANNEL} {
			if err := h.RedisCli.Publish(ctx, ch, data).Err(); err != nil {
				h.Logger.Warn("couldn't publish chat message", zap.String("channel", ch), zap.Error(err))
			}
		}
	}

	resParams.ResData = msg
	resParams.Code = http.StatusCreated
	h.Res(resParams)

}
