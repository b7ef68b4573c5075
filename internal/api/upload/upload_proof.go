package upload

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/config"
	"greencreditapi/pkg/utils"

	"github.com/gabriel-vasile/mimetype"
)

// UploadProof stores a proof photo and returns its public url.
func (h *Handler) UploadProof(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	session, _ := api.SessionFrom(ctx)
	resParams := &api.ResParams{W: w, R: r}

	// leave room for the multipart envelope
	r.Body = http.MaxBytesReader(w, r.Body, config.MAX_UPLOAD_SIZE+(64<<10))
	defer r.Body.Close()

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			resParams.ResData = api.Flag("tooLarge")
			resParams.Code = http.StatusRequestEntityTooLarge
		} else {
			resParams.ResData = api.Flag("fileRequired")
			resParams.Code = http.StatusBadRequest
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}
	defer file.Close()
	resParams.ReqData = map[string]any{"filename": header.Filename, "size": header.Size}

	if header.Size > config.MAX_UPLOAD_SIZE {
		resParams.ResData = api.Flag("tooLarge")
		resParams.Code = http.StatusRequestEntityTooLarge
		h.Res(resParams)
		return
	}

	// trust the bytes, not the client's content type
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	contentType := mtype.String()
	if !strings.HasPrefix(contentType, "image/") {
		resParams.ResData = api.Flag("notAnImage")
		resParams.Code = http.StatusUnsupportedMediaType
		h.Res(resParams)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	key := utils.ProofObjectKey(session.Uid, contentType)
	url, err := h.Objects.Put(ctx, key, file, contentType)
	if err != nil {
		resParams.Code = http.StatusBadGateway
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		Url string `json:"url"`
	}{Url: url}
	resParams.Code = http.StatusCreated
	h.Res(resParams)

}
