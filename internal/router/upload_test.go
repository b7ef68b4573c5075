package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// phone cameras write HEIC by default
var heicHeader = []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic\x00\x00\x00\x00")

func (e *testEnv) upload(token string, field string, content []byte, out any) int {

	e.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "proof.bin")
	require.NoError(e.t, err)
	_, err = fw.Write(content)
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())

	req, err := http.NewRequest("POST", e.srv.URL+"/uploads", &body)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer res.Body.Close()

	if out != nil {
		require.NoError(e.t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode

}

func TestUploadProof(t *testing.T) {

	env := newTestEnv(t)
	token := env.user("u1", false)

	var res struct {
		Url string `json:"url"`
	}
	require.Equal(t, http.StatusCreated, env.upload(token, "file", pngHeader, &res))
	keys := env.objects.uploaded()
	require.Len(t, keys, 1)
	key := keys[0]
	assert.True(t, strings.HasPrefix(key, "proofs/u1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+key, res.Url)

	t.Run("accepts heic photos", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, env.upload(token, "file", heicHeader, nil))
		keys := env.objects.uploaded()
		assert.True(t, strings.HasSuffix(keys[len(keys)-1], ".heic"))
	})

	t.Run("rejects non images", func(t *testing.T) {
		var flags map[string]bool
		assert.Equal(t, http.StatusUnsupportedMediaType, env.upload(token, "file", []byte("just some text"), &flags))
		assert.True(t, flags["notAnImage"])
	})

	t.Run("requires the file field", func(t *testing.T) {
		var flags map[string]bool
		assert.Equal(t, http.StatusBadRequest, env.upload(token, "photo", pngHeader, &flags))
		assert.True(t, flags["fileRequired"])
	})

	t.Run("requires a session", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.upload("", "file", pngHeader, nil))
	})

	t.Run("bucket failure", func(t *testing.T) {
		env.objects.setFail(true)
		defer env.objects.setFail(false)
		assert.Equal(t, http.StatusBadGateway, env.upload(token, "file", pngHeader, nil))
	})

}
