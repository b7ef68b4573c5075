package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverse(t *testing.T) {

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		lat, _ := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lon, _ := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		assert.InDelta(t, 12.97, lat, 1e-6)
		assert.InDelta(t, 77.59, lon, 1e-6)
		w.Write([]byte(`{"display_name":" MG Road, Bengaluru ","address":{"road":"MG Road","city":"Bengaluru","country_code":"in"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	addr, err := c.Reverse(context.Background(), 12.97, 77.59)
	require.NoError(t, err)
	assert.Equal(t, "MG Road, Bengaluru", addr)

}

func TestAddressFallback(t *testing.T) {

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"upstream error body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":"Unable to geocode"}`))
		}},
		{"no address", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"display_name":""}`))
		}},
		{"blank display name", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"display_name":" ","address":{"city":"Bengaluru"}}`))
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL)
			c.Timeout = 50 * time.Millisecond
			assert.Equal(t, "12.5, -7.25", c.Address(context.Background(), 12.5, -7.25))
		})
	}

}
