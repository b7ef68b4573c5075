package chat

import (
	"net/http"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/config"

	"github.com/gorilla/websocket"
)

type Handler struct {
	*api.Handler
}

func channel(uid string) string {
	return "chat:" + uid
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == config.ENV.ORIGIN
	},
}
