package chat

import (
	"context"
	"net/http"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/config"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	PONG_WAIT     = 60 * time.Second
	PING_INTERVAL = 54 * time.Second
	WRITE_WAIT    = 10 * time.Second
)

// Stream upgrades to a websocket that receives new messages of the caller's
// thread, or of every thread for admins.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {

	session, _ := api.SessionFrom(r.Context())
	resParams := &api.ResParams{W: w, R: r}

	ch := channel(session.Uid)
	if session.Admin {
		ch = config.CHAT_ADMIN_CHANNEL
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// subscribe before upgrading so nothing published after the handshake is missed
	pubsub := h.RedisCli.Subscribe(ctx, ch)
	defer pubsub.Close()
	if _, err := pubsub.Receive(r.Context()); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader already responded
		h.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		readPump(conn)
	}()

	if err := writePump(conn, pubsub.Channel(), done); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		h.Logger.Warn("websocket write failed", zap.String("uid", session.Uid), zap.Error(err))
	}

}

// readPump discards client frames and returns once the connection is gone.
func readPump(conn *websocket.Conn) {

	conn.SetReadDeadline(time.Now().Add(PONG_WAIT))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(PONG_WAIT))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}

}

func writePump(conn *websocket.Conn, msgs <-chan *redis.Message, done <-chan struct{}) error {

	ticker := time.NewTicker(PING_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil

		case msg, ok := <-msgs:
			conn.SetWriteDeadline(time.Now().Add(WRITE_WAIT))
			if !ok {
				return conn.WriteMessage(websocket.CloseMessage, []byte{})
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return err
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(WRITE_WAIT))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}

}
