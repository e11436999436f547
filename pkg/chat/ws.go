package chat

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/response"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced by the router; the token check covers the rest.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inbound struct {
	Message string `json:"message"`
}

type outbound struct {
	Type    string               `json:"type"`
	Message *models.ChatMessage  `json:"message,omitempty"`
	History []models.ChatMessage `json:"history,omitempty"`
}

// ServeWS upgrades the request and joins the caller to the course room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		response.Error(w, h.log, apierr.Unauthorized())
		return
	}
	courseID, err := strconv.Atoi(mux.Vars(r)["courseID"])
	if err != nil {
		response.Error(w, h.log, apierr.Validation("invalid course id", map[string]string{"courseID": "must be a number"}))
		return
	}
	history, err := h.History(r.Context(), courseID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := h.join(courseID, user.Email)
	h.log.Debug("chat joined", "course", courseID, "email", user.Email)

	done := make(chan struct{})
	go h.writePump(conn, c, history, done)

	conn.SetReadLimit(maxMessageLen * 4)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("chat read failed", "course", courseID, "error", err)
			}
			break
		}
		if _, err := h.Post(r.Context(), courseID, user.Email, in.Message); err != nil {
			h.log.Debug("chat message rejected", "course", courseID, "error", err)
		}
	}
	h.leave(courseID, c)
	<-done
}

func (h *Hub) writePump(conn *websocket.Conn, c *client, history []models.ChatMessage, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
		close(done)
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(outbound{Type: "history", History: history}); err != nil {
		h.drain(c)
		return
	}
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outbound{Type: "message", Message: &msg}); err != nil {
				h.drain(c)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.drain(c)
				return
			}
		}
	}
}

// drain discards queued messages until leave closes the channel.
func (h *Hub) drain(c *client) {
	go func() {
		for range c.send {
		}
	}()
}
