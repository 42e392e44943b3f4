package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/hub"
)

const writeWait = 10 * time.Second

// handleWS upgrades the connection and registers it with the hub. The write
// pump drains the client's send channel; the read loop treats every inbound
// frame as a heartbeat ack. The hub owns eviction on missed heartbeats.
func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "token not provided")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || h.allowedOrigin == "" || origin == h.allowedOrigin
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("ws upgrade for %s: %v", identity.Employee.Login, err)
		return
	}

	client := hub.NewClient(uuid.NewString(), func() { _ = conn.Close() })
	h.hub.Register(client)
	logrus.Infof("ws connect client=%s employee=%s", client.ID, identity.Employee.EmployeeID)

	go func() {
		for msg := range client.Send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.hub.Unregister(client)
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.hub.Unregister(client)
			return
		}
		client.Ack()
	}
}
