package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WSHub pushes orders-changed notifications to connected order-list views
// over websocket. A client connects once and gets a message whenever the
// orders it shows may have changed.
type WSHub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewWSHub() *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

// Serve upgrades the connection and holds it open until the client goes
// away. Reads are discarded; the hub only pushes.
func (h *WSHub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
			return nil
		}
	}
}

func (h *WSHub) OrdersChanged(ctx context.Context, userID string) error {
	payload, err := json.Marshal(map[string]string{"event": "orders_changed", "user_id": userID})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
	return nil
}
