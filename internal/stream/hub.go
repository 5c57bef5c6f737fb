package stream

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Hub upgrades HTTP requests to WebSocket connections and relays ledger
// events to each client as JSON, one message per event.
type Hub struct {
	feed     *Feed
	logger   *slog.Logger
	capacity int
	upgrader websocket.Upgrader
}

// NewHub creates a hub reading from feed. capacity sets the per-client
// buffer size; <= 0 uses DefaultSubscriberCapacity.
func NewHub(feed *Feed, capacity int, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		feed:     feed,
		logger:   logger,
		capacity: capacity,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The ledger carries no per-client secrets; any origin may follow it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects or the feed closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	sub := h.feed.Subscribe(h.capacity)
	h.logger.Info("event stream client connected", "remote", conn.RemoteAddr().String())

	// Reader goroutine exists only to observe the close from the client
	// side; inbound payloads are ignored.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.feed.Unsubscribe(sub)
				return
			}
		}
	}()

	go h.writeLoop(conn, sub)
}

// writeLoop pushes events to one client until its buffer closes or a
// write fails.
func (h *Hub) writeLoop(conn *websocket.Conn, sub *Buffer) {
	defer func() {
		h.feed.Unsubscribe(sub)
		conn.Close()
		h.logger.Info("event stream client disconnected", "remote", conn.RemoteAddr().String())
	}()

	for {
		ev, ok := sub.Receive()
		if !ok {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"))
			return
		}
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
