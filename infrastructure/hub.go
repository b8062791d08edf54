package infrastructure

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"talentvibe/domain"
	"talentvibe/logger"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Frame is what goes over the wire: the event name plus the progress
// payload, mirroring the original client's progress_update contract.
type Frame struct {
	Event string               `json:"event"`
	Data  domain.ProgressEvent `json:"data"`
}

// WSClient is one live observer. Outbound is buffered; when an observer
// cannot keep up, events are dropped rather than blocking publishers.
type WSClient struct {
	Outbound chan Frame
	done     chan struct{}
	closed   sync.Once
}

// Hub broadcasts progress events to every connected observer. No
// buffering across connects, no replay: an observer that connects after
// an event was published never sees it.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*WSClient]bool
	upgrader websocket.Upgrader
	log      *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*WSClient]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.With("component", "Hub"),
	}
}

// Register adds a new observer and returns its client handle.
func (h *Hub) Register() *WSClient {
	c := &WSClient{
		Outbound: make(chan Frame, 32),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

// Unregister drops the observer and releases its channels.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.closed.Do(func() { close(c.done) })
}

// ClientCount reports the number of live observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts one progress event to every connected observer.
// Fire and forget: a full outbound buffer drops the frame for that
// observer only.
func (h *Hub) Publish(jobID uint, message string, kind domain.ProgressKind) {
	frame := Frame{
		Event: "progress_update",
		Data:  domain.NewProgressEvent(jobID, message, kind),
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.Outbound <- frame:
		default:
			h.log.Warn("dropping progress frame; outbound buffer full", "job_id", jobID)
		}
	}
}

// ServeWS upgrades the request and pumps frames until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := h.Register()
	defer func() {
		h.Unregister(client)
		_ = conn.Close()
	}()

	// Reader only detects the peer closing; inbound payloads are ignored.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.Unregister(client)
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-client.done:
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case frame := <-client.Outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}
}
