package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/metrics"
	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/preview"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Event is a change-feed message.
type Event struct {
	Type    string `json:"type"` // "state" or "preview"
	Seq     uint64 `json:"seq"`
	Action  string `json:"action,omitempty"`
	Current string `json:"currentPresentationId,omitempty"`
	SlideID string `json:"slideId,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans store and preview changes out to websocket clients.
type Hub struct {
	log      *zap.Logger
	metrics  *metrics.Recorder
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	seq     uint64
	closed  bool

	stop []func()
}

// NewHub subscribes to store and previews. Either may be nil.
func NewHub(store *engine.Store, previews *preview.Store, rec *metrics.Recorder, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		log:     log,
		metrics: rec,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*client]struct{}),
	}

	if store != nil {
		h.stop = append(h.stop, store.Subscribe(func(next, _ model.State, a engine.Action) {
			ev := Event{Type: "state", Action: a.Kind()}
			if next.CurrentPresentationID != nil {
				ev.Current = *next.CurrentPresentationID
			}
			h.Broadcast(ev)
		}))
	}
	if previews != nil {
		events, cancel := previews.Subscribe(sendBuffer)
		h.stop = append(h.stop, cancel)
		go func() {
			for ev := range events {
				h.Broadcast(Event{Type: "preview", SlideID: ev.SlideID, Deleted: ev.Deleted})
			}
		}()
	}
	return h
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast stamps ev with the next sequence number and queues it for every
// client. A client whose queue is full is disconnected.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.seq++
	ev.Seq = h.seq
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode feed event", zap.Error(err))
		return
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("feed client too slow, dropping", zap.String("remote", c.conn.RemoteAddr().String()))
			h.removeLocked(c)
		}
	}
}

// ServeHTTP upgrades the request and streams events until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.ClientConnected()
	}

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client messages and notices disconnects.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	if h.metrics != nil {
		h.metrics.ClientDisconnected()
	}
}

// Close unsubscribes from the sources and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
	stop := h.stop
	h.stop = nil
	h.mu.Unlock()

	for _, fn := range stop {
		fn()
	}
}
