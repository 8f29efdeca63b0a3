package api

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/TheRev45/IzziAutomationAIP/pkg/simulator"
)

// Hub fans published snapshots out to websocket subscribers, keyed by
// run id. Sends never block the tick loop: a client whose buffer is
// full is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*client]bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]bool)}
}

type pushMessage struct {
	Type     string                    `json:"type"` // snapshot or forecast
	Snapshot *simulator.Snapshot       `json:"snapshot,omitempty"`
	Forecast *simulator.ForecastResult `json:"forecast,omitempty"`
}

// Publish pushes a tick snapshot to every subscriber of the run.
func (h *Hub) Publish(runID string, snap simulator.Snapshot) {
	h.broadcast(runID, pushMessage{Type: "snapshot", Snapshot: &snap})
}

// PublishForecast pushes a completed forecast to every subscriber.
func (h *Hub) PublishForecast(runID string, result *simulator.ForecastResult) {
	h.broadcast(runID, pushMessage{Type: "forecast", Forecast: result})
}

// broadcast fans payload out under the hub mutex. Sends and closes on a
// client channel only ever happen with the mutex held, so a disconnect
// racing a publish can never send on a closed channel; the sends are
// non-blocking, so holding the lock is cheap.
func (h *Hub) broadcast(runID string, msg pushMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("hub: failed to marshal push message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	var stale []*client
	for c := range h.clients[runID] {
		select {
		case c.send <- payload:
		default:
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		h.dropLocked(runID, c)
	}
}

// Subscribe registers a websocket connection for a run and starts its
// writer. The connection is owned by the hub from here on.
func (h *Hub) Subscribe(runID string, conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.mu.Lock()
	if h.clients[runID] == nil {
		h.clients[runID] = make(map[*client]bool)
	}
	h.clients[runID][c] = true
	h.mu.Unlock()

	go func() {
		defer conn.Close()
		for payload := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.drop(runID, c)
				return
			}
		}
	}()
}

func (h *Hub) drop(runID string, c *client) {
	h.mu.Lock()
	h.dropLocked(runID, c)
	h.mu.Unlock()
}

// dropLocked removes the client and closes its channel. The caller
// holds the mutex; removal before close guarantees no broadcast can see
// the client again.
func (h *Hub) dropLocked(runID string, c *client) {
	if subscribers, ok := h.clients[runID]; ok && subscribers[c] {
		delete(subscribers, c)
		close(c.send)
	}
}
