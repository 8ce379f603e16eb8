package api

import (
	"sync"

	"github.com/gofiber/websocket/v2"

	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/util"
)

// sendBuffer is how many lines a slow client may lag behind before
// further lines are dropped for it.
const sendBuffer = 32

// Hub pushes status lines to every connected websocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[chan status.Line]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan status.Line]struct{})}
}

// Publish implements status.Sink. It never blocks.
func (h *Hub) Publish(l status.Line) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- l:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() chan status.Line {
	ch := make(chan status.Line, sendBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unregister(ch chan status.Line) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// serve sends the board's current lines, then every change, until the
// client goes away.
func (h *Hub) serve(board *status.Board) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		ch := h.register()
		defer h.unregister(ch)

		for _, l := range board.Lines() {
			if err := c.WriteJSON(l); err != nil {
				return
			}
		}

		// the read side only detects the close
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case l := <-ch:
				if err := c.WriteJSON(l); err != nil {
					util.PrintDebug("ws write: " + err.Error())
					return
				}
			}
		}
	}
}
