package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes the session state to WebSocket clients after every frame.
type EventsHandler struct {
	source Source
}

// NewEventsHandler creates a new EventsHandler reading from source.
func NewEventsHandler(source Source) *EventsHandler {
	return &EventsHandler{source: source}
}

// ServeHTTP upgrades the connection, sends the current state and then every
// update. A client that reads too slowly misses intermediate states.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	states, stop := h.source.Subscribe()
	defer stop()

	// Reading detects the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(h.source.State()); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case s := <-states:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(s); err != nil {
				return
			}
		}
	}
}
