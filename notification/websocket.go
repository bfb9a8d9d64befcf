package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Broadcaster is a websocket channel that pushes every notification to all
// connected dashboard clients. A client whose write fails is dropped.
type Broadcaster struct {
	clients map[*websocket.Conn]bool
	mutex   sync.Mutex
}

// NewBroadcaster creates a broadcaster with no connected clients
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*websocket.Conn]bool)}
}

// Name identifies the channel
func (b *Broadcaster) Name() string { return "websocket" }

// ServeHTTP upgrades the request and registers the client
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	b.mutex.Lock()
	b.clients[conn] = true
	b.mutex.Unlock()
}

// Send pushes the message to every connected client
func (b *Broadcaster) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for client := range b.clients {
		if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
			client.Close()
			delete(b.clients, client)
		}
	}
	return nil
}

// ClientCount returns the number of connected clients
func (b *Broadcaster) ClientCount() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.clients)
}

// Close disconnects all clients
func (b *Broadcaster) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for client := range b.clients {
		client.Close()
		delete(b.clients, client)
	}
}
