package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Message types
const (
	TypeConnected   = "connected"
	TypeProgress    = "progress"
	TypePostResult  = "post_result"
	TypeJobComplete = "job_complete"
)

// Message is one websocket frame sent to job subscribers
type Message struct {
	Type      string      `json:"type"`
	JobID     string      `json:"job_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Conn is the part of a websocket connection the hub uses
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one subscriber of a job
type Client struct {
	conn  Conn
	jobID string
	send  chan []byte
}

// Hub fans job progress out to subscribed websocket clients
type Hub struct {
	// Subscribed clients by job ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Guard clients map
	mu sync.RWMutex
}

// NewHub creates a new websocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run handles registrations until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.jobID]; !ok {
				h.clients[client.jobID] = make(map[*Client]bool)
			}
			h.clients[client.jobID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.clients[client.jobID]; ok && subs[client] {
				delete(subs, client)
				close(client.send)
				if len(subs) == 0 {
					delete(h.clients, client.jobID)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for _, subs := range h.clients {
				for client := range subs {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every subscription and ends Run
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a client
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client. Unknown clients are ignored.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns the number of clients following a job
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID])
}

// Broadcast sends a message to every client following jobID
func (h *Hub) Broadcast(jobID, msgType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: msgType, JobID: jobID, Timestamp: time.Now(), Data: data})
	if err != nil {
		log.Printf("Error marshalling WebSocket message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[jobID] {
		select {
		case client.send <- payload:
		default:
			// Slow client, drop it
			go h.Unregister(client)
		}
	}
}

// HandleConnection subscribes conn to jobID and blocks until the client disconnects
func (h *Hub) HandleConnection(conn Conn, jobID string) {
	client := &Client{
		conn:  conn,
		jobID: jobID,
		send:  make(chan []byte, 64),
	}
	h.Register(client)

	hello, _ := json.Marshal(Message{
		Type:      TypeConnected,
		JobID:     jobID,
		Timestamp: time.Now(),
	})
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		h.Unregister(client)
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump(h)
}

// writePump sends queued messages until the hub closes the channel
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards client frames and unregisters on disconnect
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}
