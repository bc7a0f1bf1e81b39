// Package logstream publishes deploy/build/health-check progress lines to
// WebSocket subscribers, keyed by deploymentId (spec.md §5, supplemented
// feature C11a). It is purely observational: publishing never blocks a
// deploy, and an absent subscriber drops lines rather than buffering them.
package logstream

import "sync"

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send(line string) error
	Close()
}

// Hub fans out progress lines to subscribers of one deploymentId.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
}

type message struct {
	deploymentID string
	line         string
}

type subscription struct {
	deploymentID string
	client       Subscriber
}

// NewHub creates and starts a Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message, 64),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.deploymentID]; !ok {
				h.clients[sub.deploymentID] = make(map[Subscriber]struct{})
			}
			h.clients[sub.deploymentID][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.deploymentID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.deploymentID)
				}
			}
		case msg := <-h.broadcast:
			clients, ok := h.clients[msg.deploymentID]
			if !ok {
				continue
			}
			for c := range clients {
				if err := c.Send(msg.line); err != nil {
					c.Close()
					delete(clients, c)
				}
			}
			if len(clients) == 0 {
				delete(h.clients, msg.deploymentID)
			}
		}
	}
}

// Register subscribes client to deploymentId's progress lines.
func (h *Hub) Register(deploymentID string, client Subscriber) {
	h.register <- subscription{deploymentID: deploymentID, client: client}
}

// Unregister removes client from deploymentId's subscriber set.
func (h *Hub) Unregister(deploymentID string, client Subscriber) {
	h.unreg <- subscription{deploymentID: deploymentID, client: client}
}

// Publish sends line to every current subscriber of deploymentId. It never
// blocks the caller: if the hub's internal queue is full, the line is
// dropped.
func (h *Hub) Publish(deploymentID, line string) {
	select {
	case h.broadcast <- message{deploymentID: deploymentID, line: line}:
	default:
	}
}
