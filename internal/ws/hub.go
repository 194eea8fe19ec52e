package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"karya/internal/domain"
	"karya/internal/logger"
)

// Hub tracks the open connections of every owner and pushes reminders to
// them. It satisfies the service Notifier interface.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.OwnerID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.OwnerID] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws client registered", "owner_id", c.OwnerID, "connections", len(set))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.OwnerID]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		c.closeSend()
	}
	if len(set) == 0 {
		delete(h.clients, c.OwnerID)
	}
}

// Connections returns the number of open connections for ownerID.
func (h *Hub) Connections(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[ownerID])
}

// Publish delivers r to every connection of its owner. Having no open
// connection is not an error; a slow client whose buffer is full misses the
// frame.
func (h *Hub) Publish(ctx context.Context, r domain.Reminder) error {
	msg, err := json.Marshal(Envelope{Type: MsgReminder, Payload: r})
	if err != nil {
		return fmt.Errorf("marshal reminder frame: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[r.OwnerID] {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws send buffer full, dropping reminder", "owner_id", r.OwnerID, "task_id", r.TaskID)
		}
	}
	return nil
}
