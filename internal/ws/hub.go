package ws

import (
	"encoding/json"
	"log"
	"sync"

	"group-chat-service/internal/observability"
)

// Hub is the single source of truth for which connections are joined to which
// rooms. A room exists only while at least one connection is joined to it.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[Client]struct{}
	joined map[Client]map[string]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[Client]struct{}),
		joined: make(map[Client]map[string]struct{}),
	}
}

// Join adds the client to a room. Joining a room the client is already in is
// a no-op, so fan-out never double-counts a connection.
func (h *Hub) Join(c Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[Client]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
	if _, ok := h.joined[c]; !ok {
		h.joined[c] = make(map[string]struct{})
	}
	h.joined[c][roomID] = struct{}{}
}

// Leave removes the client from a room. Not an error if it was never joined.
func (h *Hub) Leave(c Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, roomID)
}

// RemoveConnection clears the client from every room it belongs to. Safe to
// call for a client that never joined anything.
func (h *Hub) RemoveConnection(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID := range h.joined[c] {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.joined, c)
}

func (h *Hub) leaveLocked(c Client, roomID string) {
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if roomIDs, ok := h.joined[c]; ok {
		delete(roomIDs, roomID)
		if len(roomIDs) == 0 {
			delete(h.joined, c)
		}
	}
}

// Members returns a snapshot of the room's current members. Empty slice for a
// room nobody has joined.
func (h *Hub) Members(roomID string) []Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		members = append(members, c)
	}
	return members
}

// Broadcast delivers an event to every member of the room, resolving the
// membership set at the moment of the call. When exclude is non-nil that
// client is skipped (exclusive mode, used for typing indicators). A failed
// write closes and unregisters the dead connection; the caller never sees an
// error.
func (h *Hub) Broadcast(roomID string, event string, data any, exclude Client) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("ws broadcast marshal failed: event=%s err=%v", event, err)
		return
	}
	payload, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		log.Printf("ws broadcast marshal failed: event=%s err=%v", event, err)
		return
	}

	for _, c := range h.Members(roomID) {
		if exclude != nil && c == exclude {
			continue
		}
		if err := c.Write(payload); err != nil {
			log.Printf("websocket write error: %v", err)
			_ = c.Close()
			h.RemoveConnection(c)
			observability.IncWSEvent("relay", "ws_error")
		}
	}
	observability.IncWSEvent("relay", event)
}
