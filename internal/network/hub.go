// Package network provides the websocket transport: a hub of connected
// sockets with named rooms, and per-socket read/write pumps. Engines talk
// to the hub through the small Emitter interface so tests (and bots, which
// have no real socket) can share the same pipeline.
package network

import (
	"encoding/json"
	"sync"

	"github.com/blarphus/crossword/internal/platform/logger"
	"github.com/blarphus/crossword/internal/platform/metrics"
)

// Envelope is the wire shape for every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Emitter is the engine-facing transport surface.
type Emitter interface {
	Join(sid, room string)
	Leave(sid, room string)
	ToRoom(room, event string, payload interface{})
	ToRoomExcept(room, exceptSID, event string, payload interface{})
	ToSocket(sid, event string, payload interface{})
	RoomMembers(room string) []string
}

// Hub maintains the set of active sockets and their room memberships.
// Room membership is read on every broadcast and written only on
// join/leave, so it sits behind a single RWMutex.
type Hub struct {
	mu      sync.RWMutex
	sockets map[string]*Client
	rooms   map[string]map[string]struct{}

	router *Router
	logger *logger.Logger
}

// NewHub initializes an empty hub.
func NewHub(router *Router, log *logger.Logger) *Hub {
	return &Hub{
		sockets: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
		router:  router,
		logger:  log,
	}
}

// register adds a connected socket.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.sockets[c.sid] = c
	h.mu.Unlock()

	metrics.Get().RecordWSConnection(1)
	h.logger.Info("socket connected", "sid", c.sid)
}

// unregister removes a socket from the hub and every room it joined,
// then notifies the router so engines can run their disconnect paths.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.sockets[c.sid]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sockets, c.sid)
	for room, members := range h.rooms {
		if _, ok := members[c.sid]; ok {
			delete(members, c.sid)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()

	close(c.send)
	metrics.Get().RecordWSConnection(-1)
	h.logger.Info("socket disconnected", "sid", c.sid)

	h.router.dispatchDisconnect(c.sid)
}

// Join adds a socket (or a synthetic bot id) to a named room.
func (h *Hub) Join(sid, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[sid] = struct{}{}
}

// Leave removes a socket from a named room. Idempotent.
func (h *Hub) Leave(sid, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, sid)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomMembers returns a snapshot of the socket ids in a room.
func (h *Hub) RoomMembers(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms[room]
	out := make([]string, 0, len(members))
	for sid := range members {
		out = append(out, sid)
	}
	return out
}

// ToRoom broadcasts an event to every member of a room. Sends to synthetic
// members (bots) are silently skipped.
func (h *Hub) ToRoom(room, event string, payload interface{}) {
	h.emitRoom(room, "", event, payload)
}

// ToRoomExcept broadcasts to a room, skipping one socket.
func (h *Hub) ToRoomExcept(room, exceptSID, event string, payload interface{}) {
	h.emitRoom(room, exceptSID, event, payload)
}

func (h *Hub) emitRoom(room, exceptSID, event string, payload interface{}) {
	raw, err := encodeEnvelope(event, payload)
	if err != nil {
		h.logger.Error("failed to encode broadcast", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for sid := range h.rooms[room] {
		if sid == exceptSID {
			continue
		}
		if c, ok := h.sockets[sid]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(raw)
	}
}

// ToSocket sends an event to a single socket. Unknown ids are no-ops,
// which is what makes bot members free.
func (h *Hub) ToSocket(sid, event string, payload interface{}) {
	raw, err := encodeEnvelope(event, payload)
	if err != nil {
		h.logger.Error("failed to encode message", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	c, ok := h.sockets[sid]
	h.mu.RUnlock()

	if ok {
		c.enqueue(raw)
	}
}

func encodeEnvelope(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
