package network

import (
	"encoding/json"
	"sync"

	"github.com/blarphus/crossword/internal/platform/logger"
)

// Sender identifies the origin of an inbound message.
type Sender struct {
	SID string
	IP  string
}

// HandlerFunc processes one inbound event. Handlers own their payload
// validation; a malformed or unauthorized message is dropped, never
// answered with an error.
type HandlerFunc func(from Sender, data json.RawMessage)

// DisconnectFunc runs when a socket goes away.
type DisconnectFunc func(sid string)

// Router binds inbound event names to engine handlers. Registration
// happens during startup; dispatch is read-only after that.
type Router struct {
	mu          sync.RWMutex
	handlers    map[string]HandlerFunc
	disconnects []DisconnectFunc
	logger      *logger.Logger
}

// NewRouter creates an empty router.
func NewRouter(log *logger.Logger) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   log,
	}
}

// Handle registers a handler for an event name. Last registration wins.
func (r *Router) Handle(event string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = fn
}

// OnDisconnect registers a socket-close callback. Every registered
// callback runs for every closed socket; engines ignore ids they do not
// know.
func (r *Router) OnDisconnect(fn DisconnectFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnects = append(r.disconnects, fn)
}

func (r *Router) dispatch(from Sender, env Envelope) {
	r.mu.RLock()
	fn, ok := r.handlers[env.Event]
	r.mu.RUnlock()

	if !ok {
		// Unknown events are treated as late or adversarial traffic.
		r.logger.Warn("unhandled event dropped", "event", env.Event, "sid", from.SID)
		return
	}
	fn(from, env.Data)
}

func (r *Router) dispatchDisconnect(sid string) {
	r.mu.RLock()
	fns := make([]DisconnectFunc, len(r.disconnects))
	copy(fns, r.disconnects)
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(sid)
	}
}
