// Package metrics provides observability for the game server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance counters for the realtime surface.
type Collector struct {
	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Room metrics
	CrosswordRoomsActive int64
	JeopardyRoomsActive  int64
	BotsActive           int64

	// Storage metrics
	StoreWrites      int64
	StoreWriteLatSum int64 // nanoseconds
	StoreWriteLatMax int64
	StoreWriteErrors int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance.
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records a WebSocket message in either direction.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordRoom tracks room creation (+1) and destruction (-1) per experience.
func (c *Collector) RecordRoom(jeopardy bool, delta int64) {
	if jeopardy {
		atomic.AddInt64(&c.JeopardyRoomsActive, delta)
	} else {
		atomic.AddInt64(&c.CrosswordRoomsActive, delta)
	}
}

// RecordBot tracks bot lifecycle.
func (c *Collector) RecordBot(delta int64) {
	atomic.AddInt64(&c.BotsActive, delta)
}

// RecordStoreWrite records a persistence write and its latency.
func (c *Collector) RecordStoreWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.StoreWrites, 1)
	atomic.AddInt64(&c.StoreWriteLatSum, int64(latency))

	// Non-atomic max update is acceptable for metrics.
	if int64(latency) > atomic.LoadInt64(&c.StoreWriteLatMax) {
		atomic.StoreInt64(&c.StoreWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.StoreWriteErrors, 1)
	}
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	writes := atomic.LoadInt64(&c.StoreWrites)
	var writeAvg float64
	if writes > 0 {
		writeAvg = float64(atomic.LoadInt64(&c.StoreWriteLatSum)) / float64(writes) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"rooms": map[string]interface{}{
			"crossword": atomic.LoadInt64(&c.CrosswordRoomsActive),
			"jeopardy":  atomic.LoadInt64(&c.JeopardyRoomsActive),
			"bots":      atomic.LoadInt64(&c.BotsActive),
		},

		"storage": map[string]interface{}{
			"writes":           writes,
			"avg_write_lat_ms": writeAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.StoreWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.StoreWriteErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus exposition format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP xword_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE xword_ws_connections gauge\n")
		fmt.Fprintf(w, "xword_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP xword_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE xword_ws_messages_total counter\n")
		fmt.Fprintf(w, "xword_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "xword_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		fmt.Fprintf(w, "# HELP xword_rooms_active Active rooms by experience\n")
		fmt.Fprintf(w, "# TYPE xword_rooms_active gauge\n")
		fmt.Fprintf(w, "xword_rooms_active{kind=\"crossword\"} %d\n", atomic.LoadInt64(&c.CrosswordRoomsActive))
		fmt.Fprintf(w, "xword_rooms_active{kind=\"jeopardy\"} %d\n\n", atomic.LoadInt64(&c.JeopardyRoomsActive))

		fmt.Fprintf(w, "# HELP xword_bots_active Synthetic solvers currently running\n")
		fmt.Fprintf(w, "# TYPE xword_bots_active gauge\n")
		fmt.Fprintf(w, "xword_bots_active %d\n\n", atomic.LoadInt64(&c.BotsActive))

		fmt.Fprintf(w, "# HELP xword_store_writes Total persistence writes\n")
		fmt.Fprintf(w, "# TYPE xword_store_writes counter\n")
		fmt.Fprintf(w, "xword_store_writes %d\n\n", atomic.LoadInt64(&c.StoreWrites))

		fmt.Fprintf(w, "# HELP xword_store_write_errors Total persistence write errors\n")
		fmt.Fprintf(w, "# TYPE xword_store_write_errors counter\n")
		fmt.Fprintf(w, "xword_store_write_errors %d\n", atomic.LoadInt64(&c.StoreWriteErrors))
	}
}
