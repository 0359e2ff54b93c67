package network

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/blarphus/crossword/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 4096
	// Outbound queue depth per socket before the connection is dropped.
	sendQueueSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dev frontends connect cross-origin
	},
}

// Client is one connected websocket peer.
type Client struct {
	sid  string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// remoteIP is recorded at upgrade time for user creation.
	remoteIP string
}

// ServeWS upgrades an HTTP request and starts the client's pumps.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("failed to upgrade websocket connection", "err", err)
		return
	}

	c := &Client{
		sid:      uuid.NewString(),
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		remoteIP: r.RemoteAddr,
	}
	hub.register(c)

	go c.writePump()
	go c.readPump()
}

// enqueue puts an encoded frame on the socket's outbound queue. A full
// queue means a stuck peer; the frame is dropped rather than blocking the
// emitting room.
func (c *Client) enqueue(raw []byte) {
	select {
	case c.send <- raw:
		metrics.Get().RecordWSMessage(false)
	default:
		metrics.Get().RecordWSError()
	}
}

// readPump pumps messages from the websocket to the router.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("socket read error", "sid", c.sid, "err", err)
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.hub.logger.Warn("unparseable frame dropped", "sid", c.sid)
			continue
		}
		c.hub.router.dispatch(Sender{SID: c.sid, IP: c.remoteIP}, env)
	}
}

// writePump pumps messages from the send queue to the websocket.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
