// Package ws streams listing-change frames to connected browsers over
// gorilla/websocket, so an open auction page sees new bids without polling.
//
// One hub serves the whole application:
//
//	var Feed = ws.NewHub()
//	go Feed.Run()
//
//	router.Handle("/ws/listings", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    ws.Upgrade(w, r, Feed)
//	}))
//
//	Feed.Broadcast <- frame
package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shashiranjanraj/giftbid/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // clients only send pings and subscribe frames
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins by default. Restrict in production with SetCheckOrigin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default allow-all origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// Hub tracks the connected clients and fans Broadcast frames out to them.
// All membership changes flow through Run, so no lock is needed.
type Hub struct {
	Broadcast chan []byte

	clients map[*client]struct{}
	join    chan *client
	leave   chan *client
}

// NewHub builds a hub. Start its Run loop in a goroutine before serving.
func NewHub() *Hub {
	return &Hub{
		Broadcast: make(chan []byte, sendBuffer),
		clients:   make(map[*client]struct{}),
		join:      make(chan *client),
		leave:     make(chan *client),
	}
}

// Run is the hub event loop. A client that cannot keep up with the broadcast
// stream is dropped rather than allowed to stall everyone else.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.join:
			h.clients[c] = struct{}{}
			logger.Info("ws: client connected", "total", len(h.clients))

		case c := <-h.leave:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.out)
				logger.Info("ws: client disconnected", "total", len(h.clients))
			}

		case frame := <-h.Broadcast:
			for c := range h.clients {
				select {
				case c.out <- frame:
				default:
					close(c.out)
					delete(h.clients, c)
				}
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int { return len(h.clients) }

// Upgrade promotes the HTTP connection to a WebSocket and attaches it to hub.
func Upgrade(w http.ResponseWriter, r *http.Request, hub *Hub) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("ws: upgrade failed", "error", err)
		return
	}
	c := &client{hub: hub, conn: conn, out: make(chan []byte, sendBuffer)}
	hub.join <- c
	go c.writeLoop()
	go c.readLoop()
}

// client is one websocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	out  chan []byte
}

// readLoop discards inbound frames (browsers only ping) and keeps the read
// deadline fresh; its exit tears the connection down.
func (c *client) readLoop() {
	defer func() {
		c.hub.leave <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "error", err)
			}
			return
		}
	}
}

// writeLoop pushes outbound frames and periodic pings to the connection.
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
