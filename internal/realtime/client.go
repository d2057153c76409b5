package realtime

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pingInterval = 25 * time.Second
)

// Client is one websocket subscriber.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	userID       int64
	conversation int64
	send         chan Event
}

// enqueue hands an event to the write pump, dropping it when the client
// cannot keep up. Callers hold the hub lock, so the channel is never closed
// concurrently.
func (c *Client) enqueue(ev Event) {
	select {
	case c.send <- ev:
	default:
		c.hub.logger.Warnf("Dropping event for slow client (user %d)", c.userID)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.hub.logger.Debugf("Write to client failed: %v", err)
				c.hub.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.unregister(c)
				return
			}
		}
	}
}

// readPump discards inbound frames; the feed is one-way. It exists to
// notice the peer going away and tear the subscription down.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
