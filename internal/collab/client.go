package collab

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client owns one websocket connection: a read pump that feeds the event
// router and a write pump draining the buffered send channel. All state
// about who the client is lives in the ConnectionRegistry, keyed by id.
type Client struct {
	id     string
	conn   *websocket.Conn
	server *CollabServer
	log    *log.Logger
	send   chan *ServerEvent
	stop   chan struct{}
	once   sync.Once
}

func (c *Client) Id() string {
	return c.id
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}

			if !c.writeEvent(ev) {
				return
			}
		case <-c.stop:
			// drain anything queued before the stop was signalled so a
			// final error event still reaches the peer
			for {
				select {
				case ev := <-c.send:
					if !c.writeEvent(ev) {
						return
					}
				default:
					c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					c.conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.server.handleDisconnect(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var ev ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Printf("conn %s: malformed event: %v", c.id, err)
			c.queueEvent(ErrorEvent("Invalid event format"))
			continue
		}

		c.server.routeEvent(c, &ev)
	}
}

func (c *Client) writeEvent(ev *ServerEvent) bool {
	bytes, err := json.Marshal(ev)
	if err != nil {
		c.log.Printf("conn %s: failed to serialize event: %v", c.id, err)
		return true
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, bytes); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("conn %s: write: %v", c.id, err)
		}
		return false
	}

	return true
}

// queueEvent delivers best-effort: a full send channel drops the event
// rather than blocking the caller.
func (c *Client) queueEvent(ev *ServerEvent) bool {
	select {
	case c.send <- ev:
	default:
		c.log.Printf("conn %s: send channel full, dropping %s", c.id, ev.Event)
		return false
	}

	return true
}

// close signals both pumps to exit. Safe to call more than once.
func (c *Client) close() {
	c.once.Do(func() {
		close(c.stop)
	})
}
