package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024 * 16

	// Rate limiting: 20 messages per second with a burst of 30
	messagesPerSecond = 20
	burstLimit        = 30
)

type MessageHandler func(client *Client, messageType int, messageBytes []byte)

func NewClient(hub *Hub, conn *websocket.Conn, userId string, sessionId string, handler MessageHandler) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		userId:    userId,
		sessionId: sessionId,
		handler:   handler,
		rooms:     make(map[string]struct{}),
		Send:      make(chan []byte, 128),
		done:      make(chan struct{}),
		limiter:   rate.NewLimiter(rate.Limit(messagesPerSecond), burstLimit),
	}
}

// Client is a middleman between the websocket connection and the hub.
// The rooms set is owned by the hub's Run goroutine.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	userId    string
	sessionId string
	handler   MessageHandler
	rooms     map[string]struct{}
	Send      chan []byte // Buffered channel of outbound messages.
	done      chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter
}

// SessionId identifies this connection in room logs and events. It is
// minted per connection, not per user, so the same user on two tabs
// appears as two distinct collaborators.
func (c *Client) SessionId() string {
	return c.sessionId
}

func (c *Client) UserId() string {
	return c.userId
}

// shutdown asks the write pump to close the connection. Send stays
// open; only the done channel signals closure, so a frame queued by a
// racing goroutine can never hit a closed channel.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// trySend queues a frame without ever blocking the hub loop. A full
// buffer means the writer is dead or hopelessly behind; the frame is
// dropped rather than stalling every other room.
func (c *Client) trySend(messageBytes []byte) {
	select {
	case <-c.done:
	case c.Send <- messageBytes:
	default:
		log.Printf("Dropping frame for client %s: send buffer full", c.sessionId)
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.CloseCh <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		messageType, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS close error: %v", err)
			}
			break
		}

		if !c.limiter.Allow() {
			log.Printf("Closing connection for client %s: message rate limit exceeded", c.sessionId)
			break
		}

		c.handler(c, messageType, messageBytes)
	}
}

func (c *Client) WritePump(shutdownCtx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WS send error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			// Drain frames queued before the shutdown signal, then close.
			for {
				select {
				case message := <-c.Send:
					c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
						return
					}
				default:
					c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}

		case <-shutdownCtx.Done():
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Websocket service shutting down"),
			)
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
