package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	// ErrConnectionClosed is returned by Send after Close.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned when the outbound queue is saturated.
	ErrSendBufferFull = errors.New("send buffer full")
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 5 * time.Second
	maxMessageSize = 512 * 1024
	sendBufferSize = 256
)

// WSConn is a Conn backed by a gorilla websocket. A single writer goroutine
// drains the outbound queue; the owner runs ReadLoop on its own goroutine.
type WSConn struct {
	conn   *websocket.Conn
	userID string
	out    chan []byte
	done   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

// NewWSConn wraps conn and starts its write loop.
func NewWSConn(conn *websocket.Conn, userID string, logger zerolog.Logger) *WSConn {
	c := &WSConn{
		conn:   conn,
		userID: userID,
		out:    make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go c.writeLoop()
	return c
}

func (c *WSConn) UserID() string { return c.userID }

// Send implements Conn. A full queue drops the event for this connection.
func (c *WSConn) Send(event string, payload any) error {
	data, err := EncodeEvent(event, payload)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.out <- data:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// Done is closed once the connection is closed.
func (c *WSConn) Done() <-chan struct{} { return c.done }

func (c *WSConn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// ReadLoop delivers each inbound frame to onMsg in order until the peer
// goes away, then closes the connection.
func (c *WSConn) ReadLoop(onMsg func([]byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Debug().Err(err).Str("user_id", c.userID).Msg("unexpected close")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if len(data) > 0 {
			onMsg(data)
		}
	}
}

func (c *WSConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.out:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
			ping, _ := EncodeEvent(EventPing, nil)
			if err := c.write(websocket.TextMessage, ping); err != nil {
				return
			}
		}
	}
}

func (c *WSConn) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}
