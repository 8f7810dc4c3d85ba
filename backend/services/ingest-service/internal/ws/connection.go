package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxFrameBytes = 1024 * 1024

// MessageProcessor handles one raw sample frame and returns the reply frame.
type MessageProcessor interface {
	Process(ctx context.Context, sessionID string, raw []byte) ([]byte, error)
}

// Connection is one producer stream bound to a session.
type Connection struct {
	id           string
	sessionID    string
	ws           *websocket.Conn
	send         chan []byte
	done         chan struct{}
	logger       *zap.Logger
	processor    MessageProcessor
	writeTimeout time.Duration
	pongWait     time.Duration
	onClose      func(id string)
}

// NewConnection builds connection wrapper.
func NewConnection(id, sessionID string, ws *websocket.Conn, processor MessageProcessor, writeTimeout, pongWait time.Duration, logger *zap.Logger, onClose func(string)) *Connection {
	return &Connection{
		id:           id,
		sessionID:    sessionID,
		ws:           ws,
		send:         make(chan []byte, 16),
		done:         make(chan struct{}),
		logger:       logger.With(zap.String("conn_id", id), zap.String("session_id", sessionID)),
		processor:    processor,
		writeTimeout: writeTimeout,
		pongWait:     pongWait,
		onClose:      onClose,
	}
}

// ID returns identifier.
func (c *Connection) ID() string {
	return c.id
}

// Start launches read/write pumps. Frames are processed in arrival order.
func (c *Connection) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Connection) readPump(ctx context.Context) {
	defer c.cleanup()
	c.ws.SetReadLimit(maxFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Info("connection read closed", zap.Error(err))
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))

		response, err := c.processor.Process(ctx, c.sessionID, message)
		if err != nil {
			c.logger.Warn("failed to process message", zap.Error(err))
			continue
		}
		if response != nil {
			c.Send(response)
		}
	}
}

func (c *Connection) writePump(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.logger.Info("connection write failed", zap.Error(err))
				_ = c.ws.Close()
				return
			}
		}
	}
}

// Send enqueues a message for writing. It waits for buffer space until the write pump exits.
func (c *Connection) Send(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("attempted to send on closed channel")
		}
	}()
	select {
	case c.send <- msg:
	case <-c.done:
		c.logger.Warn("dropping outgoing message, writer stopped")
	}
}

// Ping sends a control frame; safe to call concurrently with the pumps.
func (c *Connection) Ping() error {
	return c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(c.writeTimeout))
}

// Close terminates the underlying socket, which ends the read pump.
func (c *Connection) Close() error {
	return c.ws.Close()
}

func (c *Connection) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Connection) cleanup() {
	close(c.send)
	if c.onClose != nil {
		c.onClose(c.id)
	}
}
