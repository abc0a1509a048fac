package hub

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"go-group-relay/internal/infrastructure/logger"
)

const (
	ConnectionTypeWebSocket = "websocket"
	ConnectionTypeSSE       = "sse"
)

// ConnectionOptions tunes the transport side of member connections.
type ConnectionOptions struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
	SendBuffer     int
	MessageRate    rate.Limit
	MessageBurst   int
	KeepAlive      time.Duration
	// IdleTimeout closes a member that has seen no data traffic for this
	// long. Pings and keep-alives do not count. Zero disables it.
	IdleTimeout    time.Duration
}

func DefaultConnectionOptions() ConnectionOptions {
	return ConnectionOptions{
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     256,
		MessageRate:    20,
		MessageBurst:   40,
		KeepAlive:      30 * time.Second,
		IdleTimeout:    30 * time.Minute,
	}
}

var (
	_ Connection = (*WebSocketConnection)(nil)
	_ Connection = (*SSEConnection)(nil)
)

// closer carries the idempotent close state shared by both transports.
type closer struct {
	ctx    context.Context
	cancel context.CancelFunc

	closed   bool
	closedMu sync.RWMutex

	lastActivity time.Time
	activityMu   sync.RWMutex
}

func (c *closer) init(parent context.Context) {
	c.ctx, c.cancel = context.WithCancel(parent)
	c.lastActivity = time.Now()
}

func (c *closer) touch() {
	c.activityMu.Lock()
	c.lastActivity = time.Now()
	c.activityMu.Unlock()
}

// LastActivity is when the connection last carried a data message.
func (c *closer) LastActivity() time.Time {
	c.activityMu.RLock()
	defer c.activityMu.RUnlock()
	return c.lastActivity
}

func (c *closer) idleFor(limit time.Duration) bool {
	return limit > 0 && time.Since(c.LastActivity()) > limit
}

// markClosed flips the state once; it reports whether this call did it.
func (c *closer) markClosed() bool {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	c.cancel()
	return true
}

func (c *closer) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

func (c *closer) Context() context.Context {
	return c.ctx
}

// enqueue hands message to a connection's writer loop.
func (c *closer) enqueue(ctx context.Context, send chan<- *Message, message *Message) error {
	if c.IsClosed() {
		return ErrConnectionClosed
	}

	select {
	case send <- message:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrSendBufferFull, ctx.Err())
	}
}

// WebSocketConnection implements the Connection interface for WebSocket connections
type WebSocketConnection struct {
	closer

	id      string
	groupID string
	conn    *websocket.Conn
	opts    ConnectionOptions

	logger  logger.Logger
	limiter *rate.Limiter
	onText  InboundHandler

	send chan *Message
}

// NewWebSocketConnection wraps an upgraded socket and starts its write pump.
// The caller drives the read side with ReadPump.
func NewWebSocketConnection(
	id string,
	groupID string,
	conn *websocket.Conn,
	opts ConnectionOptions,
	onText InboundHandler,
	logger logger.Logger,
) *WebSocketConnection {
	wsConn := &WebSocketConnection{
		id:      id,
		groupID: groupID,
		conn:    conn,
		opts:    opts,
		logger:  logger.WithFields(map[string]any{"connection_id": id, "group_id": groupID}),
		limiter: rate.NewLimiter(opts.MessageRate, opts.MessageBurst),
		onText:  onText,
		send:    make(chan *Message, opts.SendBuffer),
	}
	wsConn.closer.init(context.Background())

	wsConn.setupWebSocket()
	go wsConn.writePump()

	return wsConn
}

func (c *WebSocketConnection) ID() string {
	return c.id
}

func (c *WebSocketConnection) Type() string {
	return ConnectionTypeWebSocket
}

func (c *WebSocketConnection) GroupID() string {
	return c.groupID
}

// Send queues message for the write pump. A closed connection yields
// ErrConnectionClosed; a buffer that stays full until ctx ends yields
// ErrSendBufferFull.
func (c *WebSocketConnection) Send(ctx context.Context, message *Message) error {
	return c.enqueue(ctx, c.send, message)
}

// Close sends a close frame and tears down the socket. Safe to call repeatedly.
func (c *WebSocketConnection) Close() error {
	if !c.markClosed() {
		return nil
	}

	// WriteControl and Close may run concurrently with the write pump
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.opts.WriteTimeout),
	)
	err := c.conn.Close()

	c.logger.Info("WebSocket connection closed")
	return err
}

func (c *WebSocketConnection) setupWebSocket() {
	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
		return nil
	})
}

// writePump is the only writer of data frames on the socket.
func (c *WebSocketConnection) writePump() {
	ticker := time.NewTicker(c.opts.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Errorf("Failed to write message: %v", err)
				return
			}
			c.touch()

		case <-ticker.C:
			if c.idleFor(c.opts.IdleTimeout) {
				c.logger.Infof("Closing connection idle since %s", c.LastActivity().Format(time.RFC3339))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Errorf("Failed to send ping: %v", err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// ReadPump reads client frames until the connection ends and hands each
// text frame to the inbound handler in receipt order. It closes the
// connection on return.
func (c *WebSocketConnection) ReadPump() {
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				c.logger.Errorf("WebSocket error: %v", err)
			}
			return
		}

		c.touch()

		switch messageType {
		case websocket.TextMessage:
			if !c.limiter.Allow() {
				c.logger.Warn("Inbound rate limit exceeded, dropping message")
				c.notify(ErrorMessage("rate_limited", "message dropped: rate limit exceeded"))
				continue
			}
			c.logger.Debugf("Received text message of length %d", len(data))
			if c.onText != nil {
				c.onText(c.ctx, c, string(data))
			}

		case websocket.BinaryMessage:
			c.logger.Debugf("Ignoring binary message of length: %d", len(data))
		}
	}
}

// notify queues a message for this connection only, without blocking the
// read loop for longer than one write timeout.
func (c *WebSocketConnection) notify(message *Message) {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.WriteTimeout)
	defer cancel()
	if err := c.Send(ctx, message); err != nil {
		c.logger.Debugf("Failed to notify connection: %v", err)
	}
}

// SSEConnection is a receive-only group member streaming Server-Sent Events.
type SSEConnection struct {
	closer

	id      string
	groupID string
	writer  http.ResponseWriter
	opts    ConnectionOptions

	logger logger.Logger
	send   chan *Message
}

// NewSSEConnection creates a new SSE connection bound to the request context.
// Nothing is written until Serve runs.
func NewSSEConnection(
	ctx context.Context,
	id string,
	groupID string,
	w http.ResponseWriter,
	opts ConnectionOptions,
	logger logger.Logger,
) *SSEConnection {
	sseConn := &SSEConnection{
		id:      id,
		groupID: groupID,
		writer:  w,
		opts:    opts,
		logger:  logger.WithFields(map[string]any{"connection_id": id, "group_id": groupID}),
		send:    make(chan *Message, opts.SendBuffer),
	}
	sseConn.closer.init(ctx)
	return sseConn
}

func (c *SSEConnection) ID() string {
	return c.id
}

func (c *SSEConnection) Type() string {
	return ConnectionTypeSSE
}

func (c *SSEConnection) GroupID() string {
	return c.groupID
}

func (c *SSEConnection) Send(ctx context.Context, message *Message) error {
	return c.enqueue(ctx, c.send, message)
}

func (c *SSEConnection) Close() error {
	if c.markClosed() {
		c.logger.Info("SSE connection closed")
	}
	return nil
}

// Serve writes queued messages and keep-alives to the stream until the
// connection is closed or the client goes away. It closes the connection on
// return.
func (c *SSEConnection) Serve() {
	defer c.Close()

	keepAlive := c.opts.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultConnectionOptions().KeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			if err := c.writeEvent(message); err != nil {
				c.logger.Errorf("Failed to write event: %v", err)
				return
			}
			c.touch()

		case <-ticker.C:
			if c.idleFor(c.opts.IdleTimeout) {
				c.logger.Infof("Closing connection idle since %s", c.LastActivity().Format(time.RFC3339))
				return
			}
			if err := c.writeEvent(KeepAliveMessage()); err != nil {
				c.logger.Errorf("Failed to send keep-alive: %v", err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *SSEConnection) writeEvent(message *Message) error {
	err := sse.Encode(c.writer, sse.Event{
		Id:    message.ID,
		Event: message.Type,
		Data:  message.Data,
	})
	if err != nil {
		return err
	}
	if flusher, ok := c.writer.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
