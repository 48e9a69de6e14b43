package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shacharon/pizzasearch/internal/subscribe"
)

// writeWait bounds how long a single WebSocket write may take, grounded on
// the fixed writeWait/pongWait/pingPeriod constants of the gorilla hub
// pattern used elsewhere in the retrieved pack.
const writeWait = 10 * time.Second

// outboundBufferSize bounds the per-connection send queue; a connection
// whose consumer falls this far behind is disconnected rather than made to
// buffer unboundedly (§5 backpressure policy).
const outboundBufferSize = 256

// WSConnection is one WebSocket subscriber, owning one read goroutine and
// one write goroutine exactly as the teacher-adjacent gorilla hub pattern
// does (ReadPump/WritePump each single-owner over the connection), so that
// subscribe.Manager's per-subscriber FIFO delivery guarantee holds: a
// bounded channel drained by one goroutine preserves publish order.
type WSConnection struct {
	id      string
	conn    *websocket.Conn
	manager *subscribe.Manager
	hb      HeartbeatConfig

	send chan []byte

	mu            sync.Mutex
	subscriptions map[subscribeKey]struct{}
	closeOnce     sync.Once
	closed        chan struct{}

	lastActivityMu sync.Mutex
	lastActivity   time.Time
}

type subscribeKey struct {
	channel   subscribe.Channel
	requestID string
}

// NewWSConnection wraps an already-upgraded *websocket.Conn.
func NewWSConnection(conn *websocket.Conn, manager *subscribe.Manager, hb HeartbeatConfig) *WSConnection {
	return &WSConnection{
		id:            uuid.NewString(),
		conn:          conn,
		manager:       manager,
		hb:            hb,
		send:          make(chan []byte, outboundBufferSize),
		subscriptions: make(map[subscribeKey]struct{}),
		closed:        make(chan struct{}),
		lastActivity:  time.Now(),
	}
}

func (c *WSConnection) ID() string { return c.id }

// Send implements subscribe.Subscriber: a non-blocking enqueue onto the
// connection's outbound buffer. A full buffer disconnects the connection
// (§5: "overflow... disconnects that subscriber without affecting others")
// rather than silently dropping the event and leaving the subscriber in an
// inconsistent state.
func (c *WSConnection) Send(evt subscribe.Event) bool {
	raw, err := json.Marshal(evt)
	if err != nil {
		slog.Error("transport: failed to marshal event", "connection", c.id, "err", err)
		return false
	}
	select {
	case c.send <- raw:
		return true
	default:
		slog.Warn("transport: outbound buffer full, disconnecting subscriber", "connection", c.id)
		c.triggerClose(CloseReason("SEND_OVERFLOW"))
		return false
	}
}

// Serve runs the connection's read and write pumps, blocking until either
// exits. Call this from the HTTP handler goroutine after upgrade.
func (c *WSConnection) Serve(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()

	go c.idleMonitor()

	c.readPump(ctx)
	<-done
}

func (c *WSConnection) readPump(ctx context.Context) {
	defer func() {
		c.manager.Cleanup(c)
		close(c.closed)
		_ = c.conn.Close()
	}()

	pongWait := c.hb.Interval*2 + writeWait
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.touch()
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				c.sendClose(CloseHeartbeatTimeout)
			}
			return
		}
		c.touch()

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		c.handleMessage(ctx, msg)
	}
}

func (c *WSConnection) writePump() {
	ticker := time.NewTicker(c.hb.Interval)
	defer ticker.Stop()

	for {
		select {
		case raw, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *WSConnection) idleMonitor() {
	ticker := time.NewTicker(c.hb.IdleTimeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.lastActivityMu.Lock()
			idleFor := time.Since(c.lastActivity)
			c.lastActivityMu.Unlock()
			if idleFor >= c.hb.IdleTimeout {
				c.sendClose(CloseIdleTimeout)
				return
			}
		}
	}
}

func (c *WSConnection) touch() {
	c.lastActivityMu.Lock()
	c.lastActivity = time.Now()
	c.lastActivityMu.Unlock()
}

func (c *WSConnection) handleMessage(ctx context.Context, msg ClientMessage) {
	switch msg.Action {
	case actionSubscribe:
		c.handleSubscribe(ctx, msg)
	case actionUnsubscribe:
		c.manager.Unsubscribe(subscribe.Channel(msg.Channel), msg.RequestID, c)
		c.mu.Lock()
		delete(c.subscriptions, subscribeKey{subscribe.Channel(msg.Channel), msg.RequestID})
		c.mu.Unlock()
	}
}

func (c *WSConnection) handleSubscribe(ctx context.Context, msg ClientMessage) {
	channel := subscribe.Channel(msg.Channel)
	identity := subscribe.Identity{SessionID: msg.SessionID}

	ack, err := c.manager.Subscribe(ctx, channel, msg.RequestID, c, identity)
	if err != nil {
		var nack *subscribe.Nack
		reason := subscribe.NackInternal
		if asNack, ok := err.(*subscribe.Nack); ok {
			nack = asNack
			reason = nack.Reason
		}
		c.Send(subscribe.SubNackEvent{Channel: channel, RequestID: msg.RequestID, Reason: reason})
		return
	}

	c.mu.Lock()
	c.subscriptions[subscribeKey{channel, msg.RequestID}] = struct{}{}
	c.mu.Unlock()

	// §4.4(b): the job doesn't exist yet — acknowledge the pending
	// registration synchronously here. The later activation acknowledgement
	// (§4.10, ActivatePending) is a separate event sent once the job exists.
	if ack.Pending {
		c.Send(subscribe.SubAckEvent{Channel: channel, RequestID: msg.RequestID, Pending: true})
	}
}

// sendClose writes a structured close frame once and stops the pumps.
func (c *WSConnection) sendClose(reason CloseReason) {
	c.closeOnce.Do(func() {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(reason))
		_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
		_ = c.conn.Close()
	})
}

// triggerClose is called from Send (a different goroutine than readPump)
// when the outbound buffer overflows; it closes the underlying connection,
// which in turn unblocks ReadPump's blocking read with an error.
func (c *WSConnection) triggerClose(CloseReason) {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}
