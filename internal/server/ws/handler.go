// Package ws serves the store over WebSocket JSON frames.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
	"github.com/reichert621/instachat/internal/server/memstore"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBufferSize = 256
)

type Handler struct {
	store    *memstore.Store
	appID    string
	upgrader websocket.Upgrader
	logger   logging.Logger

	mu    sync.Mutex
	conns map[*client]struct{}
}

func NewHandler(store *memstore.Store, appID string, l logging.Logger) *Handler {
	return &Handler{
		store: store,
		appID: appID,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: l.With("module", "ws"),
		conns:  make(map[*client]struct{}),
	}
}

// Close drops every open connection. Hijacked connections are not closed by
// http.Server.Shutdown.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		_ = c.conn.Close()
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.appID != "" && r.Header.Get(common.AppIDHeaderName) != h.appID && r.URL.Query().Get("app") != h.appID {
		http.Error(w, "unknown app id", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(r.Context(), "Failed to upgrade connection", "err", err, "remote_addr", r.RemoteAddr)
		return
	}

	c := &client{
		conn:   conn,
		store:  h.store,
		send:   make(chan protocol.Frame, sendBufferSize),
		done:   make(chan struct{}),
		subs:   make(map[string]context.CancelFunc),
		logger: h.logger.With("remote_addr", r.RemoteAddr),
	}
	c.logger.Info(r.Context(), "WebSocket connection established")

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
	}()

	go c.writePump()
	c.readPump()
}

// client is one connected peer. readPump owns the connection's reads,
// writePump its writes; everything else enqueues frames.
type client struct {
	conn   *websocket.Conn
	store  *memstore.Store
	send   chan protocol.Frame
	done   chan struct{}
	logger logging.Logger

	mu   sync.Mutex
	subs map[string]context.CancelFunc
}

func (c *client) enqueue(f protocol.Frame) {
	select {
	case c.send <- f:
	case <-c.done:
	}
}

func (c *client) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		close(c.done)
		_ = c.conn.Close()
		c.logger.Info(ctx, "Read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f protocol.Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn(ctx, "WebSocket read error", "err", err)
			}
			return
		}
		c.handle(ctx, f)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				c.logger.Error(context.Background(), "Failed to write frame", "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) handle(ctx context.Context, f protocol.Frame) {
	switch f.Type {
	case protocol.FramePing:
		c.enqueue(protocol.Frame{Type: protocol.FramePong, ID: f.ID})

	case protocol.FrameTransact:
		if f.Batch == nil {
			c.enqueue(errorFrame(f.ID, protocol.CodeInvalid, "transact without batch"))
			return
		}
		if err := c.store.Transact(ctx, *f.Batch); err != nil {
			c.enqueue(errorFrame(f.ID, errorCode(err), err.Error()))
			return
		}
		c.enqueue(protocol.Frame{Type: protocol.FrameAck, ID: f.ID})

	case protocol.FrameSubscribe:
		c.subscribe(ctx, f)

	case protocol.FrameUnsubscribe:
		c.mu.Lock()
		cancel := c.subs[f.ID]
		delete(c.subs, f.ID)
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}

	default:
		c.enqueue(errorFrame(f.ID, protocol.CodeInvalid, "unknown frame type "+string(f.Type)))
	}
}

func (c *client) subscribe(ctx context.Context, f protocol.Frame) {
	q, err := protocol.ParseQuery(f.Query)
	if err != nil {
		c.enqueue(errorFrame(f.ID, protocol.CodeInvalid, err.Error()))
		return
	}

	subCtx, cancel := context.WithCancel(ctx)
	feed, err := c.store.Subscribe(subCtx, q)
	if err != nil {
		cancel()
		c.enqueue(errorFrame(f.ID, errorCode(err), err.Error()))
		return
	}

	c.mu.Lock()
	c.subs[f.ID] = cancel
	c.mu.Unlock()

	go func() {
		for r := range feed.Updates() {
			if subCtx.Err() != nil {
				continue
			}
			c.enqueue(protocol.Frame{Type: protocol.FrameResult, ID: f.ID, Result: r})
		}
		if err := feed.Err(); err != nil && subCtx.Err() == nil {
			c.enqueue(errorFrame(f.ID, errorCode(err), err.Error()))
		}
	}()
}

func errorFrame(id, code, msg string) protocol.Frame {
	return protocol.Frame{Type: protocol.FrameError, ID: id, Code: code, Error: msg}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidOp):
		return protocol.CodeInvalid
	case errors.Is(err, memstore.ErrClosed):
		return protocol.CodeUnavailable
	default:
		return ""
	}
}
