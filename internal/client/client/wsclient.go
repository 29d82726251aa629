package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 4 << 20
)

// WSClient talks to the store over one WebSocket connection, multiplexing
// requests and subscriptions by frame id. A dropped connection fails all
// live subscriptions and is redialled on the next call.
type WSClient struct {
	url     string
	appID   string
	timeout time.Duration
	dialer  *websocket.Dialer
	log     logging.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan protocol.Frame
	subs    map[string]*protocol.Feed
	closed  bool

	writeMu sync.Mutex
}

func NewWSClient(ctx context.Context, url, appID string, timeout time.Duration, log logging.Logger) (*WSClient, error) {
	c := &WSClient{
		url:     url,
		appID:   appID,
		timeout: timeout,
		dialer:  websocket.DefaultDialer,
		log:     log.With("module", "wsclient"),
		pending: make(map[string]chan protocol.Frame),
		subs:    make(map[string]*protocol.Feed),
	}
	if _, err := c.connection(ctx); err != nil {
		c.log.Warn(ctx, "initial websocket dial failed", "url", url, "err", err)
	}
	return c, nil
}

// connection returns the live connection, dialling if needed.
func (c *WSClient) connection(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.conn != nil {
		return c.conn, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	header := http.Header{}
	if c.appID != "" {
		header.Set(common.AppIDHeaderName, c.appID)
	}
	conn, _, err := c.dialer.DialContext(dialCtx, c.url, header)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, c.url, err)
	}

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	c.conn = conn
	done := make(chan struct{})
	go c.readPump(conn, done)
	go c.pingPump(conn, done)
	return conn, nil
}

func (c *WSClient) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		var f protocol.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn(context.Background(), "websocket read failed", "err", err)
			}
			c.drop(conn, err)
			return
		}
		c.dispatch(f)
	}
}

func (c *WSClient) pingPump(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			c.writeMu.Unlock()
			if err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func (c *WSClient) dispatch(f protocol.Frame) {
	c.mu.Lock()
	feed := c.subs[f.ID]
	reply := c.pending[f.ID]
	if f.Type == protocol.FrameError && feed != nil {
		delete(c.subs, f.ID)
	}
	c.mu.Unlock()

	switch {
	case f.Type == protocol.FrameResult && feed != nil:
		feed.Push(f.Result)
	case f.Type == protocol.FrameError && feed != nil:
		feed.Finish(frameError(f))
	case reply != nil:
		select {
		case reply <- f:
		default:
		}
	}
}

// drop forgets conn and fails everything that was riding on it.
func (c *WSClient) drop(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	subs := c.subs
	c.subs = make(map[string]*protocol.Feed)
	for id, reply := range c.pending {
		select {
		case reply <- protocol.Frame{Type: protocol.FrameError, ID: id, Code: protocol.CodeUnavailable, Error: "connection lost"}:
		default:
		}
	}
	c.mu.Unlock()

	_ = conn.Close()

	err := fmt.Errorf("%w: connection lost: %v", ErrUnavailable, cause)
	for _, feed := range subs {
		feed.Finish(err)
	}
}

func (c *WSClient) write(conn *websocket.Conn, f protocol.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(f); err != nil {
		return fmt.Errorf("%w: write: %v", ErrUnavailable, err)
	}
	return nil
}

// request sends f and waits for the frame answering it.
func (c *WSClient) request(ctx context.Context, f protocol.Frame) (protocol.Frame, error) {
	conn, err := c.connection(ctx)
	if err != nil {
		return protocol.Frame{}, err
	}

	f.ID = ulid.Make().String()
	reply := make(chan protocol.Frame, 1)

	c.mu.Lock()
	c.pending[f.ID] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, f.ID)
		c.mu.Unlock()
	}()

	if err := c.write(conn, f); err != nil {
		c.drop(conn, err)
		return protocol.Frame{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case r := <-reply:
		if r.Type == protocol.FrameError {
			return r, frameError(r)
		}
		return r, nil
	case <-ctx.Done():
		return protocol.Frame{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

func (c *WSClient) Ping(ctx context.Context) error {
	_, err := c.request(ctx, protocol.Frame{Type: protocol.FramePing})
	return err
}

func (c *WSClient) Transact(ctx context.Context, b protocol.Batch) error {
	_, err := c.request(ctx, protocol.Frame{Type: protocol.FrameTransact, Batch: &b})
	return err
}

func (c *WSClient) Subscribe(ctx context.Context, q protocol.Query) (Subscription, error) {
	conn, err := c.connection(ctx)
	if err != nil {
		return nil, err
	}

	id := ulid.Make().String()
	feed := protocol.NewFeed()

	c.mu.Lock()
	c.subs[id] = feed
	c.mu.Unlock()

	if err := c.write(conn, protocol.Frame{Type: protocol.FrameSubscribe, ID: id, Query: q.Map()}); err != nil {
		c.drop(conn, err)
		return nil, err
	}

	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			_, live := c.subs[id]
			delete(c.subs, id)
			c.mu.Unlock()
			if live {
				_ = c.write(conn, protocol.Frame{Type: protocol.FrameUnsubscribe, ID: id})
			}
			feed.Finish(nil)
		case <-feed.Done():
		}
	}()

	return feed, nil
}

func (c *WSClient) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
	c.writeMu.Unlock()

	return conn.Close()
}

func frameError(f protocol.Frame) error {
	base := common.ErrStoreTransport
	switch f.Code {
	case protocol.CodeInvalid:
		base = ErrRejected
	case protocol.CodeUnavailable:
		base = ErrUnavailable
	}
	if f.Error == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, f.Error)
}
