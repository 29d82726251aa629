package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
	"github.com/reichert621/instachat/internal/server/memstore"
	"github.com/reichert621/instachat/internal/server/ws"
)

type wsServer struct {
	store   *memstore.Store
	handler *ws.Handler
	srv     *httptest.Server
	url     string
}

func startWSServer(t *testing.T, appID string) *wsServer {
	t.Helper()
	store := memstore.New(logging.NopLogger{})
	h := ws.NewHandler(store, appID, logging.NopLogger{})
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
		store.Close()
	})
	return &wsServer{store: store, handler: h, srv: srv, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (s *wsServer) client(t *testing.T, appID string) *WSClient {
	t.Helper()
	c, err := NewWSClient(context.Background(), s.url, appID, 2*time.Second, logging.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestWSClient_Ping(t *testing.T) {
	srv := startWSServer(t, "")
	require.NoError(t, srv.client(t, "").Ping(context.Background()))
}

func TestWSClient_SubscribeSeesTransact(t *testing.T) {
	srv := startWSServer(t, "")
	c := srv.client(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := c.Subscribe(ctx, protocol.Query{"channels": {}})
	require.NoError(t, err)
	assert.Empty(t, nextResult(t, sub)["channels"])

	require.NoError(t, c.Transact(ctx, protocol.Batch{TxID: "t1", Ops: []protocol.Op{
		protocol.Update("channels", "c1", map[string]any{"name": "general"}),
	}}))

	r := nextResult(t, sub)
	assert.Equal(t, []any{map[string]any{"id": "c1", "name": "general"}}, r["channels"])
}

func TestWSClient_TransactRejected(t *testing.T) {
	srv := startWSServer(t, "")
	c := srv.client(t, "")

	err := c.Transact(context.Background(), protocol.Batch{TxID: "t"})
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, err, common.ErrStoreTransport)
}

func TestWSClient_CancelEndsSubscription(t *testing.T) {
	srv := startWSServer(t, "")
	c := srv.client(t, "")
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := c.Subscribe(ctx, protocol.Query{"users": {}})
	require.NoError(t, err)
	nextResult(t, sub)

	cancel()
	for range sub.Updates() {
	}
	assert.NoError(t, sub.Err())

	// The connection stays usable.
	require.NoError(t, c.Ping(context.Background()))
}

func TestWSClient_ConnectionLossFailsSubscriptions(t *testing.T) {
	srv := startWSServer(t, "")
	c := srv.client(t, "")

	sub, err := c.Subscribe(context.Background(), protocol.Query{"users": {}})
	require.NoError(t, err)
	nextResult(t, sub)

	srv.handler.Close()

	select {
	case <-sub.(*protocol.Feed).Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription survived connection loss")
	}
	assert.ErrorIs(t, sub.Err(), ErrUnavailable)

	// Next call redials.
	require.NoError(t, c.Ping(context.Background()))
}

func TestWSClient_Unreachable(t *testing.T) {
	c, err := NewWSClient(context.Background(), "ws://127.0.0.1:1/ws", "", 500*time.Millisecond, logging.NopLogger{})
	require.NoError(t, err)
	defer c.Close()

	assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)

	_, err = c.Subscribe(context.Background(), protocol.Query{"users": {}})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestWSClient_ClosedClient(t *testing.T) {
	srv := startWSServer(t, "")
	c := srv.client(t, "")

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Ping(context.Background()), ErrClosed)
}

func TestWSClient_AppIDHeader(t *testing.T) {
	srv := startWSServer(t, "instachat")

	assert.ErrorIs(t, srv.client(t, "other").Ping(context.Background()), ErrUnavailable)
	assert.NoError(t, srv.client(t, "instachat").Ping(context.Background()))
}
