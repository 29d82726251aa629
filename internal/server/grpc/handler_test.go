package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
	"github.com/reichert621/instachat/internal/server/memstore"
)

type fakeStream struct {
	grpc.ServerStream
	ctx  context.Context
	sent chan *structpb.Struct
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func (f *fakeStream) Send(m *structpb.Struct) error {
	f.sent <- m
	return nil
}

func newTestServer(t *testing.T, appID string) *GRPCServer {
	t.Helper()
	store := memstore.New(logging.NopLogger{})
	t.Cleanup(store.Close)
	return NewGRPCServer("127.0.0.1:0", appID, store, logging.NopLogger{})
}

func mustBatch(t *testing.T, b protocol.Batch) *structpb.Struct {
	t.Helper()
	s, err := protocol.BatchToStruct(b)
	require.NoError(t, err)
	return s
}

func TestPing(t *testing.T) {
	s := newTestServer(t, "")
	_, err := s.Ping(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
}

func TestTransact_Applies(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	_, err := s.Transact(ctx, mustBatch(t, protocol.Batch{TxID: "t1", Ops: []protocol.Op{
		protocol.Update("channels", "c1", map[string]any{"name": "general"}),
	}}))
	require.NoError(t, err)

	r, err := s.store.Query(protocol.Query{"channels": {}})
	require.NoError(t, err)
	assert.Len(t, r["channels"], 1)
}

func TestTransact_InvalidBatch(t *testing.T) {
	s := newTestServer(t, "")

	_, err := s.Transact(context.Background(), mustBatch(t, protocol.Batch{TxID: "t1", Ops: []protocol.Op{
		protocol.Link("channels", "c1", "messages", ""),
	}}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestTransact_MalformedStruct(t *testing.T) {
	s := newTestServer(t, "")

	req, err := structpb.NewStruct(map[string]any{"tx_id": "x"})
	require.NoError(t, err)

	_, err = s.Transact(context.Background(), req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSubscribe_StreamsSnapshots(t *testing.T) {
	s := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())

	req, err := protocol.QueryToStruct(protocol.Query{"channels": {}})
	require.NoError(t, err)

	stream := &fakeStream{ctx: ctx, sent: make(chan *structpb.Struct, 4)}
	done := make(chan error, 1)
	go func() { done <- s.Subscribe(req, stream) }()

	first := <-stream.sent
	assert.Empty(t, first.AsMap()["channels"])

	require.NoError(t, s.store.Transact(ctx, protocol.Batch{TxID: "t", Ops: []protocol.Op{
		protocol.Update("channels", "c1", map[string]any{"name": "general"}),
	}}))

	select {
	case second := <-stream.sent:
		assert.Len(t, second.AsMap()["channels"], 1)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after commit")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}

func TestSubscribe_BadQuery(t *testing.T) {
	s := newTestServer(t, "")

	req, err := structpb.NewStruct(map[string]any{"channels": "all"})
	require.NoError(t, err)

	err = s.Subscribe(req, &fakeStream{ctx: context.Background()})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAppIDInterceptor(t *testing.T) {
	s := newTestServer(t, "instachat")
	info := &grpc.UnaryServerInfo{FullMethod: protocol.PingMethod}

	called := false
	h := func(ctx context.Context, req any) (any, error) {
		called = true
		return "ok", nil
	}

	_, err := s.appIDInterceptor(context.Background(), nil, info, h)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.False(t, called)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AppIDHeaderName, "instachat"))
	resp, err := s.appIDInterceptor(ctx, nil, info, h)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", resp)
}

func TestAppIDInterceptor_OpenWhenUnset(t *testing.T) {
	s := newTestServer(t, "")
	info := &grpc.UnaryServerInfo{FullMethod: protocol.PingMethod}

	resp, err := s.appIDInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}
