package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
)

func activeChannelQuery(name string) protocol.Query {
	return protocol.Query{
		"channel": {
			Is:          "channels",
			Where:       map[string]any{"name": name},
			Cardinality: protocol.CardinalityOne,
			Children: protocol.Query{
				"messages": {
					Children: protocol.Query{
						"user": {Is: "users", Cardinality: protocol.CardinalityOne},
					},
				},
			},
		},
	}
}

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New(logging.NopLogger{})
	t.Cleanup(s.Close)

	err := s.Transact(context.Background(), protocol.Batch{TxID: "seed", Ops: []protocol.Op{
		protocol.Update("channels", "c1", map[string]any{"name": "general"}),
		protocol.Update("channels", "c2", map[string]any{"name": "random"}),
		protocol.Update("users", "u1", map[string]any{"name": "ann", "created_at": int64(1)}),
	}})
	require.NoError(t, err)
	return s
}

func sendBatch(msgID, channelID, userID, body string, ts int64) protocol.Batch {
	return protocol.Batch{TxID: "tx-" + msgID, Ops: []protocol.Op{
		protocol.Update("messages", msgID, map[string]any{"body": body, "timestamp": ts}),
		protocol.Link("channels", channelID, "messages", msgID),
		protocol.Link("users", userID, "messages", msgID),
	}}
}

func next(t *testing.T, feed *protocol.Feed) protocol.Result {
	t.Helper()
	select {
	case r, ok := <-feed.Updates():
		require.True(t, ok, "feed closed")
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestQuery_Collections(t *testing.T) {
	s := seeded(t)

	r, err := s.Query(protocol.Query{"channels": {}})
	require.NoError(t, err)

	assert.Equal(t, []any{
		map[string]any{"id": "c1", "name": "general"},
		map[string]any{"id": "c2", "name": "random"},
	}, r["channels"])
}

func TestQuery_ActiveChannelWithReverseAuthor(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.Transact(context.Background(), sendBatch("m1", "c1", "u1", "hi", 100)))

	r, err := s.Query(activeChannelQuery("general"))
	require.NoError(t, err)

	want := map[string]any{
		"id":   "c1",
		"name": "general",
		"messages": []any{
			map[string]any{
				"id":        "m1",
				"body":      "hi",
				"timestamp": int64(100),
				"user":      map[string]any{"id": "u1", "name": "ann", "created_at": int64(1)},
			},
		},
	}
	assert.Equal(t, want, r["channel"])
}

func TestQuery_CardinalityOneNoMatch(t *testing.T) {
	s := seeded(t)

	r, err := s.Query(activeChannelQuery("nope"))
	require.NoError(t, err)

	v, ok := r["channel"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestQuery_CardinalityOneDuplicateName(t *testing.T) {
	s := New(logging.NopLogger{})
	t.Cleanup(s.Close)

	require.NoError(t, s.Transact(context.Background(), protocol.Batch{Ops: []protocol.Op{
		protocol.Update("channels", "c1", map[string]any{"name": "general"}),
		protocol.Update("channels", "c2", map[string]any{"name": "general"}),
	}}))

	r, err := s.Query(activeChannelQuery("general"))
	require.NoError(t, err)

	v, ok := r["channel"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestQuery_ChannelWithoutMessages(t *testing.T) {
	s := seeded(t)

	r, err := s.Query(activeChannelQuery("random"))
	require.NoError(t, err)

	ch := r["channel"].(map[string]any)
	assert.Equal(t, []any{}, ch["messages"])
}

func TestTransact_InvalidBatchAppliesNothing(t *testing.T) {
	s := seeded(t)

	err := s.Transact(context.Background(), protocol.Batch{Ops: []protocol.Op{
		protocol.Update("messages", "m9", map[string]any{"body": "x"}),
		protocol.Link("channels", "c1", "messages", ""),
	}})
	require.ErrorIs(t, err, common.ErrInvalidOp)

	r, err := s.Query(protocol.Query{"messages": {}})
	require.NoError(t, err)
	assert.Empty(t, r["messages"])
}

func TestTransact_UpdateMergesAndLinkDedups(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.Transact(ctx, sendBatch("m1", "c1", "u1", "hi", 100)))
	require.NoError(t, s.Transact(ctx, sendBatch("m1", "c1", "u1", "edited", 100)))

	r, err := s.Query(activeChannelQuery("general"))
	require.NoError(t, err)

	msgs := r["channel"].(map[string]any)["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "edited", msgs[0].(map[string]any)["body"])
}

func TestSubscribe_PushesAfterCommit(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := s.Subscribe(ctx, activeChannelQuery("general"))
	require.NoError(t, err)

	first := next(t, feed)
	assert.Equal(t, []any{}, first["channel"].(map[string]any)["messages"])

	require.NoError(t, s.Transact(ctx, sendBatch("m1", "c1", "u1", "hi", 100)))

	second := next(t, feed)
	assert.Len(t, second["channel"].(map[string]any)["messages"], 1)
}

func TestSubscribe_CancelFinishesWithoutError(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())

	feed, err := s.Subscribe(ctx, protocol.Query{"users": {}})
	require.NoError(t, err)
	next(t, feed)

	cancel()

	select {
	case <-feed.Done():
	case <-time.After(time.Second):
		t.Fatal("feed not finished after cancel")
	}
	assert.NoError(t, feed.Err())
}

func TestClose_FinishesFeedsWithErrClosed(t *testing.T) {
	s := New(logging.NopLogger{})

	feed, err := s.Subscribe(context.Background(), protocol.Query{"users": {}})
	require.NoError(t, err)

	s.Close()
	<-feed.Done()
	assert.ErrorIs(t, feed.Err(), ErrClosed)

	_, err = s.Subscribe(context.Background(), protocol.Query{"users": {}})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Transact(context.Background(), sendBatch("m", "c", "u", "x", 1)), ErrClosed)
}

func TestSubscribe_EmptyQuery(t *testing.T) {
	s := New(logging.NopLogger{})
	defer s.Close()

	_, err := s.Subscribe(context.Background(), protocol.Query{})
	assert.ErrorIs(t, err, common.ErrInvalidOp)
}
