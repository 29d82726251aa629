package txn

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reichert621/instachat/internal/client/models"
	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/protocol"
)

var fixedNow = time.UnixMilli(1700000000000)

func newTestComposer() *Composer {
	n := 0
	return NewComposer(
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		WithTxIDGenerator(func() string { return "tx" }),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func TestRegistration(t *testing.T) {
	b, u := newTestComposer().Registration("ann")

	assert.Equal(t, models.User{ID: "id-1", Name: "ann", CreatedAt: 1700000000000}, u)
	want := protocol.Batch{TxID: "tx", Ops: []protocol.Op{
		protocol.Update("users", "id-1", map[string]any{"id": "id-1", "name": "ann", "created_at": int64(1700000000000)}),
	}}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Fatalf("batch mismatch (-want +got):\n%s", diff)
	}
}

func TestSendMessage_Hi(t *testing.T) {
	b, id, err := newTestComposer().SendMessage("c1", "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	want := protocol.Batch{TxID: "tx", Ops: []protocol.Op{
		protocol.Update("messages", "id-1", map[string]any{"body": "hi", "timestamp": int64(1700000000000)}),
		protocol.Link("channels", "c1", "messages", "id-1"),
		protocol.Link("users", "u1", "messages", "id-1"),
	}}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Fatalf("batch mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, b.Validate())
}

func TestSendMessage_ExactlyThreeOpsOneID(t *testing.T) {
	c := NewComposer()

	for i := 0; i < 20; i++ {
		b, id, err := c.SendMessage("c1", "u1", "hello")
		require.NoError(t, err)
		require.Len(t, b.Ops, 3)
		assert.Equal(t, id, b.Ops[0].ID)
		assert.Equal(t, id, b.Ops[1].Target)
		assert.Equal(t, id, b.Ops[2].Target)
		assert.NotEmpty(t, b.TxID)
	}
}

func TestSendMessage_Preconditions(t *testing.T) {
	tests := []struct {
		name      string
		channelID string
		userID    string
		body      string
		want      error
	}{
		{name: "no user beats everything", channelID: "", userID: "", body: "", want: common.ErrNotAuthenticated},
		{name: "empty body", channelID: "c1", userID: "u1", body: "", want: common.ErrEmptyMessage},
		{name: "whitespace body", channelID: "c1", userID: "u1", body: " \t\n", want: common.ErrEmptyMessage},
		{name: "empty body beats missing channel", channelID: "", userID: "u1", body: "  ", want: common.ErrEmptyMessage},
		{name: "no channel", channelID: "", userID: "u1", body: "hi", want: common.ErrNoActiveChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, id, err := newTestComposer().SendMessage(tt.channelID, tt.userID, tt.body)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, id)
			assert.Empty(t, b.Ops)
		})
	}
}

func TestSendMessage_BodyNotTrimmed(t *testing.T) {
	b, _, err := newTestComposer().SendMessage("c1", "u1", "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "  hi  ", b.Ops[0].Fields["body"])
}

func TestSeedChannels(t *testing.T) {
	b := newTestComposer().SeedChannels([]string{"general"})

	require.Len(t, b.Ops, 2)
	assert.Equal(t, "introductions", b.Ops[0].Fields["name"])
	assert.Equal(t, "random", b.Ops[1].Fields["name"])

	empty := newTestComposer().SeedChannels(common.DefaultChannels)
	assert.Empty(t, empty.Ops)
}

func TestDefaults(t *testing.T) {
	b, u := NewComposer().Registration("ann")
	assert.Len(t, u.ID, 36)
	assert.Len(t, b.TxID, 26)
	assert.WithinDuration(t, time.Now(), time.UnixMilli(u.CreatedAt), time.Minute)
}
