package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reichert621/instachat/internal/client/models"
	"github.com/reichert621/instachat/internal/protocol"
)

func TestDecodeChannels(t *testing.T) {
	d, err := DecodeChannels(protocol.Result{"channels": []any{
		map[string]any{"id": "c1", "name": "general"},
		map[string]any{"id": "c2", "name": "random"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"general", "random"}, d.Names())

	_, err = DecodeChannels(protocol.Result{})
	assert.Error(t, err)
}

func TestDecodeUsers(t *testing.T) {
	d, err := DecodeUsers(protocol.Result{"users": []any{
		map[string]any{"id": "u1", "name": "ann", "created_at": float64(1700000000000)},
	}})
	require.NoError(t, err)
	assert.Equal(t, []models.User{{ID: "u1", Name: "ann", CreatedAt: 1700000000000}}, d.Users)

	_, err = DecodeUsers(protocol.Result{"channels": []any{}})
	assert.Error(t, err)
}

func TestDecodeActiveChannel(t *testing.T) {
	general := map[string]any{"id": "c1", "name": "general"}

	tests := []struct {
		name     string
		in       protocol.Result
		wantName string
	}{
		{name: "object", in: protocol.Result{"channel": general}, wantName: "general"},
		{name: "single element list", in: protocol.Result{"channel": []any{general}}, wantName: "general"},
		{name: "null", in: protocol.Result{"channel": nil}},
		{name: "missing", in: protocol.Result{}},
		{name: "empty list", in: protocol.Result{"channel": []any{}}},
		{name: "two element list", in: protocol.Result{"channel": []any{general, general}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeActiveChannel(tt.in)
			require.NoError(t, err)
			if tt.wantName == "" {
				assert.Nil(t, got.Channel)
				return
			}
			require.NotNil(t, got.Channel)
			assert.Equal(t, tt.wantName, got.Channel.Name)
		})
	}
}

func TestDecodeActiveChannel_Malformed(t *testing.T) {
	_, err := DecodeActiveChannel(protocol.Result{"channel": "general"})
	assert.Error(t, err)
}
