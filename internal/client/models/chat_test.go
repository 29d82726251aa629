package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_UnmarshalJSON_AuthorForms(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantAuthor *User
	}{
		{
			name:       "object",
			in:         `{"id":"m1","body":"hi","timestamp":1000,"user":{"id":"u1","name":"ann","created_at":5}}`,
			wantAuthor: &User{ID: "u1", Name: "ann", CreatedAt: 5},
		},
		{
			name:       "single element list",
			in:         `{"id":"m1","body":"hi","timestamp":1000,"user":[{"id":"u1","name":"ann"}]}`,
			wantAuthor: &User{ID: "u1", Name: "ann"},
		},
		{
			name: "null",
			in:   `{"id":"m1","body":"hi","timestamp":1000,"user":null}`,
		},
		{
			name: "missing",
			in:   `{"id":"m1","body":"hi","timestamp":1000}`,
		},
		{
			name: "empty list",
			in:   `{"id":"m1","body":"hi","timestamp":1000,"user":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Message
			require.NoError(t, json.Unmarshal([]byte(tt.in), &m))
			assert.Equal(t, "m1", m.ID)
			assert.Equal(t, "hi", m.Body)
			assert.Equal(t, int64(1000), m.Timestamp)
			assert.Equal(t, tt.wantAuthor, m.Author)
		})
	}
}

func TestMessage_UnmarshalJSON_BadAuthor(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"id":"m1","user":"ann"}`), &m)
	require.Error(t, err)
}

func TestUserDirectory_Lookups(t *testing.T) {
	d := UserDirectory{Users: []User{{ID: "u1", Name: "ann"}, {ID: "u2", Name: "bob"}}}

	assert.True(t, d.HasName("bob"))
	assert.False(t, d.HasName("Bob"))

	u, ok := d.Find("u1")
	require.True(t, ok)
	assert.Equal(t, "ann", u.Name)

	_, ok = d.Find("")
	assert.False(t, ok)
}

func TestChannelDirectory_Names(t *testing.T) {
	d := ChannelDirectory{Channels: []Channel{{Name: "general"}, {Name: "random"}}}
	assert.Equal(t, []string{"general", "random"}, d.Names())
}
