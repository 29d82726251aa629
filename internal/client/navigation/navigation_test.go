package navigation

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelFromQuery(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
		want string
	}{
		{name: "none", q: url.Values{}, want: ""},
		{name: "c", q: url.Values{"c": {"general"}}, want: "general"},
		{name: "cid", q: url.Values{"cid": {"random"}}, want: "random"},
		{name: "channel", q: url.Values{"channel": {"intro"}}, want: "intro"},
		{name: "c beats cid", q: url.Values{"c": {"a"}, "cid": {"b"}, "channel": {"c"}}, want: "a"},
		{name: "cid beats channel", q: url.Values{"cid": {"b"}, "channel": {"c"}}, want: "b"},
		{name: "blank c falls through", q: url.Values{"c": {" "}, "channel": {"c"}}, want: "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChannelFromQuery(tt.q))
		})
	}
}

func TestChannelFromURL(t *testing.T) {
	got, err := ChannelFromURL("http://localhost:3000/?c=general")
	require.NoError(t, err)
	assert.Equal(t, "general", got)

	got, err = ChannelFromURL("/?cid=random")
	require.NoError(t, err)
	assert.Equal(t, "random", got)

	got, err = ChannelFromURL("channel=introductions")
	require.NoError(t, err)
	assert.Equal(t, "introductions", got)

	_, err = ChannelFromURL("http://[::1")
	assert.Error(t, err)
}
