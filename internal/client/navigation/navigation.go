// Package navigation extracts the requested channel from deep links.
package navigation

import (
	"net/url"
	"strings"
)

// ChannelParams are the query parameters naming a channel, in precedence
// order.
var ChannelParams = []string{"c", "cid", "channel"}

// ChannelFromQuery returns the first non-empty channel parameter.
func ChannelFromQuery(q url.Values) string {
	for _, p := range ChannelParams {
		if v := strings.TrimSpace(q.Get(p)); v != "" {
			return v
		}
	}
	return ""
}

// ChannelFromURL parses raw as a URL, or a bare query string, and returns
// the channel it names.
func ChannelFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.RawQuery == "" && !strings.Contains(raw, "?") {
		q, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
		if err != nil {
			return "", err
		}
		return ChannelFromQuery(q), nil
	}
	return ChannelFromQuery(u.Query()), nil
}
