// Package common contains shared constants and sentinel errors used across
// InstaChat components.
package common

// IdentityCacheKey is the fixed key under which the local user id is kept in
// both durable key-value storage and the cookie jar.
const IdentityCacheKey = "__instachat_id"

// AppIDHeaderName is the gRPC metadata / HTTP header key carrying the
// application id on outbound store requests.
const AppIDHeaderName = "x-instachat-app"

// DefaultChannels are the channels a fresh store is seeded with.
var DefaultChannels = []string{"general", "introductions", "random"}
