package protocol

type FrameType string

// Client to store.
const (
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"
	FrameTransact    FrameType = "transact"
	FramePing        FrameType = "ping"
)

// Store to client.
const (
	FrameResult FrameType = "result"
	FrameAck    FrameType = "ack"
	FrameError  FrameType = "error"
	FramePong   FrameType = "pong"
)

// Error codes carried by FrameError.
const (
	CodeInvalid     = "invalid"
	CodeUnavailable = "unavailable"
)

// Frame is the JSON envelope of the WebSocket transport. ID correlates a
// request with its replies; for subscriptions every result reuses the
// subscribe frame's ID.
type Frame struct {
	Type   FrameType      `json:"type"`
	ID     string         `json:"id,omitempty"`
	Query  map[string]any `json:"query,omitempty"`
	Batch  *Batch         `json:"batch,omitempty"`
	Result Result         `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Code   string         `json:"code,omitempty"`
}
