package client

import (
	"context"
	"fmt"
	"time"

	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
)

// Store is the remote reactive store as seen by the chat core.
type Store interface {
	// Subscribe starts a live query. The subscription ends with ctx.
	Subscribe(ctx context.Context, q protocol.Query) (Subscription, error)
	// Transact applies b atomically.
	Transact(ctx context.Context, b protocol.Batch) error
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Subscription delivers successive snapshots of a live query. Only the
// latest unread snapshot is kept.
type Subscription interface {
	Updates() <-chan protocol.Result
	// Err is meaningful once Updates is closed.
	Err() error
}

type Transport string

const (
	TransportGRPC      Transport = "grpc"
	TransportWebSocket Transport = "ws"
	TransportLocal     Transport = "local"
)

// Options selects and configures a transport.
type Options struct {
	Transport Transport
	// Addr is the gRPC host:port.
	Addr string
	// URL is the WebSocket endpoint, e.g. ws://localhost:8080/ws.
	URL            string
	AppID          string
	RequestTimeout time.Duration
	Logger         logging.Logger
}

const defaultRequestTimeout = 10 * time.Second

// NewStore builds the transport named by opts.Transport.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	switch opts.Transport {
	case TransportGRPC, "":
		return NewGRPCClient(opts.Addr, opts.AppID, opts.RequestTimeout, opts.Logger)
	case TransportWebSocket:
		return NewWSClient(ctx, opts.URL, opts.AppID, opts.RequestTimeout, opts.Logger)
	case TransportLocal:
		return NewLocalStore(opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Transport)
	}
}
