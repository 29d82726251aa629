package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
)

type GRPCClient struct {
	endpointURL string
	appID       string
	timeout     time.Duration
	conn        *grpc.ClientConn
	log         logging.Logger
}

func withAppID(ctx context.Context, appID string) context.Context {
	if appID == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AppIDHeaderName, appID)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) appIDInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAppID(ctx, c.appID), method, req, reply, cc, opts...)
}

func (c *GRPCClient) appIDStreamInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withAppID(ctx, c.appID), desc, cc, method, opts...)
}

// NewGRPCClient prepares a connection to endpointURL. The connection is
// established lazily on the first call.
func NewGRPCClient(endpointURL, appID string, timeout time.Duration, log logging.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		appID:       appID,
		timeout:     timeout,
		log:         log.With("module", "grpcclient"),
	}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *GRPCClient) InitGRPCClient(extra ...grpc.DialOption) error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.appIDInterceptor),
		grpc.WithStreamInterceptor(c.appIDStreamInterceptor),
	}, extra...)

	conn, err := grpc.NewClient(c.endpointURL, opts...)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.conn.Invoke(ctx, protocol.PingMethod, &emptypb.Empty{}, &emptypb.Empty{}); err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *GRPCClient) Transact(ctx context.Context, b protocol.Batch) error {
	req, err := protocol.BatchToStruct(b)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.conn.Invoke(ctx, protocol.TransactMethod, req, &emptypb.Empty{}); err != nil {
		return c.mapError(err)
	}
	return nil
}

// Subscribe opens a server stream that lives as long as ctx.
func (c *GRPCClient) Subscribe(ctx context.Context, q protocol.Query) (Subscription, error) {
	req, err := protocol.QueryToStruct(q)
	if err != nil {
		return nil, err
	}

	stream, err := c.conn.NewStream(ctx, &protocol.StoreServiceDesc.Streams[0], protocol.SubscribeMethod)
	if err != nil {
		return nil, c.mapError(err)
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, c.mapError(err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, c.mapError(err)
	}

	feed := protocol.NewFeed()
	go c.receive(ctx, stream, feed)
	return feed, nil
}

func (c *GRPCClient) receive(ctx context.Context, stream grpc.ClientStream, feed *protocol.Feed) {
	for {
		msg := new(structpb.Struct)
		err := stream.RecvMsg(msg)
		if err == nil {
			feed.Push(protocol.StructToResult(msg))
			continue
		}

		switch {
		case ctx.Err() != nil:
			feed.Finish(nil)
		case errors.Is(err, io.EOF):
			feed.Finish(fmt.Errorf("%w: subscription ended by store", ErrUnavailable))
		default:
			c.log.Warn(ctx, "subscription failed", "err", err)
			feed.Finish(c.mapError(err))
		}
		return
	}
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.InvalidArgument, codes.FailedPrecondition, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	default:
		return fmt.Errorf("%w: rpc error: %w", common.ErrStoreTransport, err)
	}
}
