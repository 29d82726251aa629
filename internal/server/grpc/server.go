package grpc

import (
	"context"
	"net"
	"sync"

	"google.golang.org/grpc"

	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
	"github.com/reichert621/instachat/internal/server/memstore"
)

type GRPCServer struct {
	address string
	appID   string
	store   *memstore.Store
	logger  logging.Logger

	stopOnce sync.Once
	stopping chan struct{}
}

// NewGRPCServer serves store over the hand-declared store service. A
// non-empty appID makes the server reject requests carrying another app id.
func NewGRPCServer(address, appID string, store *memstore.Store, l logging.Logger) *GRPCServer {
	return &GRPCServer{
		address:  address,
		appID:    appID,
		store:    store,
		logger:   l.With("module", "grpc_server"),
		stopping: make(chan struct{}),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx ends.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.appIDInterceptor),
		grpc.ChainStreamInterceptor(s.streamLoggingInterceptor, s.appIDStreamInterceptor),
	)
	protocol.RegisterStoreServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		// Live subscriptions never end on their own.
		s.stopOnce.Do(func() { close(s.stopping) })
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
