package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/protocol"
	"github.com/reichert621/instachat/internal/server/memstore"
)

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Transact(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	batch, err := protocol.StructToBatch(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.store.Transact(ctx, batch); err != nil {
		return nil, storeStatus(err)
	}

	s.logger.Info(ctx, "Transacted", "tx_id", batch.TxID, "ops", len(batch.Ops))
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Subscribe(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	q, err := protocol.StructToQuery(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	feed, err := s.store.Subscribe(ctx, q)
	if err != nil {
		return storeStatus(err)
	}

	for {
		select {
		case <-s.stopping:
			return status.Error(codes.Unavailable, "server shutting down")
		case r, ok := <-feed.Updates():
			if !ok {
				if err := feed.Err(); err != nil {
					return storeStatus(err)
				}
				return nil
			}
			msg, err := protocol.ResultToStruct(r)
			if err != nil {
				s.logger.Error(ctx, "encode result", "err", err)
				return status.Error(codes.Internal, "encode result")
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func storeStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidOp):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, memstore.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
