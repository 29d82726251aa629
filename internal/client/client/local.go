package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
	"github.com/reichert621/instachat/internal/server/memstore"
)

// LocalStore runs the store in-process. Data lives as long as the process.
type LocalStore struct {
	mem *memstore.Store
}

func NewLocalStore(log logging.Logger) *LocalStore {
	return &LocalStore{mem: memstore.New(log)}
}

func (l *LocalStore) Subscribe(ctx context.Context, q protocol.Query) (Subscription, error) {
	feed, err := l.mem.Subscribe(ctx, q)
	if err != nil {
		return nil, mapLocalError(err)
	}
	return feed, nil
}

func (l *LocalStore) Transact(ctx context.Context, b protocol.Batch) error {
	return mapLocalError(l.mem.Transact(ctx, b))
}

func (l *LocalStore) Ping(ctx context.Context) error {
	_, err := l.mem.Query(protocol.Query{})
	return mapLocalError(err)
}

func (l *LocalStore) Close() error {
	l.mem.Close()
	return nil
}

func mapLocalError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, memstore.ErrClosed):
		return ErrClosed
	case errors.Is(err, common.ErrInvalidOp):
		return fmt.Errorf("%w: %w", ErrRejected, err)
	default:
		return err
	}
}
