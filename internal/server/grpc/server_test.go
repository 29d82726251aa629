package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/server/memstore"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	store := memstore.New(logging.NopLogger{})
	defer store.Close()
	srv := NewGRPCServer("127.0.0.1:0", "", store, logging.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", "", memstore.New(logging.NopLogger{}), logging.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
