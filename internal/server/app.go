// Package server initializes and runs the InstaChat development store: an
// in-memory reactive store exposed over gRPC and over a WebSocket endpoint
// on a small HTTP router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reichert621/instachat/internal/client/txn"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
	"github.com/reichert621/instachat/internal/server/api"
	"github.com/reichert621/instachat/internal/server/config"
	"github.com/reichert621/instachat/internal/server/memstore"
	"github.com/reichert621/instachat/internal/server/ws"

	gs "github.com/reichert621/instachat/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  *memstore.Store
}

// NewApp creates the store and, with c.Seed, the default channels.
func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	store := memstore.New(logger)

	if c.Seed {
		b := txn.NewComposer().SeedChannels(nil)
		if err := store.Transact(context.Background(), b); err != nil {
			store.Close()
			return nil, fmt.Errorf("seed error: %w", err)
		}
		logger.Info(context.Background(), "Seeded channels", "count", len(b.Ops))
	}

	return &App{config: c, logger: logger, store: store}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run listens on the configured addresses and serves until ctx ends or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	grpcLis, err := net.Listen("tcp", app.config.EndpointAddrGRPC)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	httpLis, err := net.Listen("tcp", app.config.EndpointAddrHTTP)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("http listen: %w", err)
	}

	return app.Serve(ctx, grpcLis, httpLis)
}

// Serve runs the gRPC and HTTP servers on the given listeners. When ctx
// ends both are shut down, then the store is closed.
func (app *App) Serve(ctx context.Context, grpcLis, httpLis net.Listener) error {
	defer app.store.Close()

	wsHandler := ws.NewHandler(app.store, app.config.AppID, app.logger)
	httpServer := &http.Server{
		Handler:           api.NewRouter(wsHandler, app.health, app.logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer := gs.NewGRPCServer(grpcLis.Addr().String(), app.config.AppID, app.store, app.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return grpcServer.Serve(gctx, grpcLis)
	})

	g.Go(func() error {
		app.logger.Info(gctx, "Starting HTTP server", "address", httpLis.Addr().String())
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info(gctx, "Stopping HTTP server...")
		wsHandler.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) health() error {
	_, err := app.store.Query(protocol.Query{})
	return err
}
