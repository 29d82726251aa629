package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reichert621/instachat/internal/client/client"
	"github.com/reichert621/instachat/internal/client/config"
	"github.com/reichert621/instachat/internal/client/identity"
	"github.com/reichert621/instachat/internal/client/repositories/metadata"
	"github.com/reichert621/instachat/internal/client/services"
	"github.com/reichert621/instachat/internal/client/txn"
	"github.com/reichert621/instachat/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	store   client.Store
	db      *sql.DB
	ident   *identity.Cache
	session *services.Session
	render  *renderer
	log     logging.Logger

	in  *bufio.Reader
	out io.Writer

	mu   sync.Mutex
	mode Mode
}

// NewApp connects to the store named by c and opens the local identity
// storage. With c.Ephemeral the identity lives in memory only.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	store, err := client.NewStore(ctx, client.Options{
		Transport:      client.Transport(c.Transport),
		Addr:           c.StoreAddr,
		URL:            c.WebSocketURL(),
		AppID:          c.AppID,
		RequestTimeout: c.RequestTimeout,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	a := &App{config: c, store: store, log: log.With("module", "cli"), in: bufio.NewReader(os.Stdin), out: os.Stdout}

	if c.Ephemeral {
		a.ident = identity.NewCache(identity.NewMemoryStore(), identity.NewMemoryCookieJar(), log)
	} else {
		db, err := client.InitDatabase(ctx, c.DatabasePath)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("error initializing database: %w", err)
		}
		a.db = db
		a.ident = identity.NewCache(metadata.NewSQLiteRepository(db), identity.NewFileCookieJar(c.CookiePath), log)
	}

	if client.Transport(c.Transport) == client.TransportLocal {
		// a private in-process store starts empty
		if err := store.Transact(ctx, txn.NewComposer().SeedChannels(nil)); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("seed local store: %w", err)
		}
	}

	a.render = newRenderer(termWidth)
	a.session = services.NewSession(store, a.ident, log, services.Options{
		InitialChannel: c.Channel,
		OnChange:       a.render.Render,
		OnNotice:       func(msg string) { printlnFn("! " + msg) },
	})
	return a, nil
}

func (a *App) Close() error {
	err := a.store.Close()
	if a.db != nil {
		err = errors.Join(err, a.db.Close())
	}
	return err
}

func (a *App) setMode(mode Mode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == mode {
		return false
	}
	a.mode = mode
	return true
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Run starts the session and the online watcher, waits briefly for the
// first complete view and then runs the REPL until the user exits or ctx
// ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.session.Run(gctx) })
	g.Go(func() error {
		a.StartOnlineStatusWatcher(gctx, a.config.OnlineCheckInterval)
		return nil
	})

	select {
	case <-a.render.Ready():
	case <-time.After(a.config.RequestTimeout):
		printlnFn("! still waiting for the store, commands may show stale data")
	case <-gctx.Done():
	}

	printlnFn("Welcome to InstaChat (type /help for commands)")
	runREPL(gctx, a, a.getStatus, a.in)

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) getStatus() string {
	s := "#" + a.render.Channel()
	if u := a.render.User(); u != "" {
		s += " " + u
	}
	if m := a.Mode(); m != "" {
		s += " " + string(m)
	}
	return fmt.Sprintf("(%s)", s)
}
