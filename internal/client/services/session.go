// Package services contains application services for the InstaChat client.
// This file defines the chat session: it owns the three live queries, the
// local identity and the compose buffer, and publishes a View whenever any
// of them changes.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/reichert621/instachat/internal/client/client"
	"github.com/reichert621/instachat/internal/client/identity"
	"github.com/reichert621/instachat/internal/client/models"
	"github.com/reichert621/instachat/internal/client/query"
	"github.com/reichert621/instachat/internal/client/timeline"
	"github.com/reichert621/instachat/internal/client/txn"
	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
)

var (
	// ErrSessionClosed is returned by actions posted after Run has exited.
	ErrSessionClosed = errors.New("session is not running")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("session is already running")
)

// Delivery reports the outcome of a submitted batch. MessageID is empty for
// batches that do not create a message.
type Delivery struct {
	TxID      string
	MessageID string
	Err       error
}

// Options configures a Session. All callbacks run on the session goroutine
// and must not call back into the Session synchronously.
type Options struct {
	// InitialChannel is the channel selected when Run starts.
	InitialChannel string

	OnChange   func(View)
	OnNotice   func(string)
	OnDelivery func(Delivery)

	// Txn and Timeline default to the production composer and an assembler
	// in the local time zone.
	Txn      *txn.Composer
	Timeline *timeline.Assembler
}

// Session is the chat controller. The loop state is owned by the Run
// goroutine; actions are posted to it as closures.
type Session struct {
	store    client.Store
	queries  *query.Composer
	txns     *txn.Composer
	ident    *identity.Cache
	timeline *timeline.Assembler
	log      logging.Logger
	opts     Options

	actions    chan func()
	deliveries chan Delivery
	done       chan struct{}
	running    atomic.Bool

	// loop state
	runCtx       context.Context
	inflight     sync.WaitGroup
	channels     *query.Live[models.ChannelDirectory]
	users        *query.Live[models.UserDirectory]
	active       *query.Live[models.ActiveChannel]
	cancelActive context.CancelFunc
	lastSubmit   chan struct{}
	state        state
}

type state struct {
	channels   models.ChannelDirectory
	users      models.UserDirectory
	active     models.ActiveChannel
	activeName string
	draft      string

	// pending is the user created by Register until the directory lists it.
	pending   *models.User
	pendingTx string

	haveChannels bool
	haveUsers    bool
	haveActive   bool
}

// NewSession wires a session to a store and an identity cache. Nothing is
// subscribed until Run.
func NewSession(store client.Store, ident *identity.Cache, log logging.Logger, opts Options) *Session {
	if opts.Txn == nil {
		opts.Txn = txn.NewComposer()
	}
	if opts.Timeline == nil {
		opts.Timeline = timeline.NewAssembler(nil)
	}
	return &Session{
		store:      store,
		queries:    query.NewComposer(store, log),
		txns:       opts.Txn,
		ident:      ident,
		timeline:   opts.Timeline,
		log:        log.With("module", "session"),
		opts:       opts,
		actions:    make(chan func()),
		deliveries: make(chan Delivery),
		done:       make(chan struct{}),
		state:      state{activeName: strings.TrimSpace(opts.InitialChannel)},
	}
}

// Run subscribes to the channel directory, the user directory and the
// initial channel, then processes updates and actions until ctx ends. It
// returns ctx.Err().
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.inflight.Wait()
	defer close(s.done)

	s.runCtx = ctx
	s.subscribeMissing()
	s.publish()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return ctx.Err()

		case v, ok := <-updates(s.channels):
			if !ok {
				s.ended("channels", s.channels.Err())
				s.channels = nil
				continue
			}
			s.state.channels, s.state.haveChannels = v, true
			s.publish()

		case v, ok := <-updates(s.users):
			if !ok {
				s.ended("users", s.users.Err())
				s.users = nil
				continue
			}
			s.state.users, s.state.haveUsers = v, true
			if p := s.state.pending; p != nil {
				if _, found := v.Find(p.ID); found {
					s.state.pending, s.state.pendingTx = nil, ""
				}
			}
			s.publish()

		case v, ok := <-updates(s.active):
			if !ok {
				s.ended("channel "+s.state.activeName, s.active.Err())
				s.active = nil
				continue
			}
			s.state.active, s.state.haveActive = v, true
			s.publish()

		case d := <-s.deliveries:
			s.delivered(d)

		case fn := <-s.actions:
			fn()
		}
	}
}

func updates[T any](l *query.Live[T]) <-chan T {
	if l == nil {
		return nil
	}
	return l.Updates()
}

// subscribeMissing (re)subscribes every live query that is not running.
// Failures are reported as notices and leave the previous data in place.
func (s *Session) subscribeMissing() {
	if s.channels == nil {
		l, err := s.queries.Channels(s.runCtx)
		if err != nil {
			s.notice(fmt.Errorf("channels unavailable: %w", err))
		}
		s.channels = l
	}
	if s.users == nil {
		l, err := s.queries.Users(s.runCtx)
		if err != nil {
			s.notice(fmt.Errorf("users unavailable: %w", err))
		}
		s.users = l
	}
	if s.active == nil {
		s.subscribeActive()
	}
}

func (s *Session) subscribeActive() {
	if s.cancelActive != nil {
		s.cancelActive()
		s.cancelActive = nil
	}
	ctx, cancel := context.WithCancel(s.runCtx)
	l, err := s.queries.ActiveChannel(ctx, s.state.activeName)
	if err != nil {
		cancel()
		s.notice(fmt.Errorf("channel %s unavailable: %w", s.state.activeName, err))
		return
	}
	s.active, s.cancelActive = l, cancel
}

func (s *Session) closeAll() {
	if s.channels != nil {
		s.channels.Close()
	}
	if s.users != nil {
		s.users.Close()
	}
	if s.active != nil {
		s.active.Close()
	}
	if s.cancelActive != nil {
		s.cancelActive()
	}
}

func (s *Session) ended(what string, err error) {
	if err == nil || s.runCtx.Err() != nil {
		return
	}
	s.log.Warn(s.runCtx, "subscription lost", "query", what, "err", err)
	s.notice(fmt.Errorf("lost connection to %s, showing last known data: %w", what, err))
}

func (s *Session) notice(err error) {
	s.log.Warn(s.runCtx, "notice", "err", err)
	if s.opts.OnNotice != nil {
		s.opts.OnNotice(err.Error())
	}
}

func (s *Session) publish() {
	if s.opts.OnChange != nil {
		s.opts.OnChange(s.view())
	}
}

// do runs fn on the session goroutine and waits for its result.
func (s *Session) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case s.actions <- func() { errc <- fn() }:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// submit transacts b in the background; the outcome arrives as a Delivery.
// Batches reach the store in submission order.
func (s *Session) submit(b protocol.Batch, messageID string) {
	ctx := s.runCtx
	prev, done := s.lastSubmit, make(chan struct{})
	s.lastSubmit = done
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer close(done)
		if prev != nil {
			select {
			case <-prev:
			case <-ctx.Done():
				return
			}
		}
		d := Delivery{TxID: b.TxID, MessageID: messageID, Err: s.store.Transact(ctx, b)}
		select {
		case s.deliveries <- d:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) delivered(d Delivery) {
	if d.Err != nil {
		s.log.Warn(s.runCtx, "batch not delivered", "tx_id", d.TxID, "err", d.Err)
		s.notice(fmt.Errorf("not delivered: %w", d.Err))
		if d.TxID == s.state.pendingTx {
			s.state.pending, s.state.pendingTx = nil, ""
			s.publish()
		}
	} else {
		s.log.Debug(s.runCtx, "batch delivered", "tx_id", d.TxID, "message_id", d.MessageID)
	}
	if s.opts.OnDelivery != nil {
		s.opts.OnDelivery(d)
	}
}

// currentUser matches the local identity against the user directory and
// the registration still in flight.
func (s *Session) currentUser() (models.User, string, bool) {
	userID, ok := s.ident.Resolve(s.runCtx)
	if !ok {
		return models.User{}, "", false
	}
	if u, found := s.state.users.Find(userID); found {
		return u, userID, true
	}
	if p := s.state.pending; p != nil && p.ID == userID {
		return *p, userID, true
	}
	return models.User{}, userID, false
}

// Register creates a user named name and remembers it as the local
// identity. Empty and already taken names fail with a validation error
// and never reach the store, as does registering while a known user is
// already signed in. Uniqueness is checked against the current user
// directory only, so two clients racing for one name can both win.
func (s *Session) Register(ctx context.Context, name string) (models.User, error) {
	var user models.User
	err := s.do(ctx, func() error {
		if strings.TrimSpace(name) == "" {
			return common.ErrUsernameEmpty
		}
		if _, _, ok := s.currentUser(); ok {
			return common.ErrAlreadyRegistered
		}
		if s.state.users.HasName(name) {
			return common.ErrUsernameTaken
		}

		b, u := s.txns.Registration(name)
		s.submit(b, "")
		s.ident.Register(s.runCtx, u.ID)
		s.state.pending, s.state.pendingTx = &u, b.TxID
		user = u
		s.publish()
		return nil
	})
	return user, err
}

// Forget drops the local identity.
func (s *Session) Forget(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.ident.Forget(s.runCtx)
		s.state.pending, s.state.pendingTx = nil, ""
		s.publish()
		return nil
	})
}

// Compose replaces the compose buffer.
func (s *Session) Compose(ctx context.Context, text string) error {
	return s.do(ctx, func() error {
		s.state.draft = text
		s.publish()
		return nil
	})
}

// Send submits the compose buffer to the active channel and clears it
// without waiting for the store. It returns the transaction id, or "" when
// the buffer is blank and nothing was sent.
func (s *Session) Send(ctx context.Context) (string, error) {
	var txID string
	err := s.do(ctx, func() error {
		_, userID, ok := s.currentUser()
		if userID == "" {
			return common.ErrNotAuthenticated
		}
		if !ok {
			return common.ErrRegistrationRequired
		}

		var channelID string
		if s.state.active.Channel != nil {
			channelID = s.state.active.Channel.ID
		}

		b, messageID, err := s.txns.SendMessage(channelID, userID, s.state.draft)
		if errors.Is(err, common.ErrEmptyMessage) {
			return nil
		}
		if err != nil {
			return err
		}

		s.state.draft = ""
		s.submit(b, messageID)
		txID = b.TxID
		s.publish()
		return nil
	})
	return txID, err
}

// SendText is Compose followed by Send.
func (s *Session) SendText(ctx context.Context, text string) (string, error) {
	if err := s.Compose(ctx, text); err != nil {
		return "", err
	}
	return s.Send(ctx)
}

// SelectChannel switches the active channel. Only the channel subscription
// is replaced; the directories keep streaming.
func (s *Session) SelectChannel(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return s.do(ctx, func() error {
		if name == s.state.activeName && s.active != nil {
			return nil
		}
		if s.active != nil {
			s.active.Close()
			s.active = nil
		}

		s.state.activeName = name
		s.state.active = models.ActiveChannel{}
		s.state.haveActive = false
		s.subscribeActive()
		s.publish()
		return nil
	})
}

// Seed creates the default channels that do not exist yet and returns how
// many were submitted.
func (s *Session) Seed(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, func() error {
		b := s.txns.SeedChannels(s.state.channels.Names())
		if len(b.Ops) == 0 {
			return nil
		}
		s.submit(b, "")
		n = len(b.Ops)
		return nil
	})
	return n, err
}

// Refresh resubscribes queries that ended, e.g. after the store came back
// online.
func (s *Session) Refresh(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.subscribeMissing()
		s.publish()
		return nil
	})
}

// Snapshot returns the current view.
func (s *Session) Snapshot(ctx context.Context) (View, error) {
	var v View
	err := s.do(ctx, func() error {
		v = s.view()
		return nil
	})
	return v, err
}
