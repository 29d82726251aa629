// Package txn builds the operation batches the chat client submits.
package txn

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/reichert621/instachat/internal/client/models"
	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/protocol"
)

const (
	EntityUsers    = "users"
	EntityChannels = "channels"
	EntityMessages = "messages"

	RelationMessages = "messages"
)

type Composer struct {
	newID   func() string
	newTxID func() string
	now     func() time.Time
}

type Option func(*Composer)

// WithIDGenerator replaces the entity id source (uuid v4 by default).
func WithIDGenerator(f func() string) Option {
	return func(c *Composer) { c.newID = f }
}

// WithTxIDGenerator replaces the transaction id source (ULID by default).
func WithTxIDGenerator(f func() string) Option {
	return func(c *Composer) { c.newTxID = f }
}

// WithClock replaces time.Now.
func WithClock(f func() time.Time) Option {
	return func(c *Composer) { c.now = f }
}

func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		newID:   uuid.NewString,
		newTxID: func() string { return ulid.Make().String() },
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Registration creates a user named name with a fresh id. The name is used
// as given; uniqueness is checked by the caller.
func (c *Composer) Registration(name string) (protocol.Batch, models.User) {
	u := models.User{
		ID:        c.newID(),
		Name:      name,
		CreatedAt: c.now().UnixMilli(),
	}
	b := protocol.Batch{
		TxID: c.newTxID(),
		Ops: []protocol.Op{
			protocol.Update(EntityUsers, u.ID, map[string]any{
				"id":         u.ID,
				"name":       u.Name,
				"created_at": u.CreatedAt,
			}),
		},
	}
	return b, u
}

// SendMessage creates a message and links it to its channel and author in
// one batch. It returns the new message id.
//
// Preconditions are checked in order: a missing user id is
// ErrNotAuthenticated, a blank body is ErrEmptyMessage, a missing channel
// is ErrNoActiveChannel. The body is sent untrimmed.
func (c *Composer) SendMessage(channelID, userID, body string) (protocol.Batch, string, error) {
	switch {
	case userID == "":
		return protocol.Batch{}, "", common.ErrNotAuthenticated
	case strings.TrimSpace(body) == "":
		return protocol.Batch{}, "", common.ErrEmptyMessage
	case channelID == "":
		return protocol.Batch{}, "", common.ErrNoActiveChannel
	}

	id := c.newID()
	b := protocol.Batch{
		TxID: c.newTxID(),
		Ops: []protocol.Op{
			protocol.Update(EntityMessages, id, map[string]any{
				"body":      body,
				"timestamp": c.now().UnixMilli(),
			}),
			protocol.Link(EntityChannels, channelID, RelationMessages, id),
			protocol.Link(EntityUsers, userID, RelationMessages, id),
		},
	}
	return b, id, nil
}

// SeedChannels creates the default channels, skipping names in existing.
// The batch is empty when nothing is missing.
func (c *Composer) SeedChannels(existing []string) protocol.Batch {
	have := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		have[n] = struct{}{}
	}

	b := protocol.Batch{TxID: c.newTxID()}
	for _, name := range common.DefaultChannels {
		if _, ok := have[name]; ok {
			continue
		}
		b.Ops = append(b.Ops, protocol.Update(EntityChannels, c.newID(), map[string]any{"name": name}))
	}
	return b
}
