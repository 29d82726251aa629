package query

import (
	"context"
	"fmt"

	"github.com/reichert621/instachat/internal/client/client"
	"github.com/reichert621/instachat/internal/client/models"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
)

type Composer struct {
	store client.Store
	log   logging.Logger
}

func NewComposer(store client.Store, log logging.Logger) *Composer {
	return &Composer{store: store, log: log.With("module", "query")}
}

// Channels subscribes to the channel directory.
func (c *Composer) Channels(ctx context.Context) (*Live[models.ChannelDirectory], error) {
	return subscribe(ctx, c, "channels", ChannelsQuery(), DecodeChannels)
}

// Users subscribes to the user directory.
func (c *Composer) Users(ctx context.Context) (*Live[models.UserDirectory], error) {
	return subscribe(ctx, c, "users", UsersQuery(), DecodeUsers)
}

// ActiveChannel subscribes to the channel called name. An empty name does
// not touch the store and yields a single empty value.
func (c *Composer) ActiveChannel(ctx context.Context, name string) (*Live[models.ActiveChannel], error) {
	if name == "" {
		return Static(models.ActiveChannel{}), nil
	}
	return subscribe(ctx, c, "channel:"+name, ActiveChannelQuery(name), func(r protocol.Result) (models.ActiveChannel, error) {
		ac, err := DecodeActiveChannel(r)
		if err == nil && ac.Channel != nil {
			c.warnMissingAuthors(ctx, ac.Channel)
		}
		return ac, err
	})
}

func (c *Composer) warnMissingAuthors(ctx context.Context, ch *models.Channel) {
	for _, m := range ch.Messages {
		if m.Author == nil {
			c.log.Warn(ctx, "message without author", "channel", ch.Name, "message_id", m.ID)
		}
	}
}

func subscribe[T any](ctx context.Context, c *Composer, name string, q protocol.Query, decode func(protocol.Result) (T, error)) (*Live[T], error) {
	ctx, cancel := context.WithCancel(ctx)

	sub, err := c.store.Subscribe(ctx, q)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", name, err)
	}

	live := newLive[T](cancel)
	go func() {
		for r := range sub.Updates() {
			v, err := decode(r)
			if err != nil {
				c.log.Warn(ctx, "dropping undecodable result", "query", name, "err", err)
				continue
			}
			live.push(v)
		}
		live.finish(sub.Err())
		c.log.Debug(ctx, "subscription ended", "query", name)
	}()
	return live, nil
}
