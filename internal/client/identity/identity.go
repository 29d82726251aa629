// Package identity remembers which user this client registered as. The user
// id is written to two independent places, a durable key-value store and a
// cookie jar, so that losing either one does not lose the identity.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/logging"
)

// KeyValueStore is durable storage. Get returns an empty value for a
// missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// CookieJar follows document.cookie semantics: Cookie returns all pairs as
// "k1=v1; k2=v2" and SetCookie takes a single "k=v[; attrs]" string that
// replaces any cookie of the same name.
type CookieJar interface {
	Cookie() (string, error)
	SetCookie(cookie string) error
}

type Cache struct {
	store KeyValueStore
	jar   CookieJar
	log   logging.Logger
}

// NewCache wires the two backends. Either may be nil, which behaves like a
// backend that never holds a value.
func NewCache(store KeyValueStore, jar CookieJar, log logging.Logger) *Cache {
	return &Cache{store: store, jar: jar, log: log.With("module", "identity")}
}

// Register records userID in both backends. Failures are logged and
// swallowed; the cookie is written even when the durable write fails.
func (c *Cache) Register(ctx context.Context, userID string) {
	if c.store != nil {
		c.safely(ctx, "durable write", func() error {
			return c.store.Set(ctx, common.IdentityCacheKey, []byte(userID))
		})
	}
	if c.jar != nil {
		c.safely(ctx, "cookie write", func() error {
			return c.jar.SetCookie(common.IdentityCacheKey + "=" + userID)
		})
	}
}

// Resolve returns the stored user id. The durable value wins when present;
// otherwise the cookie value is used.
func (c *Cache) Resolve(ctx context.Context) (string, bool) {
	var fromCookie, fromStore string

	if c.jar != nil {
		c.safely(ctx, "cookie read", func() error {
			raw, err := c.jar.Cookie()
			if err != nil {
				return err
			}
			fromCookie, _ = LookupCookie(raw, common.IdentityCacheKey)
			return nil
		})
	}
	if c.store != nil {
		c.safely(ctx, "durable read", func() error {
			v, err := c.store.Get(ctx, common.IdentityCacheKey)
			if err != nil {
				return err
			}
			fromStore = strings.TrimSpace(string(v))
			return nil
		})
	}

	switch {
	case fromStore != "":
		if fromCookie != "" && fromCookie != fromStore {
			c.log.Debug(ctx, "identity backends disagree, using durable value")
		}
		return fromStore, true
	case fromCookie != "":
		return fromCookie, true
	default:
		return "", false
	}
}

// Forget removes the identity from both backends.
func (c *Cache) Forget(ctx context.Context) {
	if c.store != nil {
		c.safely(ctx, "durable delete", func() error {
			return c.store.Delete(ctx, common.IdentityCacheKey)
		})
	}
	if c.jar != nil {
		c.safely(ctx, "cookie delete", func() error {
			return c.jar.SetCookie(common.IdentityCacheKey + "=; Max-Age=0")
		})
	}
}

// safely runs fn, turning both errors and panics into warnings.
func (c *Cache) safely(ctx context.Context, op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn(ctx, "identity backend panicked", "op", op, "err", fmt.Errorf("%w: %v", common.ErrStorageAccess, r))
		}
	}()
	if err := fn(); err != nil {
		c.log.Warn(ctx, "identity backend failed", "op", op, "err", fmt.Errorf("%w: %w", common.ErrStorageAccess, err))
	}
}
