//go:build js && wasm

// Command wasm exposes identity persistence and deep-link parsing to the
// browser page as the global instachat object.
package main

import (
	"context"
	"os"
	"syscall/js"

	"github.com/reichert621/instachat/internal/client/identity"
	"github.com/reichert621/instachat/internal/client/navigation"
	"github.com/reichert621/instachat/internal/logging"
)

func main() {
	ctx := context.Background()
	logger := logging.NewConsoleLogger(os.Stderr, false)

	var kv identity.KeyValueStore
	if ls, err := identity.NewLocalStorage(); err == nil {
		kv = ls
	} else {
		logger.Warn(ctx, "localStorage unavailable", "err", err)
	}
	var jar identity.CookieJar
	if dc, err := identity.NewDocumentCookie(); err == nil {
		jar = dc
	} else {
		logger.Warn(ctx, "document.cookie unavailable", "err", err)
	}

	cache := identity.NewCache(kv, jar, logger)

	js.Global().Set("instachat", js.ValueOf(map[string]any{
		"resolveIdentity": js.FuncOf(func(js.Value, []js.Value) any {
			id, ok := cache.Resolve(ctx)
			if !ok {
				return js.Null()
			}
			return id
		}),
		"registerIdentity": js.FuncOf(func(_ js.Value, args []js.Value) any {
			if len(args) == 0 || args[0].Type() != js.TypeString {
				return js.Undefined()
			}
			cache.Register(ctx, args[0].String())
			return js.Undefined()
		}),
		"forgetIdentity": js.FuncOf(func(js.Value, []js.Value) any {
			cache.Forget(ctx)
			return js.Undefined()
		}),
		"channelFromLocation": js.FuncOf(func(js.Value, []js.Value) any {
			ch, err := navigation.ChannelFromURL(js.Global().Get("location").Get("search").String())
			if err != nil || ch == "" {
				return js.Null()
			}
			return ch
		}),
	}))

	select {}
}
