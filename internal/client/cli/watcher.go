package cli

import (
	"context"
	"time"
)

// StartOnlineStatusWatcher pings the store every interval and flips the
// mode shown in the prompt. Coming back online resubscribes queries that
// were lost while offline.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	err := a.store.Ping(ctx)
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		if a.setMode(ModeOffline) {
			a.log.Debug(ctx, "store unreachable", "err", err)
			printlnFn("Switched to offline mode")
		}
		return
	}

	wasOffline := a.Mode() == ModeOffline
	if a.setMode(ModeOnline) && wasOffline {
		printlnFn("Switched to online mode")
		if err := a.session.Refresh(ctx); err != nil {
			a.log.Warn(ctx, "refresh after reconnect failed", "err", err)
		}
	}
}
