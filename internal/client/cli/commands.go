package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reichert621/instachat/internal/common"
)

// userMessage turns an action error into a short hint.
func userMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrNotAuthenticated):
		return "pick a username first: /register <name>"
	case errors.Is(err, common.ErrAlreadyRegistered):
		return "already registered, use /forget to start over"
	case errors.Is(err, common.ErrNoActiveChannel):
		return "no channel selected: /join <channel>"
	case errors.Is(err, common.ErrValidation):
		return err.Error()
	case errors.Is(err, common.ErrStoreTransport):
		return "store unavailable: " + err.Error()
	default:
		return err.Error()
	}
}

func (a *App) Say(ctx context.Context, text string) error {
	_, err := a.session.SendText(ctx, text)
	return err
}

func (a *App) Join(ctx context.Context, name string) error {
	return a.session.SelectChannel(ctx, strings.TrimPrefix(name, "#"))
}

func (a *App) Channels(ctx context.Context) error {
	v, err := a.session.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(v.Channels) == 0 {
		printlnFn("No channels yet, try /seed")
		return nil
	}
	for _, c := range v.Channels {
		marker := " "
		if c.Name == v.ActiveChannelName {
			marker = "*"
		}
		printlnFn(fmt.Sprintf("%s #%s", marker, c.Name))
	}
	return nil
}

func (a *App) Users(ctx context.Context) error {
	v, err := a.session.Snapshot(ctx)
	if err != nil {
		return err
	}
	for _, u := range v.Users {
		suffix := ""
		if v.CurrentUser != nil && v.CurrentUser.ID == u.ID {
			suffix = " (you)"
		}
		printlnFn("  " + u.Name + suffix)
	}
	printlnFn(fmt.Sprintf("%d users", len(v.Users)))
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	v, err := a.session.Snapshot(ctx)
	if err != nil {
		return err
	}
	if v.CurrentUser == nil {
		printlnFn("Not registered. Use /register <name>")
		return nil
	}
	printlnFn(fmt.Sprintf("%s (%s)", v.CurrentUser.Name, v.CurrentUser.ID))
	return nil
}

func (a *App) Register(ctx context.Context, name string) error {
	u, err := a.session.Register(ctx, name)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Welcome, %s!", u.Name))
	return nil
}

func (a *App) Seed(ctx context.Context) error {
	n, err := a.session.Seed(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		printlnFn("All default channels exist")
		return nil
	}
	printlnFn(fmt.Sprintf("Creating %d channels", n))
	return nil
}

func (a *App) Forget(ctx context.Context) error {
	if err := a.session.Forget(ctx); err != nil {
		return err
	}
	printlnFn("Local identity removed")
	return nil
}
