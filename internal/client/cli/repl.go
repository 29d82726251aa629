package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Say(ctx context.Context, text string) error
	Join(ctx context.Context, name string) error
	Channels(ctx context.Context) error
	Users(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Register(ctx context.Context, name string) error
	Seed(ctx context.Context) error
	Forget(ctx context.Context) error
}

const helpText = "Commands: /join <channel>, /channels, /users, /whoami, /register <name>, /seed, /forget, /exit. Anything else is sent as a message."

// runREPL reads lines from in until EOF, ctx ends, or the user types /exit
// or /quit. Lines starting with "/" are commands; everything else, blank
// lines included, goes to Say. Command errors are printed and the loop
// keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in io.Reader) {
	lines := readLines(ctx, in)
	for {
		printlnFn(fmt.Sprintf("ic %s> ", statusFn()))

		var line string
		select {
		case <-ctx.Done():
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = l
		}

		if !strings.HasPrefix(line, "/") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			report(a.Say(ctx, line))
			continue
		}

		parts := strings.Fields(line[1:])
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help", "h":
			printlnFn(helpText)

		case "join", "j":
			if len(args) == 0 {
				printlnFn("Usage: /join <channel>")
				continue
			}
			report(a.Join(ctx, args[0]))

		case "channels":
			report(a.Channels(ctx))

		case "users":
			report(a.Users(ctx))

		case "whoami":
			report(a.WhoAmI(ctx))

		case "register":
			if len(args) == 0 {
				printlnFn("Usage: /register <name>")
				continue
			}
			report(a.Register(ctx, strings.Join(args, " ")))

		case "seed":
			report(a.Seed(ctx))

		case "forget":
			report(a.Forget(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	if err != nil {
		printlnFn("! " + userMessage(err))
	}
}
