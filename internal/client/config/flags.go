package config

import (
	"flag"
	"io"
	"time"

	"github.com/reichert621/instachat/internal/flagx"
)

var (
	knownFlags = []string{
		"-a", "-t", "-i", "-d", "-k", "-ch", "-app", "-url",
		"-debug", "-ephemeral",
	}
	boolFlags = []string{"-debug", "-ephemeral"}
)

// parseFlags overlays cfg with command-line flags and returns the -url
// deep link, if one was given.
//
// Supported flags (short forms):
//
//	-a string    store address host:port
//	-t string    transport: grpc, ws or local
//	-i int       online check interval in seconds
//	-d string    local database path
//	-k string    cookie file path
//	-ch string   channel to join
//	-app string  application id
//	-url string  deep link such as /?c=general
//	-debug       debug logging
//	-ephemeral   keep the identity in memory
//
// Unknown arguments are dropped with flagx.FilterArgs so that the config
// file flag does not trip the parser.
func parseFlags(cfg *Config, args []string) (string, error) {
	args = flagx.FilterArgs(args, knownFlags, boolFlags...)

	fs := flag.NewFlagSet("instachat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var deepLink string
	fs.StringVar(&cfg.StoreAddr, "a", cfg.StoreAddr, "address and port of the store")
	fs.StringVar(&cfg.Transport, "t", cfg.Transport, "store transport (grpc, ws, local)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.CookiePath, "k", cfg.CookiePath, "cookie file path")
	fs.StringVar(&cfg.Channel, "ch", cfg.Channel, "channel to join")
	fs.StringVar(&cfg.AppID, "app", cfg.AppID, "application id")
	fs.StringVar(&deepLink, "url", "", "deep link naming a channel")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")
	fs.BoolVar(&cfg.Ephemeral, "ephemeral", cfg.Ephemeral, "keep identity in memory only")

	if err := fs.Parse(args); err != nil {
		return "", err
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	return deepLink, nil
}
