package config

import (
	"flag"
	"io"

	"github.com/reichert621/instachat/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-h string   HTTP bind address (e.g., ":8080")
//	-app string application id
//	-seed       create the default channels
//	-debug      development logging
//
// Only recognized flags are parsed; see flagx.FilterArgs.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-h", "-app", "-seed", "-debug"}, "-seed", "-debug")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.EndpointAddrHTTP, "h", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.AppID, "app", config.AppID, "application id")
	fs.BoolVar(&config.Seed, "seed", config.Seed, "create the default channels")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "development logging")

	return fs.Parse(args)
}
