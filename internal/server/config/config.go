// Package config handles configuration for the development store server,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/reichert621/instachat/internal/validatex"
)

// Config holds runtime settings for the InstaChat dev store.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the gRPC store endpoint.
//   - EndpointAddrHTTP: bind address for /ws, /api/hello and /healthz.
//   - AppID: requests carrying a different app id are refused.
//   - Seed: create the default channels on start.
//   - ShutdownTimeout: how long in-flight HTTP requests get on shutdown.
type Config struct {
	EndpointAddrGRPC string        `validate:"required,hostname_port"`
	EndpointAddrHTTP string        `validate:"required,hostname_port"`
	AppID            string        `validate:"required"`
	Seed             bool
	Debug            bool
	ShutdownTimeout  time.Duration `validate:"gt=0"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.AppID = "instachat-dev"
	c.ShutdownTimeout = 5 * time.Second
}

// LoadConfig builds a Config from os.Args. See Load.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load applies defaults, then an optional JSON file (-c/-config), then
// command-line flags, and validates the result.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := validatex.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
