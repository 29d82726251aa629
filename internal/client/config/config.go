package config

import (
	"fmt"
	"os"
	"time"

	"github.com/reichert621/instachat/internal/client/navigation"
	"github.com/reichert621/instachat/internal/validatex"
)

// Config holds runtime settings for the InstaChat CLI.
//
// Fields:
//   - StoreAddr: host:port of the store (gRPC, or HTTP for the ws transport).
//   - Transport: grpc, ws or local (in-process store, nothing is shared).
//   - OnlineCheckInterval: how often the client pings the store.
//   - RequestTimeout: deadline for transact and ping calls.
//   - DatabasePath / CookiePath: where the local identity is persisted.
//   - Channel: channel joined on start.
//   - Ephemeral: keep the identity in memory only.
type Config struct {
	StoreAddr           string        `validate:"required,hostname_port"`
	Transport           string        `validate:"oneof=grpc ws local"`
	OnlineCheckInterval time.Duration `validate:"gt=0"`
	RequestTimeout      time.Duration `validate:"gt=0"`
	DatabasePath        string        `validate:"required_unless=Ephemeral true"`
	CookiePath          string        `validate:"required_unless=Ephemeral true"`
	Channel             string
	AppID               string `validate:"required"`
	Debug               bool
	Ephemeral           bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StoreAddr = "127.0.0.1:50051"
	c.Transport = "grpc"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "instachat.db"
	c.CookiePath = "instachat.cookies"
	c.Channel = "general"
	c.AppID = "instachat-dev"
}

// WebSocketURL is the /ws endpoint on StoreAddr.
func (c *Config) WebSocketURL() string {
	return fmt.Sprintf("ws://%s/ws", c.StoreAddr)
}

// LoadConfig constructs a Config from os.Args. See Load.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load applies defaults, then values from the JSON file named by -c/-config
// (if any), then command-line flags. Later sources take precedence. The
// result is validated.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	deepLink, err := parseFlags(cfg, args)
	if err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if deepLink != "" {
		ch, err := navigation.ChannelFromURL(deepLink)
		if err != nil {
			return nil, fmt.Errorf("url: %w", err)
		}
		if ch != "" {
			cfg.Channel = ch
		}
	}

	if err := validatex.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
