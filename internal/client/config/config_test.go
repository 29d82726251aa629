package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.StoreAddr)
	assert.Equal(t, "grpc", c.Transport)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, "general", c.Channel)
	assert.Equal(t, "ws://127.0.0.1:50051/ws", c.WebSocketURL())
}

func TestLoad_NoArgsUsesDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *cfg)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"store_addr": "json.example:9000",
		"transport":  "ws",
		"channel":    "random",
	})

	cfg, err := Load([]string{"-c", path, "-a", "flag.example:9100"})
	require.NoError(t, err)

	assert.Equal(t, "flag.example:9100", cfg.StoreAddr, "flags override the file")
	assert.Equal(t, "ws", cfg.Transport, "the file overrides defaults")
	assert.Equal(t, "random", cfg.Channel)
}

func TestLoad_DeepLink(t *testing.T) {
	cfg, err := Load([]string{"-ch", "random", "-url", "/?cid=introductions"})
	require.NoError(t, err)
	assert.Equal(t, "introductions", cfg.Channel)

	cfg, err = Load([]string{"-ch", "random", "-url", "/?foo=bar"})
	require.NoError(t, err)
	assert.Equal(t, "random", cfg.Channel, "a link without a channel keeps -ch")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "bad transport", args: []string{"-t", "carrier-pigeon"}, wantErr: "transport must be one of"},
		{name: "bad address", args: []string{"-a", "localhost"}, wantErr: "storeaddr must be host:port"},
		{name: "zero interval", args: []string{"-i", "0"}, wantErr: "onlinecheckinterval must be greater than"},
		{name: "no database", args: []string{"-d", ""}, wantErr: "databasepath is invalid"},
		{name: "no app id", args: []string{"-app", ""}, wantErr: "appid is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EphemeralNeedsNoPaths(t *testing.T) {
	cfg, err := Load([]string{"-ephemeral", "-d", "", "-k", ""})
	require.NoError(t, err)
	assert.True(t, cfg.Ephemeral)
}
