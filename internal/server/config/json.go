package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/reichert621/instachat/internal/flagx"
	"github.com/reichert621/instachat/internal/timex"
)

// JsonConfig is the DTO for the JSON config file. Durations accept "5s" or
// integer nanoseconds. Absent fields keep their current value.
type JsonConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	AppID            string         `json:"app_id"`
	Seed             *bool          `json:"seed"`
	Debug            *bool          `json:"debug"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by -c or -config into config. Without
// either flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.JsonConfigFlagsFrom(args)
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}
	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	if c.EndpointAddrGRPC != "" {
		config.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.AppID != "" {
		config.AppID = c.AppID
	}
	if c.Seed != nil {
		config.Seed = *c.Seed
	}
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = time.Duration(c.ShutdownTimeout.Duration)
	}
	return nil
}
