package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/reichert621/instachat/internal/flagx"
	"github.com/reichert621/instachat/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// may be strings like "3s" or integer nanoseconds. Zero values leave the
// current setting alone.
type JsonConfig struct {
	StoreAddr           string         `json:"store_addr"`
	Transport           string         `json:"transport"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	DatabasePath        string         `json:"database_path"`
	CookiePath          string         `json:"cookie_path"`
	Channel             string         `json:"channel"`
	AppID               string         `json:"app_id"`
	Debug               *bool          `json:"debug"`
	Ephemeral           *bool          `json:"ephemeral"`
}

// parseJson overlays cfg with the file named by -c or -config. Without
// either flag nothing happens.
func parseJson(cfg *Config, args []string) error {
	path := flagx.JsonConfigFlagsFrom(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	setString(&cfg.StoreAddr, jc.StoreAddr)
	setString(&cfg.Transport, jc.Transport)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.CookiePath, jc.CookiePath)
	setString(&cfg.Channel, jc.Channel)
	setString(&cfg.AppID, jc.AppID)
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
	if jc.Ephemeral != nil {
		cfg.Ephemeral = *jc.Ephemeral
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
