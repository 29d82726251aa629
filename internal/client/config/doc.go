// Package config loads runtime configuration for the InstaChat CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// The merged Config is validated with go-playground/validator tags.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "store_addr": "127.0.0.1:50051",
//	  "transport": "grpc",
//	  "online_check_interval": "3s",
//	  "request_timeout": "10s",
//	  "database_path": "instachat.db",
//	  "cookie_path": "instachat.cookies",
//	  "channel": "general",
//	  "app_id": "instachat-dev",
//	  "debug": false
//	}
//
// Environment variables are not read.
package config
