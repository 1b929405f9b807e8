// Package config loads runtime configuration for the GophNotes CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   server address (http base URL or grpc host:port)
//	-t string   transport, "http" or "grpc"
//	-f string   local SQLite file
//	-i int      sync interval (seconds)
//	-o int      online status check interval (seconds)
//	-l string   log level
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds:
//
//	{
//	  "server_addr": "http://127.0.0.1:8080",
//	  "transport": "http",
//	  "db_file": "notes.db",
//	  "sync_interval": "30s",
//	  "online_check_interval": "3s",
//	  "log_level": "warn"
//	}
package config
