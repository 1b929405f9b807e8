package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "127.0.0.1:9090", "-t", "grpc", "-f", "x.db", "-i", "10", "-o", "2", "-l", "error"},
			expected: &Config{
				ServerAddr:          "127.0.0.1:9090",
				Transport:           TransportGRPC,
				DBFile:              "x.db",
				SyncInterval:        10 * time.Second,
				OnlineCheckInterval: 2 * time.Second,
				LogLevel:            "error",
			},
		},
		{
			name: "config flag is ignored",
			args: []string{"cmd", "-c", "cfg.json", "-f", "y.db"},
			expected: &Config{
				ServerAddr:          "http://127.0.0.1:8080",
				Transport:           TransportHTTP,
				DBFile:              "y.db",
				SyncInterval:        30 * time.Second,
				OnlineCheckInterval: 3 * time.Second,
				LogLevel:            "warn",
			},
		},
		{name: "incorrect sync interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true},
		{name: "unknown transport", args: []string{"cmd", "-t", "carrier-pigeon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}
			config.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
