package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("loads from json", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"endpoint_addr_http":              ":18080",
			"endpoint_addr_grpc":              ":15051",
			"database_dsn":                    "postgres://x",
			"secret_key":                      "my_secret_key",
			"access_token_validity_duration":  "1m",
			"refresh_token_validity_duration": 180000000000,
			"sync_page_size":                  100,
			"log_level":                       "warn",
			"s3_root_user":                    "user",
			"s3_root_password":                "password",
			"s3_bucket":                       "bucket",
			"s3_region":                       "region",
			"s3_base_endpoint":                "base_endpoint",
		})
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, ":18080", cfg.EndpointAddrHTTP)
		assert.Equal(t, ":15051", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 100, cfg.SyncPageSize)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"sync_page_size": 25})
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, 25, cfg.SyncPageSize)
		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "keep:1"}
		parseJson(cfg)

		assert.Equal(t, "keep:1", cfg.EndpointAddrHTTP)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "nope.json")}
		assert.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("invalid json panics", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		os.Args = []string{"testbin", "-c", path}
		assert.Panics(t, func() { parseJson(&Config{}) })
	})
}
