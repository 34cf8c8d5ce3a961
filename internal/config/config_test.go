package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every ATOMIC_ env var that Load() reads.
var allConfigKeys = []string{
	"ATOMIC_LISTEN_ADDR",
	"ATOMIC_DATA_DIR",
	"ATOMIC_CREDENTIALS_FILE",
	"ATOMIC_HOSTNAME",
	"ATOMIC_CONNECT_TIMEOUT",
	"ATOMIC_CONNECT_POLL",
	"ATOMIC_WIFI_INTERFACE",
	"ATOMIC_JOIN_COMMAND",
	"ATOMIC_DB_PATH",
	"ATOMIC_LOG_LEVEL",
}

// isolateConfigEnv saves and unsets all ATOMIC_ env vars so tests don't
// inherit values from the host environment.
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:80", cfg.ListenAddr)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "wifi.json", cfg.CredentialsFile)
	assert.Equal(t, "aria", cfg.Hostname)
	assert.Equal(t, 20*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.ConnectPoll)
	assert.Equal(t, "", cfg.WiFiInterface)
	assert.Equal(t, "nmcli", cfg.JoinCommand)
	assert.Equal(t, "atomicserver.db", cfg.DBPath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("ATOMIC_LISTEN_ADDR", "127.0.0.1:8080")
	t.Setenv("ATOMIC_DATA_DIR", "/var/lib/atomic")
	t.Setenv("ATOMIC_CREDENTIALS_FILE", "net.json")
	t.Setenv("ATOMIC_HOSTNAME", "Kitchen-Node")
	t.Setenv("ATOMIC_CONNECT_TIMEOUT", "5s")
	t.Setenv("ATOMIC_CONNECT_POLL", "100ms")
	t.Setenv("ATOMIC_WIFI_INTERFACE", "wlan0")
	t.Setenv("ATOMIC_JOIN_COMMAND", "none")
	t.Setenv("ATOMIC_DB_PATH", "/tmp/boot.db")
	t.Setenv("ATOMIC_LOG_LEVEL", "debug")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "/var/lib/atomic", cfg.DataDir)
	assert.Equal(t, "net.json", cfg.CredentialsFile)
	assert.Equal(t, "kitchen-node", cfg.Hostname)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.ConnectPoll)
	assert.Equal(t, "wlan0", cfg.WiFiInterface)
	assert.Equal(t, "none", cfg.JoinCommand)
	assert.Equal(t, "/tmp/boot.db", cfg.DBPath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantKey string
	}{
		{name: "bad timeout", key: "ATOMIC_CONNECT_TIMEOUT", value: "soon", wantKey: "ATOMIC_CONNECT_TIMEOUT"},
		{name: "zero timeout", key: "ATOMIC_CONNECT_TIMEOUT", value: "0s", wantKey: "ATOMIC_CONNECT_TIMEOUT"},
		{name: "bad poll", key: "ATOMIC_CONNECT_POLL", value: "-1s", wantKey: "ATOMIC_CONNECT_POLL"},
		{name: "hostname with dot", key: "ATOMIC_HOSTNAME", value: "aria.local", wantKey: "ATOMIC_HOSTNAME"},
		{name: "hostname leading hyphen", key: "ATOMIC_HOSTNAME", value: "-aria", wantKey: "ATOMIC_HOSTNAME"},
		{name: "listen addr without port", key: "ATOMIC_LISTEN_ADDR", value: "localhost", wantKey: "ATOMIC_LISTEN_ADDR"},
		{name: "listen addr port out of range", key: "ATOMIC_LISTEN_ADDR", value: ":70000", wantKey: "ATOMIC_LISTEN_ADDR"},
		{name: "credentials file with path", key: "ATOMIC_CREDENTIALS_FILE", value: "../wifi.json", wantKey: "ATOMIC_CREDENTIALS_FILE"},
		{name: "unknown log level", key: "ATOMIC_LOG_LEVEL", value: "chatty", wantKey: "ATOMIC_LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestConfig_HTTPPort(t *testing.T) {
	cfg := &Config{ListenAddr: "0.0.0.0:8080"}

	port, err := cfg.HTTPPort()

	require.NoError(t, err)
	assert.Equal(t, 8080, port)
}
