// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// hostLabelPattern matches a single DNS label as advertised over mDNS.
var hostLabelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Config holds the application configuration loaded from environment variables.
// JoinCommand "none" skips association and only waits for a link brought up
// by something else.
type Config struct {
	ListenAddr      string
	DataDir         string
	CredentialsFile string
	Hostname        string
	ConnectTimeout  time.Duration
	ConnectPoll     time.Duration
	WiFiInterface   string
	JoinCommand     string
	DBPath          string
	LogLevel        slog.Level
}

// HTTPPort returns the numeric port of ListenAddr. The mDNS service record
// advertises this port.
func (c *Config) HTTPPort() (int, error) {
	_, port, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		return 0, fmt.Errorf("ATOMIC_LISTEN_ADDR %q: %w", c.ListenAddr, err)
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("ATOMIC_LISTEN_ADDR %q: port must be in range 1..65535", c.ListenAddr)
	}

	return n, nil
}

// Load reads configuration from environment variables and returns a validated Config.
// Every variable is optional. Defaults: ATOMIC_LISTEN_ADDR (0.0.0.0:80),
// ATOMIC_DATA_DIR (data), ATOMIC_CREDENTIALS_FILE (wifi.json), ATOMIC_HOSTNAME (aria),
// ATOMIC_CONNECT_TIMEOUT (20s), ATOMIC_CONNECT_POLL (250ms), ATOMIC_JOIN_COMMAND (nmcli),
// ATOMIC_DB_PATH (atomicserver.db), ATOMIC_LOG_LEVEL (info).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      envOrDefault("ATOMIC_LISTEN_ADDR", "0.0.0.0:80"),
		DataDir:         envOrDefault("ATOMIC_DATA_DIR", "data"),
		CredentialsFile: envOrDefault("ATOMIC_CREDENTIALS_FILE", "wifi.json"),
		Hostname:        strings.ToLower(envOrDefault("ATOMIC_HOSTNAME", "aria")),
		WiFiInterface:   strings.TrimSpace(os.Getenv("ATOMIC_WIFI_INTERFACE")),
		JoinCommand:     envOrDefault("ATOMIC_JOIN_COMMAND", "nmcli"),
		DBPath:          envOrDefault("ATOMIC_DB_PATH", "atomicserver.db"),
		LogLevel:        slog.LevelInfo,
	}

	var err error
	if cfg.ConnectTimeout, err = durationEnv("ATOMIC_CONNECT_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.ConnectPoll, err = durationEnv("ATOMIC_CONNECT_POLL", 250*time.Millisecond); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("ATOMIC_LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return nil, fmt.Errorf("ATOMIC_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !hostLabelPattern.MatchString(c.Hostname) {
		return fmt.Errorf("ATOMIC_HOSTNAME %q must be a single DNS label (letters, digits, hyphens)", c.Hostname)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("ATOMIC_CONNECT_TIMEOUT must be > 0, got %s", c.ConnectTimeout)
	}
	if c.ConnectPoll <= 0 {
		return fmt.Errorf("ATOMIC_CONNECT_POLL must be > 0, got %s", c.ConnectPoll)
	}
	if strings.ContainsAny(c.CredentialsFile, `/\`) {
		return fmt.Errorf("ATOMIC_CREDENTIALS_FILE %q must be a file name inside ATOMIC_DATA_DIR", c.CredentialsFile)
	}
	if _, err := c.HTTPPort(); err != nil {
		return err
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}
