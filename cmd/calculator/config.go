package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Config holds server configuration, loaded from environment variables.
type Config struct {
	Host               string
	Port               int
	StaticDir          string
	AssetWatch         bool
	MaxSessions        int
	SessionIdleTimeout time.Duration
	TapeSize           int
	LogLevel           string
	OTelEnabled        bool
	ServiceName        string
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func loadConfig(getenv func(string) string) (Config, error) {
	cfg := Config{
		Host:               "127.0.0.1",
		Port:               8000,
		MaxSessions:        1000,
		SessionIdleTimeout: 30 * time.Minute,
		TapeSize:           100,
		LogLevel:           "info",
		ServiceName:        "reactive-calculator",
	}

	if v := getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}

	var err error
	if cfg.Port, err = intEnv(getenv, "PORT", cfg.Port); err != nil {
		return Config{}, err
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT: %d out of range", cfg.Port)
	}
	if cfg.MaxSessions, err = intEnv(getenv, "MAX_SESSIONS", cfg.MaxSessions); err != nil {
		return Config{}, err
	}
	if cfg.TapeSize, err = intEnv(getenv, "TAPE_SIZE", cfg.TapeSize); err != nil {
		return Config{}, err
	}
	if cfg.AssetWatch, err = boolEnv(getenv, "ASSET_WATCH", cfg.AssetWatch); err != nil {
		return Config{}, err
	}
	if cfg.OTelEnabled, err = boolEnv(getenv, "OTEL_ENABLED", cfg.OTelEnabled); err != nil {
		return Config{}, err
	}

	if v := getenv("SESSION_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SESSION_IDLE_TIMEOUT: %w", err)
		}
		cfg.SessionIdleTimeout = d
	}

	return cfg, nil
}

func loadConfigFromEnv() (Config, error) {
	return loadConfig(os.Getenv)
}

func intEnv(getenv func(string) string, key string, fallback int) (int, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func boolEnv(getenv func(string) string, key string, fallback bool) (bool, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
