package config

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Env is the environment overlay, parsed with caarlos0/env. Nested sections
// use envPrefix.
type Env struct {
	// Network overrides default_network when set.
	Network string `env:"FUNDME_NETWORK"`
	// LockTime is the funding window in seconds.
	LockTime uint64 `env:"FUNDME_LOCK_TIME" envDefault:"180"`

	SepoliaURL      string `env:"SEPOLIA_URL"`
	PrivateKey      string `env:"PRIVATE_KEY"`
	PrivateKey2     string `env:"PRIVATE_KEY_2"`
	EtherscanAPIKey string `env:"ETHERSCAN_API_KEY"`

	Redis Redis  `envPrefix:"REDIS_"`
	Log   Logger `envPrefix:"LOG_"`
	HTTP  HTTP   `envPrefix:"HTTP_"`
}

// LockDuration returns LockTime as a duration.
func (e Env) LockDuration() time.Duration {
	return time.Duration(e.LockTime) * time.Second
}

// SeedKeys returns the keys for the two named accounts on a network.
func (e Env) SeedKeys(development bool) (first, second string) {
	first, second = e.PrivateKey, e.PrivateKey2
	if development {
		if first == "" {
			first = DevKey0
		}
		if second == "" {
			second = DevKey1
		}
	}
	return first, second
}

// Redis configures the optional event publisher. Publishing is off when Addr
// is empty.
type Redis struct {
	Addr string `env:"ADDR"`
	Key  string `env:"KEY" envDefault:"fundme:events"`
}

// HTTP configures the API server.
type HTTP struct {
	Port uint16 `env:"PORT" envDefault:"8080"`
}

// Logger configures the structured logger. Level is one of debug, info, warn
// or error; Format is text or json.
type Logger struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// SlogLevel converts the textual level into a slog.Level. Unknown levels
// default to slog.LevelInfo.
func (c Logger) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SlogFormat returns "json" or "text".
func (c Logger) SlogFormat() string {
	if strings.EqualFold(c.Format, "json") {
		return "json"
	}
	return "text"
}

// NewLogger builds a slog.Logger writing to w.
func (c Logger) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.SlogFormat() == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
