// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds the server settings. Values come from the environment, may be
// overridden by flags, and are validated before use.
type Config struct {
	Host            string        `env:"ROOMTALK_HOST,default=0.0.0.0"`
	Port            int           `env:"ROOMTALK_PORT,default=5555" validate:"min=1,max=65535"`
	HTTPPort        int           `env:"ROOMTALK_HTTP_PORT,default=8080" validate:"min=0,max=65535"`
	MaxSessions     int           `env:"ROOMTALK_MAX_SESSIONS,default=30" validate:"min=1,max=10000"`
	MaxLineLength   int           `env:"ROOMTALK_MAX_LINE_LENGTH,default=512" validate:"min=16"`
	SendBuffer      int           `env:"ROOMTALK_SEND_BUFFER,default=64" validate:"min=1"`
	WriteTimeout    time.Duration `env:"ROOMTALK_WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"ROOMTALK_SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	LogLevel        string        `env:"ROOMTALK_LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	LogFormat       string        `env:"ROOMTALK_LOG_FORMAT,default=text" validate:"oneof=text json"`
}

// Load reads the configuration from the process environment. The result is
// not validated yet so that flags can still override it.
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ChatAddr is the TCP listen address for chat sessions.
func (c Config) ChatAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HTTPAddr is the listen address of the HTTP API, or "" when disabled.
func (c Config) HTTPAddr() string {
	if c.HTTPPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HTTPPort))
}

// Level maps LogLevel onto a slog level. Unknown values fall back to info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
