package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	// KeyError is the key used for errors in log attributes.
	KeyError = "err"

	// KeyDal is the key used for the data access layer name.
	KeyDal = "dal"

	// KeyBackend is the key used for the store backend name.
	KeyBackend = "backend"

	// KeyTicket is the key used for ticket IDs.
	KeyTicket = "ticket_id"

	// KeyGuild is the key used for guild IDs.
	KeyGuild = "guild_id"

	// KeyChannel is the key used for channel IDs.
	KeyChannel = "channel_id"

	// KeyUser is the key used for user IDs.
	KeyUser = "user_id"
)

// EnvLogLevel is the environment variable for the log level.
const EnvLogLevel = `LOG_LEVEL`

// Name is the name of the application the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	appName string
	level   slog.Level
}

// NewConfig creates a new logger configuration. The level is read from LOG_LEVEL and defaults to info.
func NewConfig(name Name) *Config {
	c := &Config{
		appName: string(name),
		level:   slog.LevelInfo,
	}

	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		if parsed, err := ParseLevel(lvl); err == nil {
			c.level = parsed
		}
	}

	return c
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", lvl)
	}
}

// CommonLogger creates the JSON logger used across the application and sets it as the default.
func CommonLogger(c *Config) (*slog.Logger, error) {
	if c == nil {
		return nil, fmt.Errorf("logger config is nil")
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: c.level == slog.LevelDebug,
		Level:     c.level,
	})

	l := slog.New(h).With(slog.String("app", c.appName))
	slog.SetDefault(l)

	return l, nil
}
