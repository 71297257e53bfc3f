package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Jacobbrewer1/husky/pkg/dataaccess"
	"github.com/Jacobbrewer1/husky/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/husky/pkg/transcript"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the name of the application.
	AppName = "husky"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvBotTokenFile is the environment variable for a file holding the bot token.
	EnvBotTokenFile = `BOT_TOKEN_FILE`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvAdminUserIds is the environment variable for the comma separated admin user IDs.
	EnvAdminUserIds = `ADMIN_USER_IDS`

	// EnvHttpPort is the environment variable for the HTTP port.
	EnvHttpPort = `HTTP_PORT`

	// EnvPublicUrl is the environment variable for the public base URL of the HTTP server.
	EnvPublicUrl = `PUBLIC_URL`

	// EnvStoreBackend is the environment variable for the store backend.
	EnvStoreBackend = `STORE_BACKEND`

	// EnvDataDir is the environment variable for the file store directory.
	EnvDataDir = `DATA_DIR`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMongoHost is the environment variable for the MongoDB host.
	EnvMongoHost = `MONGO_HOST`

	// EnvMongoUsername is the environment variable for the MongoDB username.
	EnvMongoUsername = `MONGO_USERNAME`

	// EnvMongoPassword is the environment variable for the MongoDB password.
	EnvMongoPassword = `MONGO_PASSWORD`

	// EnvMongoDatabase is the environment variable for the MongoDB database.
	EnvMongoDatabase = `MONGO_DATABASE`

	// EnvSqlitePath is the environment variable for the SQLite database file.
	EnvSqlitePath = `SQLITE_PATH`

	// EnvTranscriptTimeOffset is the environment variable for the offset applied to transcript timestamps.
	EnvTranscriptTimeOffset = `TRANSCRIPT_TIME_OFFSET`
)

const defaultHttpPort = "8080"

// ConfigPath is the path of the optional YAML configuration file.
type ConfigPath string

// Config is the configuration of the bot. Environment variables take precedence over the file.
type Config struct {
	BotToken             string        `yaml:"bot_token"`
	BotTokenFile         string        `yaml:"bot_token_file"`
	ApplicationId        string        `yaml:"application_id"`
	AdminUserIds         []string      `yaml:"admin_user_ids"`
	HttpPort             string        `yaml:"http_port"`
	PublicUrl            string        `yaml:"public_url"`
	TranscriptTimeOffset time.Duration `yaml:"transcript_time_offset"`
	Store                StoreConfig   `yaml:"store"`
}

// StoreConfig selects the persistent store.
type StoreConfig struct {
	Backend       string             `yaml:"backend"`
	DataDir       string             `yaml:"data_dir"`
	SqlitePath    string             `yaml:"sqlite_path"`
	MongoDatabase string             `yaml:"mongo_database"`
	Mongo         connection.MongoDB `yaml:"mongo"`
}

func defaultConfig() *Config {
	return &Config{
		HttpPort:             defaultHttpPort,
		TranscriptTimeOffset: transcript.DefaultTimeOffset,
		Store: StoreConfig{
			Backend:       dataaccess.BackendFile,
			DataDir:       ".",
			MongoDatabase: dataaccess.DefaultMongoDatabase,
		},
	}
}

// LoadConfig reads the configuration file, if any, then the environment.
func LoadConfig(l *slog.Logger, path ConfigPath) (*Config, error) {
	c := defaultConfig()

	if path != "" {
		b, err := os.ReadFile(string(path))
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		l.Debug("Loaded config file", slog.String("path", string(path)))
	}

	if err := c.parseEnv(l); err != nil {
		return nil, err
	}

	if c.BotToken == "" && c.BotTokenFile != "" {
		b, err := os.ReadFile(c.BotTokenFile)
		if err != nil {
			return nil, fmt.Errorf("error reading bot token file: %w", err)
		}
		c.BotToken = strings.TrimSpace(string(b))
	}

	if c.PublicUrl == "" {
		c.PublicUrl = "http://localhost:" + c.HttpPort
		l.Info("No public URL provided, transcript links will use localhost", slog.String("key", EnvPublicUrl))
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parseEnv(l *slog.Logger) error {
	lookup := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			l.Debug("Found value in environment", slog.String("key", key))
			*dst = v
		}
	}

	lookup(EnvBotToken, &c.BotToken)
	lookup(EnvBotTokenFile, &c.BotTokenFile)
	lookup(EnvApplicationId, &c.ApplicationId)
	lookup(EnvHttpPort, &c.HttpPort)
	lookup(EnvPublicUrl, &c.PublicUrl)
	lookup(EnvStoreBackend, &c.Store.Backend)
	lookup(EnvDataDir, &c.Store.DataDir)
	lookup(EnvSqlitePath, &c.Store.SqlitePath)
	lookup(EnvMongoUri, &c.Store.Mongo.ConnectionString)
	lookup(EnvMongoHost, &c.Store.Mongo.Host)
	lookup(EnvMongoUsername, &c.Store.Mongo.Username)
	lookup(EnvMongoPassword, &c.Store.Mongo.Password)
	lookup(EnvMongoDatabase, &c.Store.MongoDatabase)

	if v := os.Getenv(EnvAdminUserIds); v != "" {
		c.AdminUserIds = splitList(v)
	}

	if v := os.Getenv(EnvTranscriptTimeOffset); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("error parsing %s: %w", EnvTranscriptTimeOffset, err)
		}
		c.TranscriptTimeOffset = d
	}
	return nil
}

// Validate checks that every required value is present.
func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, fmt.Errorf("bot token is required (%s or %s)", EnvBotToken, EnvBotTokenFile))
	}
	if c.ApplicationId == "" {
		errs = append(errs, fmt.Errorf("application id is required (%s)", EnvApplicationId))
	}
	if c.HttpPort == "" {
		errs = append(errs, fmt.Errorf("http port is required (%s)", EnvHttpPort))
	}
	if len(c.AdminUserIds) == 0 {
		slog.Warn("No admin users configured, server administrators may manage the support panel",
			slog.String("key", EnvAdminUserIds))
	}
	return errors.Join(errs...)
}

// StoreOptions are the options the store is opened with.
func (c *Config) StoreOptions() dataaccess.Options {
	return dataaccess.Options{
		Backend:       c.Store.Backend,
		DataDir:       c.Store.DataDir,
		SQLitePath:    c.Store.SqlitePath,
		Mongo:         c.Store.Mongo,
		MongoDatabase: c.Store.MongoDatabase,
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
