package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/prnotify/internal/common"
	"github.com/loykin/prnotify/internal/constants"
	"github.com/loykin/prnotify/internal/server"
	"github.com/loykin/prnotify/internal/store"
	"github.com/loykin/prnotify/internal/store/postgresql"
	"github.com/loykin/prnotify/internal/store/sqlite"
	"github.com/spf13/viper"
)

type LoggingConfig struct {
	Level         string `mapstructure:"level"`          // error, warn, info, debug
	Format        string `mapstructure:"format"`         // text, json, color
	MaskSensitive *bool  `mapstructure:"mask_sensitive"` // enable/disable sensitive data masking
	Color         *bool  `mapstructure:"color"`          // enable/disable colorized output
}

type StoreConfig struct {
	Type     string            `mapstructure:"type"`
	SQLite   sqlite.Config     `mapstructure:"sqlite"`
	Postgres postgresql.Config `mapstructure:"postgres"`
	// Optional table name customization
	TablePrefix    string `mapstructure:"table_prefix"`
	TableSettings  string `mapstructure:"table_settings"`
	TableResponses string `mapstructure:"table_responses"`
}

type PlatformConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type ClientConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type SettingsConfig struct {
	// File is a YAML settings document imported at startup.
	File     string        `mapstructure:"file"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// Watch re-imports File whenever it changes (serve only).
	Watch bool `mapstructure:"watch"`
}

type ServerConfig struct {
	Addr string           `mapstructure:"addr"`
	JWT  server.JWTConfig `mapstructure:"jwt"`
}

type ConfigDoc struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Store    StoreConfig    `mapstructure:"store"`
	Platform PlatformConfig `mapstructure:"platform"`
	Client   ClientConfig   `mapstructure:"client"`
	Settings SettingsConfig `mapstructure:"settings"`
	Server   ServerConfig   `mapstructure:"server"`
}

func defaultConfig() ConfigDoc {
	return ConfigDoc{
		Store:  StoreConfig{Type: store.DriverSqlite},
		Client: ClientConfig{Timeout: constants.DefaultClientTimeout},
		Server: ServerConfig{Addr: constants.DefaultServerAddr, JWT: server.JWTConfig{ClockSkew: constants.DefaultClockSkew}},
	}
}

// Load reads path into c. Environment variables with the PRNOTIFY_ prefix
// override file values (PRNOTIFY_SERVER_ADDR for server.addr). An empty
// path keeps the defaults and only applies the environment.
func (c *ConfigDoc) Load(path string) error {
	v := viper.New()
	v.SetEnvPrefix("PRNOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"logging.level", "logging.format",
		"store.type", "store.sqlite.path", "store.postgres.dsn", "store.table_prefix",
		"platform.base_url", "client.timeout",
		"settings.file", "settings.cache_ttl", "settings.watch",
		"server.addr", "server.jwt.secret", "server.jwt.issuer", "server.jwt.audience", "server.jwt.clock_skew",
	} {
		_ = v.BindEnv(key)
	}

	if strings.TrimSpace(path) != "" {
		clean := filepath.Clean(path)
		// Ensure path points to a regular file to avoid opening directories/special files
		info, err := os.Stat(clean)
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("not a regular file: %s", clean)
		}
		v.SetConfigFile(clean)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", clean, err)
		}
	}

	return v.Unmarshal(c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
}

// StoreOptions converts the store section for store.Open.
func (c *StoreConfig) StoreOptions() (store.Config, error) {
	tables := store.BuildTableNames(c.TablePrefix, c.TableSettings, c.TableResponses)
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case "", store.DriverSqlite, "sqlite3":
		sq := c.SQLite
		return store.Config{Driver: store.DriverSqlite, TableNames: tables, DriverConfig: &sq}, nil
	case store.DriverPostgresql, "postgres":
		pg := c.Postgres
		return store.Config{Driver: store.DriverPostgresql, TableNames: tables, DriverConfig: &pg}, nil
	default:
		return store.Config{}, fmt.Errorf("invalid store type: %s (valid: sqlite, postgresql)", c.Type)
	}
}

// SetupLogging configures the global logger based on config settings
func (c *ConfigDoc) SetupLogging() error {
	level, err := common.ParseLogLevel(c.Logging.Level)
	if err != nil {
		return err
	}

	var logger *common.Logger
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))

	// Check if color is explicitly requested or auto-detect
	useColor := false
	if c.Logging.Color != nil {
		useColor = *c.Logging.Color
	} else if format == "color" || format == "colour" {
		useColor = true
	}

	switch format {
	case "json":
		logger = common.NewJSONLogger(level)
	case "color", "colour":
		logger = common.NewColorLogger(level)
	case "text", "":
		if useColor {
			logger = common.NewColorLogger(level)
		} else {
			logger = common.NewLogger(level)
		}
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json, color)", c.Logging.Format)
	}

	maskingEnabled := true
	if c.Logging.MaskSensitive != nil {
		maskingEnabled = *c.Logging.MaskSensitive
	}
	common.EnableMasking(maskingEnabled)
	common.SetDefaultLogger(logger)

	logger.Debug("logging configured",
		"level", level.String(),
		"format", format,
		"color", useColor,
		"mask_sensitive", maskingEnabled)
	return nil
}
