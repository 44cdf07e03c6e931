package store

import (
	"regexp"
	"strings"

	"github.com/loykin/prnotify/internal/common"
	"github.com/loykin/prnotify/internal/constants"
	"github.com/loykin/prnotify/internal/retry"
)

const (
	DriverSqlite     = "sqlite"
	DriverPostgresql = "postgresql"
)

type Config struct {
	Driver       string `mapstructure:"driver"`
	TableNames   TableNames
	DriverConfig DriverConfig
	// Retry overrides the backoff for transient errors. Nil means retry.DefaultRetryConfig.
	Retry *retry.Config
}

type DriverConfig interface {
	ToMap() map[string]interface{}
}

// TableNames represents database table names
type TableNames struct {
	Settings  string
	Responses string
}

// BuildTableNames applies prefix defaults: with a prefix, empty names become
// prefix + suffix.
func BuildTableNames(prefix, settings, responses string) TableNames {
	prefix, settings, responses = strings.TrimSpace(prefix), strings.TrimSpace(settings), strings.TrimSpace(responses)
	if prefix != "" {
		if settings == "" {
			settings = prefix + constants.SettingsSuffix
		}
		if responses == "" {
			responses = prefix + constants.ResponsesSuffix
		}
	}
	return TableNames{Settings: settings, Responses: responses}
}

func defaultTableNames() TableNames {
	return TableNames{
		Settings:  constants.DefaultSettingsTable,
		Responses: constants.DefaultResponsesTable,
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// safe returns t with empty or invalid identifiers replaced by the defaults.
// Table names end up in SQL text, so only plain identifiers are allowed.
func (t TableNames) safe() TableNames {
	def := defaultTableNames()
	out := t
	if !identRe.MatchString(out.Settings) {
		if out.Settings != "" {
			common.GetLogger().WithComponent("store").Warn("invalid settings table name, using default",
				"table", out.Settings, "default", def.Settings)
		}
		out.Settings = def.Settings
	}
	if !identRe.MatchString(out.Responses) {
		if out.Responses != "" {
			common.GetLogger().WithComponent("store").Warn("invalid responses table name, using default",
				"table", out.Responses, "default", def.Responses)
		}
		out.Responses = def.Responses
	}
	return out
}
