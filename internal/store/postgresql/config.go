package postgresql

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/loykin/prnotify/internal/constants"
	"github.com/loykin/prnotify/internal/util"
)

type Config struct {
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p *Config) ToMap() map[string]interface{} {
	// Prefer explicit DSN; otherwise, build from components when host is provided.
	dsn, hasDSN := util.TrimEmptyCheck(p.DSN)
	host, hasHost := util.TrimEmptyCheck(p.Host)
	if !hasDSN && hasHost {
		port := p.Port
		if port == 0 {
			port = constants.DefaultPostgresPort
		}
		ssl := util.TrimWithDefault(p.SSLMode, constants.DefaultPostgresSSLMode)
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(strings.TrimSpace(p.User), strings.TrimSpace(p.Password)),
			Host:     fmt.Sprintf("%s:%d", host, port),
			Path:     "/" + strings.TrimSpace(p.DBName),
			RawQuery: "sslmode=" + url.QueryEscape(ssl),
		}
		dsn = u.String()
	}
	return map[string]interface{}{
		"dsn": dsn,
	}
}
