package sqlite

import (
	"fmt"

	"github.com/loykin/prnotify/internal/util"
)

// SQLite configuration constants
const (
	busyTimeoutMS    = 5000 // 5 seconds in milliseconds
	foreignKeysParam = "_fk=1"

	// MemoryDSN opens a private in-memory database.
	MemoryDSN = ":memory:"
)

type Config struct {
	Path string `mapstructure:"path"`
	DSN  string `mapstructure:"dsn"`
}

// ToMap resolves the DSN: an explicit DSN wins, then a file path, then memory.
func (c *Config) ToMap() map[string]interface{} {
	dsn, ok := util.TrimEmptyCheck(c.DSN)
	if !ok {
		if path, hasPath := util.TrimEmptyCheck(c.Path); hasPath {
			dsn = fmt.Sprintf("file:%s?_busy_timeout=%d&%s", path, busyTimeoutMS, foreignKeysParam)
		} else {
			dsn = MemoryDSN
		}
	}
	return map[string]interface{}{
		"dsn": dsn,
	}
}
