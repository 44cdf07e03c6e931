package store

import (
	"database/sql"
	"time"
)

// Dialect hides the SQL differences between the supported databases.
type Dialect interface {
	// Placeholder returns the bind parameter for position index (1 based).
	Placeholder(index int) string
	Connect(dsn string) (*sql.DB, error)
	EnsureStatements(settings, responses string) []string
	// UpsertSetting returns the statement storing (key, value, updated_at).
	UpsertSetting(settings string) string
	ConvertTimeToStorage(t time.Time) interface{}
	ConvertTimeFromStorage(val interface{}) time.Time
	DriverName() string
}
