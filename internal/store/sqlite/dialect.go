package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/loykin/prnotify/internal/constants"
	_ "modernc.org/sqlite"
)

// Dialect implements SQL dialect for SQLite
type Dialect struct{}

// NewDialect creates a new SQLite dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// Placeholder returns SQLite-style placeholders (?)
func (s *Dialect) Placeholder(int) string {
	return "?"
}

// ConvertTimeToStorage converts time to SQLite storage format (RFC3339Nano string)
func (s *Dialect) ConvertTimeToStorage(t time.Time) interface{} {
	return t.UTC().Format(time.RFC3339Nano)
}

// ConvertTimeFromStorage parses the stored RFC3339Nano text. The driver may
// also hand back a time.Time or raw bytes.
func (s *Dialect) ConvertTimeFromStorage(val interface{}) time.Time {
	var str string
	switch v := val.(type) {
	case time.Time:
		return v.UTC()
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Connect establishes a connection to SQLite with connection pooling
func (s *Dialect) Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	db.SetMaxOpenConns(constants.DefaultSQLiteMaxConnections)
	db.SetMaxIdleConns(constants.DefaultSQLiteMaxIdleConns)
	if dsn == MemoryDSN {
		// an in-memory database lives as long as its only connection
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetConnMaxLifetime(constants.DefaultSQLiteLifetime)
		db.SetConnMaxIdleTime(constants.DefaultSQLiteIdleTime)
	}
	return db, nil
}

// EnsureStatements returns SQLite-specific table creation statements
func (s *Dialect) EnsureStatements(settings, responses string) []string {
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (setting_key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TEXT NOT NULL)", settings),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, notification_uuid TEXT NOT NULL, notification_name TEXT NOT NULL, method TEXT NOT NULL, uri TEXT NOT NULL, status_code INTEGER NOT NULL, body TEXT NULL, error_text TEXT NULL, action TEXT NOT NULL, pull_request_id INTEGER NOT NULL, dispatched_at TEXT NOT NULL)", responses),
	}
}

// UpsertSetting returns the insert-or-replace statement for the settings table.
func (s *Dialect) UpsertSetting(settings string) string {
	return fmt.Sprintf("INSERT INTO %s(setting_key, value, updated_at) VALUES(?,?,?) ON CONFLICT(setting_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at", settings)
}

// DriverName returns the driver name for logging
func (s *Dialect) DriverName() string {
	return "sqlite"
}
