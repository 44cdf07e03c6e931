package postgresql

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/loykin/prnotify/internal/constants"
)

// Dialect implements SQL dialect for PostgreSQL
type Dialect struct{}

// NewDialect creates a new PostgreSQL dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// Placeholder returns PostgreSQL-style placeholders ($1, $2, etc.)
func (p *Dialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// ConvertTimeToStorage converts time to PostgreSQL storage format (native time.Time)
func (p *Dialect) ConvertTimeToStorage(t time.Time) interface{} {
	return t
}

// ConvertTimeFromStorage converts PostgreSQL time storage to UTC time
func (p *Dialect) ConvertTimeFromStorage(val interface{}) time.Time {
	if t, ok := val.(*time.Time); ok && t != nil {
		return t.UTC()
	}
	if t, ok := val.(time.Time); ok {
		return t.UTC()
	}
	return time.Time{}
}

// Connect establishes a connection to PostgreSQL with connection pooling
func (p *Dialect) Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(constants.DefaultPostgresMaxConnections)
	db.SetMaxIdleConns(constants.DefaultPostgresMaxIdleConns)
	db.SetConnMaxLifetime(constants.DefaultMaxConnLifetime)
	db.SetConnMaxIdleTime(constants.DefaultMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}
	return db, nil
}

// EnsureStatements returns PostgreSQL-specific table creation statements
func (p *Dialect) EnsureStatements(settings, responses string) []string {
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (setting_key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TIMESTAMPTZ NOT NULL)", settings),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id BIGSERIAL PRIMARY KEY, notification_uuid TEXT NOT NULL, notification_name TEXT NOT NULL, method TEXT NOT NULL, uri TEXT NOT NULL, status_code INTEGER NOT NULL, body TEXT NULL, error_text TEXT NULL, action TEXT NOT NULL, pull_request_id BIGINT NOT NULL, dispatched_at TIMESTAMPTZ NOT NULL)", responses),
	}
}

// UpsertSetting returns the insert-or-update statement for the settings table.
func (p *Dialect) UpsertSetting(settings string) string {
	return fmt.Sprintf("INSERT INTO %s(setting_key, value, updated_at) VALUES($1,$2,$3) ON CONFLICT (setting_key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at", settings)
}

// DriverName returns the driver name for logging
func (p *Dialect) DriverName() string {
	return "postgresql"
}
