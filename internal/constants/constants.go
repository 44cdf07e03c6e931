package constants

import "time"

// Database Constants
const (
	// PostgreSQL defaults
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"

	// Connection pool settings
	DefaultPostgresMaxConnections = 25
	DefaultPostgresMaxIdleConns   = 5
	DefaultSQLiteMaxConnections   = 1 // SQLite allows only one writer
	DefaultSQLiteMaxIdleConns     = 1

	// Default table names
	DefaultSettingsTable  = "prnotify_settings"
	DefaultResponsesTable = "prnotify_responses"

	// Table name suffixes when using prefixes
	SettingsSuffix  = "_settings"
	ResponsesSuffix = "_responses"
)

// Time and Duration Constants
const (
	// Connection pool lifetimes
	DefaultMaxConnLifetime = 5 * time.Minute
	DefaultMaxIdleTime     = 1 * time.Minute
	DefaultSQLiteLifetime  = 10 * time.Minute
	DefaultSQLiteIdleTime  = 5 * time.Minute
)

// Dispatch Constants
const (
	DefaultClientTimeout = 30 * time.Second
	DefaultResponseLimit = 50
	// MaxStoredBodyBytes caps response bodies persisted for audit.
	MaxStoredBodyBytes = 64 * 1024
)

// Server Constants
const (
	DefaultServerAddr = ":8080"
	DefaultClockSkew  = 30 * time.Second
)
