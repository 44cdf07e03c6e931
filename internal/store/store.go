package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loykin/prnotify/internal/common"
	"github.com/loykin/prnotify/internal/constants"
	"github.com/loykin/prnotify/internal/retry"
	"github.com/loykin/prnotify/internal/store/postgresql"
	"github.com/loykin/prnotify/internal/store/sqlite"
)

// Store persists the settings document and the dispatch audit trail.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	RecordResponse(ctx context.Context, r NotificationResponse) error
	ListResponses(ctx context.Context, limit int) ([]NotificationResponse, error)
	Close() error
}

// SQLStore implements Store on database/sql for every Dialect.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	tables  TableNames
	retry   *retry.Config
}

var _ Store = (*SQLStore)(nil)

func dialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSqlite, "sqlite3", "":
		return sqlite.NewDialect(), nil
	case DriverPostgresql, "postgres", "pg":
		return postgresql.NewDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}

// Open connects to the configured database and creates the tables.
func Open(ctx context.Context, cfg Config) (*SQLStore, error) {
	dialect, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	var dsn string
	if cfg.DriverConfig != nil {
		dsn, _ = cfg.DriverConfig.ToMap()["dsn"].(string)
	}
	if dsn == "" {
		if dialect.DriverName() != DriverSqlite {
			return nil, errors.New("postgresql store requires a dsn or host")
		}
		dsn = sqlite.MemoryDSN
	}

	logger := common.GetLogger().WithStore(dialect.DriverName())
	db, err := dialect.Connect(dsn)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	s := New(db, dialect, cfg.TableNames, cfg.Retry)
	if err := s.ensure(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open connection pool. The tables must already exist; Open
// creates them.
func New(db *sql.DB, dialect Dialect, tables TableNames, rc *retry.Config) *SQLStore {
	if rc == nil {
		rc = retry.DefaultRetryConfig()
	}
	return &SQLStore{db: db, dialect: dialect, tables: tables.safe(), retry: rc}
}

// DB exposes the underlying connection pool.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Tables returns the table names in use.
func (s *SQLStore) Tables() TableNames {
	return s.tables
}

func (s *SQLStore) ensure(ctx context.Context) error {
	logger := common.GetLogger().WithStore(s.dialect.DriverName())
	stmts := s.dialect.EnsureStatements(s.tables.Settings, s.tables.Responses)
	for i, q := range stmts {
		logger.Debug("executing schema creation statement", "table_index", i+1, "sql", q)
		err := retry.Do(ctx, s.retry, func() error {
			_, err := s.db.ExecContext(ctx, q)
			return err
		})
		if err != nil {
			logger.Error("failed to create table in schema setup", "error", err, "table_index", i+1)
			return fmt.Errorf("failed to create table %d in schema setup: %w", i+1, err)
		}
	}
	logger.Debug("database schema ensured", "settings", s.tables.Settings, "responses", s.tables.Responses)
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the value stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	// #nosec G201 -- table identifier validated by TableNames.safe; key is a bind parameter
	q := fmt.Sprintf("SELECT value FROM %s WHERE setting_key = %s", s.tables.Settings, s.dialect.Placeholder(1))
	type found struct {
		value string
		ok    bool
	}
	res, err := retry.Value(ctx, s.retry, func() (found, error) {
		var v string
		err := s.db.QueryRowContext(ctx, q, key).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			return found{}, nil
		}
		if err != nil {
			return found{}, err
		}
		return found{value: v, ok: true}, nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return res.value, res.ok, nil
}

// Put stores value under key, replacing any previous value.
func (s *SQLStore) Put(ctx context.Context, key, value string) error {
	q := s.dialect.UpsertSetting(s.tables.Settings)
	now := s.dialect.ConvertTimeToStorage(time.Now().UTC())
	err := retry.Do(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, q, key, value, now)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	common.GetLogger().WithStore(s.dialect.DriverName()).Debug("setting stored", "key", key, "bytes", len(value))
	return nil
}

// RecordResponse appends r to the audit trail. Bodies are truncated to
// constants.MaxStoredBodyBytes.
func (s *SQLStore) RecordResponse(ctx context.Context, r NotificationResponse) error {
	if r.DispatchedAt.IsZero() {
		r.DispatchedAt = time.Now()
	}
	body := r.Body
	if len(body) > constants.MaxStoredBodyBytes {
		body = body[:constants.MaxStoredBodyBytes]
	}
	ph := make([]string, 10)
	for i := range ph {
		ph[i] = s.dialect.Placeholder(i + 1)
	}
	// #nosec G201 -- table identifier validated by TableNames.safe
	q := fmt.Sprintf("INSERT INTO %s(notification_uuid, notification_name, method, uri, status_code, body, error_text, action, pull_request_id, dispatched_at) VALUES(%s)",
		s.tables.Responses, strings.Join(ph, ","))
	dispatchedAt := s.dialect.ConvertTimeToStorage(r.DispatchedAt.UTC())
	err := retry.Do(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, q, r.NotificationUUID, r.NotificationName, r.Method, r.URI,
			r.Status, body, r.Error, r.Action, r.PullRequestID, dispatchedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record response of %s: %w", r.NotificationUUID, err)
	}
	return nil
}

// ListResponses returns the most recent records first. A limit <= 0 means
// constants.DefaultResponseLimit.
func (s *SQLStore) ListResponses(ctx context.Context, limit int) ([]NotificationResponse, error) {
	if limit <= 0 {
		limit = constants.DefaultResponseLimit
	}
	// #nosec G201 -- table identifier validated by TableNames.safe
	q := fmt.Sprintf("SELECT id, notification_uuid, notification_name, method, uri, status_code, body, error_text, action, pull_request_id, dispatched_at FROM %s ORDER BY id DESC LIMIT %s",
		s.tables.Responses, s.dialect.Placeholder(1))
	out, err := retry.Value(ctx, s.retry, func() ([]NotificationResponse, error) {
		rows, err := s.db.QueryContext(ctx, q, limit)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		list := []NotificationResponse{}
		for rows.Next() {
			var r NotificationResponse
			var body, errText sql.NullString
			var dispatchedAt interface{}
			if err := rows.Scan(&r.ID, &r.NotificationUUID, &r.NotificationName, &r.Method, &r.URI,
				&r.Status, &body, &errText, &r.Action, &r.PullRequestID, &dispatchedAt); err != nil {
				return nil, err
			}
			r.Body = body.String
			r.Error = errText.String
			r.DispatchedAt = s.dialect.ConvertTimeFromStorage(dispatchedAt)
			list = append(list, r)
		}
		return list, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return out, nil
}
