package sqlite

import (
	"strings"
	"testing"
	"time"
)

func TestDialect_Placeholder(t *testing.T) {
	dialect := NewDialect()
	for _, i := range []int{1, 2, 10} {
		if got := dialect.Placeholder(i); got != "?" {
			t.Errorf("Placeholder(%d) = %v, want ?", i, got)
		}
	}
}

func TestDialect_TimeRoundTrip(t *testing.T) {
	dialect := NewDialect()
	testTime := time.Date(2023, 12, 25, 10, 30, 45, 123456789, time.UTC)

	stored := dialect.ConvertTimeToStorage(testTime)
	if stored != testTime.Format(time.RFC3339Nano) {
		t.Fatalf("ConvertTimeToStorage() = %v", stored)
	}

	tests := []struct {
		name string
		val  interface{}
		want time.Time
	}{
		{"string", stored, testTime},
		{"bytes", []byte(stored.(string)), testTime},
		{"time", testTime, testTime},
		{"garbage", "yesterday", time.Time{}},
		{"nil", nil, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dialect.ConvertTimeFromStorage(tt.val); !got.Equal(tt.want) {
				t.Errorf("ConvertTimeFromStorage(%v) = %v, want %v", tt.val, got, tt.want)
			}
		})
	}
}

func TestDialect_EnsureStatements(t *testing.T) {
	stmts := NewDialect().EnsureStatements("s_tbl", "r_tbl")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	if !strings.Contains(stmts[0], "CREATE TABLE IF NOT EXISTS s_tbl") || !strings.Contains(stmts[1], "AUTOINCREMENT") {
		t.Fatalf("unexpected statements: %v", stmts)
	}
	if q := NewDialect().UpsertSetting("s_tbl"); !strings.Contains(q, "ON CONFLICT(setting_key)") {
		t.Fatalf("unexpected upsert: %s", q)
	}
}

func TestConfig_ToMap(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"dsn wins", Config{DSN: " file:x.db ", Path: "/tmp/y.db"}, "file:x.db"},
		{"path", Config{Path: "/tmp/test.db"}, "file:/tmp/test.db?_busy_timeout=5000&_fk=1"},
		{"memory", Config{}, MemoryDSN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ToMap()["dsn"]; got != tt.want {
				t.Errorf("dsn = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDialect_DriverName(t *testing.T) {
	if got := NewDialect().DriverName(); got != "sqlite" {
		t.Errorf("DriverName() = %v", got)
	}
}
