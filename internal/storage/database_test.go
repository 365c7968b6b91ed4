package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestDB opens a migrated catalog in a temp directory.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	// A regular file where a directory is expected.
	blocker := filepath.Join(tmpDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name: "valid path",
			path: filepath.Join(tmpDir, "test.db"),
		},
		{
			name: "creates missing directory",
			path: filepath.Join(tmpDir, "nested", "dir", "test.db"),
		},
		{
			name:    "parent is a file",
			path:    filepath.Join(blocker, "test.db"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path)

			if tt.wantErr {
				if err == nil {
					t.Errorf("New() expected error, got nil")
				}
				if db != nil {
					_ = db.Close()
				}
				return
			}

			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			defer func() {
				_ = db.Close()
			}()

			if db.Stats().MaxOpenConnections != 25 {
				t.Errorf("New() MaxOpenConnections = %v, want 25", db.Stats().MaxOpenConnections)
			}
		})
	}
}

func TestNew_BusyTimeout(t *testing.T) {
	db := newTestDB(t)

	// Hold one connection so the query below runs on a second one.
	conn, err := db.Conn(context.Background())
	if err != nil {
		t.Fatalf("Conn() error = %v", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("failed to read busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{name: "stored layout", in: "2026-03-01T12:00:00.000000500Z", want: time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)},
		{name: "sqlite datetime", in: "2026-03-01 12:00:00", want: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.in)
			if err != nil {
				t.Fatalf("parseTime(%q) error = %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	// Fixed width keeps lexical order equal to time order.
	early := formatTime(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	late := formatTime(time.Date(2026, 3, 1, 12, 0, 0, 100, time.UTC))
	if len(early) != len(late) || early >= late {
		t.Errorf("formatTime() not ordered: %q, %q", early, late)
	}

	if _, err := parseTime("yesterday"); err == nil {
		t.Error("parseTime(yesterday) expected error")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	// Second run on an already migrated catalog
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	for _, table := range []string{"documents", "builds"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Migrate() table %s not found", table)
		}
	}
}
