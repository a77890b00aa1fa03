package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dotcommander/nowpanel/internal/app"
)

// defaultBusyTimeoutMS is the SQLite busy_timeout in milliseconds.
// NOWPANEL_BUSY_TIMEOUT_MS overrides it.
const defaultBusyTimeoutMS = 5000

// InitDB opens the block store at the configured path and migrates it.
func InitDB() (*sql.DB, error) {
	dbPath, err := app.GetDBPath()
	if err != nil {
		return nil, err
	}
	return InitDBWithPath(dbPath)
}

// InitDBWithPath opens (creating if needed) the block store at dbPath in WAL
// mode and applies pending migrations.
func InitDBWithPath(dbPath string) (*sql.DB, error) {
	if _, err := app.EnsureDBDir(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", normalizeSQLiteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: the watch loops and CLI actions serialize through it,
	// and the json_set/json_remove mutations never interleave.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// busy_timeout goes first so the WAL switch waits on an editor holding
	// the file. synchronous=NORMAL is safe under WAL.
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS()),
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA journal_mode=WAL",
	}
	for _, pragma := range pragmas {
		if err := RetryWithBackoff(func() error {
			_, err := db.ExecContext(context.Background(), pragma)
			return err
		}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := RetryWithBackoff(func() error { return MigrateDB(db, dbPath) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func busyTimeoutMS() int {
	if v := os.Getenv("NOWPANEL_BUSY_TIMEOUT_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultBusyTimeoutMS
}

// normalizeSQLiteDSN turns a plain path into a read/write/create file: URI.
// Explicit file: DSNs pass through; ":memory:" becomes a shared in-memory db.
func normalizeSQLiteDSN(dbPath string) string {
	if strings.HasPrefix(dbPath, "file:") {
		return dbPath
	}
	if dbPath == ":memory:" {
		return "file::memory:?cache=shared"
	}
	return "file:" + dbPath + "?mode=rwc"
}
