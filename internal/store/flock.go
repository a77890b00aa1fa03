package store

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// migrationLock serializes schema migrations between processes that open
// the same block store, e.g. a running watch and a one-shot add.
type migrationLock struct {
	f *os.File
}

func lockFile(dbPath string) (*migrationLock, error) {
	path := filepath.Join(filepath.Dir(dbPath), "."+filepath.Base(dbPath)+".lock")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) //nolint:gosec // G304: path derived from the configured db path
	if err != nil {
		return nil, fmt.Errorf("open migration lock %s: %w", path, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return &migrationLock{f: f}, nil
}

func unlockFile(l *migrationLock) {
	if l == nil || l.f == nil {
		return
	}
	_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	_ = l.f.Close()
}
