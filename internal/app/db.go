package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDBPath resolves the block store path.
// Order of precedence:
// 1) CLI override (--db-path)
// 2) NOWPANEL_DB_PATH
// 3) config.yaml: db_path
// 4) Default: ~/.config/nowpanel/nowpanel.db
// Returns the path and ensures the parent directory exists.
func GetDBPath() (string, error) {
	if override := getDBPathOverride(); override != "" {
		return EnsureDBDir(override)
	}

	cfg, err := LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DBPath != "" {
		return EnsureDBDir(cfg.DBPath)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return EnsureDBDir(filepath.Join(configDir, "nowpanel.db"))
}

// GetUIStatePath resolves the editor UI state file with the same precedence
// as GetDBPath (--ui-state, NOWPANEL_UI_STATE_PATH, ui_state_path, default).
func GetUIStatePath() (string, error) {
	if override := getUIStatePathOverride(); override != "" {
		return EnsureDBDir(override)
	}

	cfg, err := LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.UIStatePath != "" {
		return EnsureDBDir(cfg.UIStatePath)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return EnsureDBDir(filepath.Join(configDir, "ui-state.yaml"))
}

// EnsureDBDir creates the parent directory of path.
func EnsureDBDir(dbPath string) (string, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return dbPath, nil
}
