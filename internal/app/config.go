package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/nowpanel/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "nowpanel"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# nowpanel configuration
# Run: nowpanel --help

# Optional: override the SQLite block store location.
# Can also be set via NOWPANEL_DB_PATH or --db-path.
# db_path: ~/.config/nowpanel/nowpanel.db

# Optional: editor UI state file (route, editing block, side panel).
# ui_state_path: ~/.config/nowpanel/ui-state.yaml

# Journal page title format (date-fns tokens).
# date_format: "MMM do, yyyy"

# log_level: info
# hide_done: false

# intervals:
#   fast: 500ms
#   medium: 2s
#   slow: 5s
#   safety: 1.5s
# grace_period: 5s
# call_timeout: 3s

# notifications:
#   desktop: false
#   web_push:
#     vapid_public_key: ""
#     vapid_private_key: ""
#     subscriber: ""
`
