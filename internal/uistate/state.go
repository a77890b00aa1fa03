// Package uistate serves the editor-chrome half of the host from a YAML file
// the editor (or `nowpanel nav`) keeps up to date: current route, the block
// being edited, open side-panel items and the journal date format.
package uistate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/nowpanel/internal/models"
)

// State is the on-disk document.
type State struct {
	Route        models.Route           `yaml:"route"`
	EditingBlock string                 `yaml:"editing_block,omitempty"`
	SidePanel    []models.SidePanelItem `yaml:"side_panel,omitempty"`
	DateFormat   string                 `yaml:"date_format,omitempty"`
}

// sameNavigation reports whether the route and side panel are unchanged.
func (s State) sameNavigation(o State) bool {
	return s.Route == o.Route && slices.Equal(s.SidePanel, o.SidePanel)
}

// Load reads the state file. A missing file is the zero state.
func Load(path string) (State, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to read ui state: %w", err)
	}
	var s State
	if err := yaml.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("failed to parse ui state %s: %w", path, err)
	}
	return s, nil
}

// Save writes s atomically (temp file + rename) so a watcher never reads a
// half-written document.
func Save(path string, s State) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode ui state: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ui state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ui-state-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write ui state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ui state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace ui state: %w", err)
	}
	return nil
}

// Update loads, applies fn and saves.
func Update(path string, fn func(*State)) (State, error) {
	s, err := Load(path)
	if err != nil {
		return State{}, err
	}
	fn(&s)
	if err := Save(path, s); err != nil {
		return State{}, err
	}
	return s, nil
}
