package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/nowpanel/internal/content"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	DBPath        string               `yaml:"db_path"`
	UIStatePath   string               `yaml:"ui_state_path"`
	DateFormat    string               `yaml:"date_format"`
	LogLevel      string               `yaml:"log_level"`
	HideDone      bool                 `yaml:"hide_done"`
	PreviewLength int                  `yaml:"preview_length"`
	Intervals     IntervalSettings     `yaml:"intervals"`
	GracePeriod   time.Duration        `yaml:"grace_period"`
	CallTimeout   time.Duration        `yaml:"call_timeout"`
	Notifications NotificationSettings `yaml:"notifications"`
}

// IntervalSettings are the poll loop cadences.
type IntervalSettings struct {
	Fast   time.Duration `yaml:"fast"`
	Medium time.Duration `yaml:"medium"`
	Slow   time.Duration `yaml:"slow"`
	Safety time.Duration `yaml:"safety"`
}

// NotificationSettings selects the notifiers used for resurfaced tasks.
type NotificationSettings struct {
	Desktop bool            `yaml:"desktop"`
	WebPush WebPushSettings `yaml:"web_push"`
}

// WebPushSettings holds VAPID credentials. Web push is enabled when both keys are set.
type WebPushSettings struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subscriber      string `yaml:"subscriber"`
	TTL             int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (w WebPushSettings) Enabled() bool {
	return w.VAPIDPublicKey != "" && w.VAPIDPrivateKey != ""
}

// envOverrides are NOWPANEL_* variables layered over the file settings.
type envOverrides struct {
	DBPath          string        `envconfig:"DB_PATH"`
	UIStatePath     string        `envconfig:"UI_STATE_PATH"`
	DateFormat      string        `envconfig:"DATE_FORMAT"`
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	HideDone        *bool         `envconfig:"HIDE_DONE"`
	SlowInterval    time.Duration `envconfig:"SLOW_INTERVAL"`
	CallTimeout     time.Duration `envconfig:"CALL_TIMEOUT"`
	Desktop         *bool         `envconfig:"DESKTOP_NOTIFY"`
	VAPIDPublicKey  string        `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string        `envconfig:"VAPID_PRIVATE_KEY"`
}

const envNamespace = "NOWPANEL"

func applyEnv(s *Settings) error {
	var env envOverrides
	if err := envconfig.Process(envNamespace, &env); err != nil {
		return fmt.Errorf("failed to load env: %w", err)
	}
	if env.DBPath != "" {
		s.DBPath = env.DBPath
	}
	if env.UIStatePath != "" {
		s.UIStatePath = env.UIStatePath
	}
	if env.DateFormat != "" {
		s.DateFormat = env.DateFormat
	}
	if env.LogLevel != "" {
		s.LogLevel = env.LogLevel
	}
	if env.HideDone != nil {
		s.HideDone = *env.HideDone
	}
	if env.SlowInterval > 0 {
		s.Intervals.Slow = env.SlowInterval
	}
	if env.CallTimeout > 0 {
		s.CallTimeout = env.CallTimeout
	}
	if env.Desktop != nil {
		s.Notifications.Desktop = *env.Desktop
	}
	if env.VAPIDPublicKey != "" {
		s.Notifications.WebPush.VAPIDPublicKey = env.VAPIDPublicKey
	}
	if env.VAPIDPrivateKey != "" {
		s.Notifications.WebPush.VAPIDPrivateKey = env.VAPIDPrivateKey
	}
	return nil
}

// Runtime are the effective engine and loop settings after defaults and clamps.
type Runtime struct {
	FastInterval   time.Duration `json:"fast_interval"`
	MediumInterval time.Duration `json:"medium_interval"`
	SlowInterval   time.Duration `json:"slow_interval"`
	SafetyDelay    time.Duration `json:"safety_delay"`
	GracePeriod    time.Duration `json:"grace_period"`
	CallTimeout    time.Duration `json:"call_timeout"`
	ParentCacheTTL time.Duration `json:"parent_cache_ttl"`
	PreviewLength  int           `json:"preview_length"`
	DateFormat     string        `json:"date_format"`
	HideDone       bool          `json:"hide_done"`
}

const (
	defaultFastInterval   = 500 * time.Millisecond
	defaultMediumInterval = 2 * time.Second
	defaultSlowInterval   = 5 * time.Second
	defaultSafetyDelay    = 1500 * time.Millisecond
	defaultGracePeriod    = 5 * time.Second
	defaultCallTimeout    = 3 * time.Second
	defaultParentCacheTTL = time.Second
	defaultPreviewLength  = 60

	minInterval = 100 * time.Millisecond
)

// DefaultRuntime returns the built-in runtime values.
func DefaultRuntime() Runtime {
	return Runtime{
		FastInterval:   defaultFastInterval,
		MediumInterval: defaultMediumInterval,
		SlowInterval:   defaultSlowInterval,
		SafetyDelay:    defaultSafetyDelay,
		GracePeriod:    defaultGracePeriod,
		CallTimeout:    defaultCallTimeout,
		ParentCacheTTL: defaultParentCacheTTL,
		PreviewLength:  defaultPreviewLength,
		DateFormat:     content.DefaultDateFormat,
	}
}

// EffectiveRuntime returns validated runtime settings with defaults.
// Invalid or missing config values fall back to safe defaults.
func EffectiveRuntime() Runtime {
	s, err := LoadSettings()
	if err != nil {
		return DefaultRuntime()
	}
	return RuntimeFrom(s)
}

// RuntimeFrom applies defaults and clamps to s.
func RuntimeFrom(s Settings) Runtime {
	cfg := DefaultRuntime()

	if s.Intervals.Fast > 0 {
		cfg.FastInterval = max(s.Intervals.Fast, minInterval)
	}
	if s.Intervals.Medium > 0 {
		cfg.MediumInterval = max(s.Intervals.Medium, minInterval)
	}
	if s.Intervals.Slow > 0 {
		cfg.SlowInterval = max(s.Intervals.Slow, minInterval)
	}
	if s.Intervals.Safety > 0 {
		cfg.SafetyDelay = s.Intervals.Safety
	}
	if s.GracePeriod > 0 {
		cfg.GracePeriod = s.GracePeriod
	}
	if s.CallTimeout > 0 {
		cfg.CallTimeout = s.CallTimeout
	}
	if s.PreviewLength > 0 {
		cfg.PreviewLength = min(s.PreviewLength, 500)
	}
	if strings.TrimSpace(s.DateFormat) != "" {
		cfg.DateFormat = s.DateFormat
	}
	cfg.HideDone = s.HideDone

	// A parent lookup cached longer than one slow cycle would serve stale context.
	if cfg.ParentCacheTTL > cfg.SlowInterval {
		cfg.ParentCacheTTL = cfg.SlowInterval
	}
	return cfg
}

// SlogLevel parses LogLevel, defaulting to info.
func (s Settings) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
// The override vars implement mutex-protected process-wide overrides for CLI flags.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex override are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	overrideMu          sync.RWMutex
	dbPathOverride      string
	uiStatePathOverride string
)

// SetDBPathOverride sets a process-wide database path override.
// Intended for CLI flag support (e.g. --db-path).
func SetDBPathOverride(path string) {
	overrideMu.Lock()
	dbPathOverride = path
	overrideMu.Unlock()
}

// SetUIStatePathOverride sets a process-wide UI state file override (--ui-state).
func SetUIStatePathOverride(path string) {
	overrideMu.Lock()
	uiStatePathOverride = path
	overrideMu.Unlock()
}

func getDBPathOverride() string {
	overrideMu.RLock()
	defer overrideMu.RUnlock()
	return dbPathOverride
}

func getUIStatePathOverride() string {
	overrideMu.RLock()
	defer overrideMu.RUnlock()
	return uiStatePathOverride
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/nowpanel/config.yaml
// 2) /etc/nowpanel/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// NOWPANEL_* environment variables are applied on top of whichever file won.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		paths := []string{
			filepath.Join(dir, "config.yaml"),
			filepath.Join(string(os.PathSeparator), "etc", "nowpanel", "config.yaml"),
			"config.yaml",
		}
		for _, p := range paths {
			s, err := loadSettingsFile(p)
			if err == nil {
				settings = s
				break
			}
			if !errors.Is(err, os.ErrNotExist) {
				settingsErr = err
				return
			}
		}

		settingsErr = applyEnv(&settings)
	})

	return settings, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
