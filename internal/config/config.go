package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Version    int            `toml:"version"`
	Viewer     ViewerSettings `toml:"viewer"`
	Navigation NavSettings    `toml:"navigation"`
	UISettings UISettings     `toml:"ui"`
}

// ViewerSettings holds pagination and visibility tuning
type ViewerSettings struct {
	PageHeight         int     `toml:"page_height"`         // lines per page
	DominanceThreshold float64 `toml:"dominance_threshold"` // ratio a page must exceed to become active
	ThrottleWindowMs   int     `toml:"throttle_window_ms"`  // event coalescing window
	LocatorCacheSecs   int     `toml:"locator_cache_secs"`  // element locator cache reset interval
}

// NavSettings holds the navigation state machine tuning. These started out
// as fixed constants in an earlier viewer; they are exposed here so tests
// and unusual terminals can adjust them.
type NavSettings struct {
	MaxAttempts        int `toml:"max_attempts"`
	StuckThresholdMs   int `toml:"stuck_threshold_ms"`
	SettleSmoothMs     int `toml:"settle_smooth_ms"`
	SettleInstantMs    int `toml:"settle_instant_ms"`
	CorrectionDelayMs  int `toml:"correction_delay_ms"`
	RetryBackoffMs     int `toml:"retry_backoff_ms"`
	HighlightMs        int `toml:"highlight_ms"`
	FileSwitchClearMs  int `toml:"file_switch_clear_ms"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowThumbnails bool `toml:"show_thumbnails"`
	ShowStatusBar  bool `toml:"show_status_bar"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a new config service
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	folioDir := filepath.Join(configDir, "folio")
	os.MkdirAll(folioDir, 0755)

	return &configService{
		filePath: filepath.Join(folioDir, "folio.toml"),
	}
}

// Load loads the configuration from file
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so fields absent from the file keep sane values
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Viewer: ViewerSettings{
			PageHeight:         24,
			DominanceThreshold: 0.5,
			ThrottleWindowMs:   10,
			LocatorCacheSecs:   10,
		},
		Navigation: NavSettings{
			MaxAttempts:       3,
			StuckThresholdMs:  3000,
			SettleSmoothMs:    500,
			SettleInstantMs:   100,
			CorrectionDelayMs: 100,
			RetryBackoffMs:    200,
			HighlightMs:       1500,
			FileSwitchClearMs: 1000,
		},
		UISettings: UISettings{
			ShowThumbnails: true,
			ShowStatusBar:  true,
		},
	}
}

// Duration helpers so callers do not repeat millisecond conversions

func (n NavSettings) StuckThreshold() time.Duration {
	return time.Duration(n.StuckThresholdMs) * time.Millisecond
}

func (n NavSettings) SettleSmooth() time.Duration {
	return time.Duration(n.SettleSmoothMs) * time.Millisecond
}

func (n NavSettings) SettleInstant() time.Duration {
	return time.Duration(n.SettleInstantMs) * time.Millisecond
}

func (n NavSettings) CorrectionDelay() time.Duration {
	return time.Duration(n.CorrectionDelayMs) * time.Millisecond
}

func (n NavSettings) RetryBackoff() time.Duration {
	return time.Duration(n.RetryBackoffMs) * time.Millisecond
}

func (n NavSettings) Highlight() time.Duration {
	return time.Duration(n.HighlightMs) * time.Millisecond
}

func (n NavSettings) FileSwitchClear() time.Duration {
	return time.Duration(n.FileSwitchClearMs) * time.Millisecond
}
