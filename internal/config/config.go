// Package config loads and persists peerscope settings as TOML under
// the user's config directory, with a debounced writer so rapid
// setting changes coalesce into one disk write.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const currentVersion = 1

// defaultSaveDelay is how long scheduled saves wait for more changes
const defaultSaveDelay = 2 * time.Second

// Config represents the application configuration
type Config struct {
	Version       int        `toml:"version"`
	ArchiveDir    string     `toml:"archive_dir"`
	DownloadsDir  string     `toml:"downloads_dir"`
	SearchDelayMs int        `toml:"search_delay_ms"`
	UI            UISettings `toml:"ui"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	Accent         string `toml:"accent"`
	AutosaveOnExit bool   `toml:"autosave_on_exit"`
}

// SearchDelay returns the configured search debounce as a duration,
// falling back to the default for unset or nonsense values
func (c *Config) SearchDelay() time.Duration {
	if c.SearchDelayMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.SearchDelayMs) * time.Millisecond
}

// Service handles configuration management
type Service interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	ScheduleSave(config *Config)
	Flush() error
}

// service is the concrete implementation
type service struct {
	filePath  string
	saveDelay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *Config
}

// NewService creates a config service writing to the default location
func NewService() Service {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	dir := filepath.Join(configDir, "peerscope")
	os.MkdirAll(dir, 0755)

	return &service{
		filePath:  filepath.Join(dir, "config.toml"),
		saveDelay: defaultSaveDelay,
	}
}

// Load loads the configuration, returning defaults when no file exists
func (s *service) Load() (*Config, error) {
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return s.LoadFromPath(s.filePath)
}

// Save saves the configuration to the default location
func (s *service) Save(config *Config) error {
	return s.SaveToPath(config, s.filePath)
}

// LoadFromPath loads configuration from a specific path
func (s *service) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// SaveToPath saves configuration to a specific path
func (s *service) SaveToPath(config *Config, path string) error {
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

// ScheduleSave queues a save of config, coalescing with any save
// already waiting. The write happens once the save delay passes
// without another call.
func (s *service) ScheduleSave(config *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = config
	if s.timer != nil {
		s.timer.Stop()
	}
	delay := s.saveDelay
	if delay <= 0 {
		delay = defaultSaveDelay
	}
	s.timer = time.AfterFunc(delay, func() {
		if err := s.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "peerscope: config save failed: %v\n", err)
		}
	})
}

// Flush writes any pending scheduled save immediately
func (s *service) Flush() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if pending == nil {
		return nil
	}
	return s.Save(pending)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		Version:       currentVersion,
		ArchiveDir:    filepath.Join(homeDir, ".peerscope", "archive"),
		DownloadsDir:  filepath.Join(homeDir, ".peerscope", "downloads"),
		SearchDelayMs: 200,
		UI: UISettings{
			Accent:         "62",
			AutosaveOnExit: true,
		},
	}
}
