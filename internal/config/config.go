package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings the station client needs.
type Config struct {
	ServerBind   string `toml:"server_bind"`
	StationID    int    `toml:"station_id"`
	PollSeconds  int    `toml:"poll_seconds"`
	StateDir     string `toml:"state_dir"`
	TokenPath    string `toml:"token_path"`
	OfflineMode  bool   `toml:"offline_mode"`
	BaseWaitMins int    `toml:"base_wait_minutes"`
	LogLevel     string `toml:"log_level"`
}

const (
	defaultConfigPath = "~/.config/coffeecue/config.toml"
	defaultStateDir   = "~/.local/share/coffeecue"
	defaultServerBind = "127.0.0.1:5001"
	defaultBaseWait   = 2

	// MinPollSeconds floors the refresh cadence; anything faster makes the
	// dashboard flicker and trips server-side anti-abuse checks.
	MinPollSeconds = 30
)

// Load locates and parses the station config, falling back to defaults when
// the file is missing. A configured poll interval below the floor is raised
// and the corrected value is written back so the file stops lying.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.ServerBind = strings.TrimSpace(cfg.ServerBind)
	if cfg.ServerBind == "" {
		cfg.ServerBind = defaultServerBind
	}
	if cfg.StationID <= 0 {
		cfg.StationID = 1
	}
	if cfg.BaseWaitMins <= 0 {
		cfg.BaseWaitMins = defaultBaseWait
	}
	cfg.StateDir = strings.TrimSpace(cfg.StateDir)
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir
	}
	cfg.StateDir = mustExpand(cfg.StateDir)
	cfg.TokenPath = strings.TrimSpace(cfg.TokenPath)
	if cfg.TokenPath != "" {
		cfg.TokenPath = mustExpand(cfg.TokenPath)
	}

	if cfg.PollSeconds < MinPollSeconds {
		cfg.PollSeconds = MinPollSeconds
		if err := Save(resolved, cfg); err != nil {
			return Config{}, fmt.Errorf("persist clamped poll interval: %w", err)
		}
	}

	return cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	bytes, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LogPath returns where the client writes its structured log.
func (c Config) LogPath() string {
	return filepath.Join(c.StateDir, "coffeecue.log")
}

func defaults() Config {
	return Config{
		ServerBind:   defaultServerBind,
		StationID:    1,
		PollSeconds:  MinPollSeconds,
		StateDir:     mustExpand(defaultStateDir),
		BaseWaitMins: defaultBaseWait,
		LogLevel:     "info",
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
