package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	toml "github.com/pelletier/go-toml/v2"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerBind != defaultServerBind {
		t.Fatalf("ServerBind = %q, want %q", cfg.ServerBind, defaultServerBind)
	}
	if cfg.StationID != 1 {
		t.Fatalf("StationID = %d, want 1", cfg.StationID)
	}
	if cfg.PollSeconds != MinPollSeconds {
		t.Fatalf("PollSeconds = %d, want %d", cfg.PollSeconds, MinPollSeconds)
	}
	if !strings.HasPrefix(cfg.StateDir, home) {
		t.Fatalf("StateDir = %q, want it under HOME %q", cfg.StateDir, home)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
server_bind = "  10.0.0.5:9999  "
station_id = 3
poll_seconds = 45
state_dir = "  ~/.coffeecue/state  "
offline_mode = true
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerBind != "10.0.0.5:9999" {
		t.Fatalf("ServerBind = %q, want %q", cfg.ServerBind, "10.0.0.5:9999")
	}
	if cfg.StationID != 3 {
		t.Fatalf("StationID = %d, want 3", cfg.StationID)
	}
	if cfg.PollSeconds != 45 {
		t.Fatalf("PollSeconds = %d, want 45", cfg.PollSeconds)
	}
	if !cfg.OfflineMode {
		t.Fatal("OfflineMode not parsed")
	}
	if !strings.HasPrefix(cfg.StateDir, home) {
		t.Fatalf("StateDir = %q, want it under HOME %q", cfg.StateDir, home)
	}
}

func TestLoad_PollIntervalClampedAndPersistedBack(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("poll_seconds = 5\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PollSeconds != MinPollSeconds {
		t.Fatalf("PollSeconds = %d, want clamped to %d", cfg.PollSeconds, MinPollSeconds)
	}

	// The corrected value must have been written back to the file.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var persisted Config
	if err := toml.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("persisted config unparseable: %v", err)
	}
	if persisted.PollSeconds != MinPollSeconds {
		t.Fatalf("persisted PollSeconds = %d, want %d", persisted.PollSeconds, MinPollSeconds)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`server_bind = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestSave_CreatesFileAndDirs(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "subdir", "config.toml")

	cfg := defaults()
	cfg.StationID = 4
	cfg.PollSeconds = 60
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.StationID != 4 || loaded.PollSeconds != 60 {
		t.Fatalf("round trip = station %d poll %d, want 4/60", loaded.StationID, loaded.PollSeconds)
	}
}

func TestLogPath_UnderStateDir(t *testing.T) {
	cfg := Config{StateDir: filepath.Join(os.TempDir(), "coffeecue-test")}
	want := filepath.Join(cfg.StateDir, "coffeecue.log")
	if got := cfg.LogPath(); got != want {
		t.Fatalf("LogPath = %q, want %q", got, want)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
