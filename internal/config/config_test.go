package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	svc := &service{filePath: filepath.Join(t.TempDir(), "config.toml")}

	cfg, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, currentVersion, cfg.Version)
	assert.Equal(t, 200, cfg.SearchDelayMs)
	assert.True(t, cfg.UI.AutosaveOnExit)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	svc := &service{filePath: path}

	cfg := DefaultConfig()
	cfg.ArchiveDir = "/tmp/archive"
	cfg.SearchDelayMs = 50
	cfg.UI.Accent = "205"

	require.NoError(t, svc.Save(cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "archive_dir")
	assert.Contains(t, string(raw), "/tmp/archive")
	assert.Contains(t, string(raw), "[ui]")

	loaded, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromPathRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = [not toml"), 0644))

	svc := &service{filePath: path}
	_, err := svc.Load()
	assert.Error(t, err)
}

func TestScheduleSaveCoalesces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	svc := &service{filePath: path, saveDelay: 20 * time.Millisecond}

	first := DefaultConfig()
	first.SearchDelayMs = 1
	second := DefaultConfig()
	second.SearchDelayMs = 2

	svc.ScheduleSave(first)
	svc.ScheduleSave(second)

	// Nothing on disk until the delay elapses.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	loaded, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.SearchDelayMs, "last scheduled config wins")
}

func TestFlushWritesPendingImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	svc := &service{filePath: path, saveDelay: time.Hour}

	cfg := DefaultConfig()
	cfg.SearchDelayMs = 7
	svc.ScheduleSave(cfg)

	require.NoError(t, svc.Flush())

	loaded, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.SearchDelayMs)

	// A second flush with nothing pending is a no-op.
	require.NoError(t, svc.Flush())
}

func TestSearchDelayFallsBack(t *testing.T) {
	cfg := &Config{SearchDelayMs: 0}
	assert.Equal(t, 200*time.Millisecond, cfg.SearchDelay())

	cfg.SearchDelayMs = 75
	assert.Equal(t, 75*time.Millisecond, cfg.SearchDelay())
}
