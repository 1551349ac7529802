package main

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := parseConfig(nil, map[string]string{}, io.Discard)
	require.NoError(t, err)

	assert.True(t, cfg.TUI)
	assert.False(t, cfg.GUI)
	assert.False(t, cfg.Hotkey)
	assert.Empty(t, cfg.Sound)
	assert.True(t, strings.HasSuffix(cfg.DataDir, filepath.Join("woodenfish", "settings")), cfg.DataDir)
	assert.Equal(t, "tui", cfg.uiName())
}

func TestConfigEnv(t *testing.T) {
	dir := t.TempDir()
	cfg, err := parseConfig(nil, map[string]string{
		"WOODENFISH_DATA_DIR": dir,
		"WOODENFISH_SOUND":    "/sounds/fish.wav",
		"WOODENFISH_HOTKEY":   "true",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "/sounds/fish.wav", cfg.Sound)
	assert.True(t, cfg.Hotkey)
}

func TestConfigFlagsOverrideEnv(t *testing.T) {
	cfg, err := parseConfig(
		[]string{"-data", "/flag/dir", "-sound", "/flag/knock.flac", "-hotkey=false", "-ephemeral", "-test"},
		map[string]string{
			"WOODENFISH_DATA_DIR": "/env/dir",
			"WOODENFISH_SOUND":    "/env/knock.mp3",
			"WOODENFISH_HOTKEY":   "1",
		}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "/flag/dir", cfg.DataDir)
	assert.Equal(t, "/flag/knock.flac", cfg.Sound)
	assert.False(t, cfg.Hotkey)
	assert.Equal(t, "memory", cfg.storageName())
	assert.Equal(t, "test", cfg.uiName())
}

func TestConfigRelativeSound(t *testing.T) {
	cfg, err := parseConfig([]string{"-data", t.TempDir(), "-sound", "fish.wav"}, nil, io.Discard)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Sound))
	assert.True(t, strings.HasSuffix(cfg.Sound, "fish.wav"))
}

func TestConfigErrors(t *testing.T) {
	_, err := parseConfig([]string{"-nope"}, map[string]string{}, io.Discard)
	assert.Error(t, err)

	_, err = parseConfig([]string{"-data", "/x", "extra"}, map[string]string{}, io.Discard)
	assert.ErrorContains(t, err, "extra")

	_, err = parseConfig(nil, map[string]string{"WOODENFISH_HOTKEY": "maybe", "WOODENFISH_DATA_DIR": "/x"}, io.Discard)
	assert.ErrorContains(t, err, "environment")
}

func TestWantsGUI(t *testing.T) {
	for args, want := range map[string]bool{
		"-gui":              true,
		"--gui":             true,
		"-gui=true":         true,
		"-gui=false":        false,
		"-tui -sound x.wav": false,
		"":                  false,
		"gui":               false,
		"-guide":            false,
	} {
		assert.Equal(t, want, wantsGUI(strings.Fields(args)), args)
	}
}
