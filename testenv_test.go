package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woodenfish/log"
)

func script(t *testing.T, cfg Config, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	code := runTestMode(cfg, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	require.Equal(t, 0, code, out.String())
	return out.String()
}

func TestScriptToggleLoop(t *testing.T) {
	out := script(t, Config{Ephemeral: true},
		"AUTOPLAY on",
		"TAP",
		"STATE",
		"TAP",
		"STATE",
		"QUIT",
	)
	assert.Contains(t, out, "STATE looping plays=1")
	assert.Contains(t, out, "STATE idle plays=1")
	assert.True(t, strings.HasSuffix(out, "BYE\n"), out)
}

func TestScriptSinglePlayFinishes(t *testing.T) {
	out := script(t, Config{Ephemeral: true},
		"TAP",
		"STATE",
		"SLEEP 400",
		"STATE",
		"QUIT",
	)
	assert.Contains(t, out, "STATE playing plays=1")
	assert.Contains(t, out, "STATE idle plays=1")
	assert.Contains(t, out, "EVENT state=playing plays=1")
}

func TestScriptSettingsPersist(t *testing.T) {
	dir := t.TempDir()
	script(t, Config{DataDir: dir},
		"AUTOPLAY on",
		"SPEED 0.5",
		"VOLUME 0.3",
		"THEME dark",
		"QUIT",
	)
	out := script(t, Config{DataDir: dir}, "SETTINGS", "QUIT")
	assert.Contains(t, out, `SETTINGS {"speed":0.5,"volume":0.3,"theme":"dark","autoPlay":true}`)
}

func TestScriptClampsAndErrors(t *testing.T) {
	out := script(t, Config{Ephemeral: true},
		"SPEED 9",
		"VOLUME -1",
		"SPEED fast",
		"THEME blue",
		"AUTOPLAY maybe",
		"WHISTLE",
		"SETTINGS",
		"QUIT",
	)
	assert.Contains(t, out, `SETTINGS {"speed":3,"volume":0,"theme":"light","autoPlay":false}`)
	assert.Contains(t, out, "ERR speed:")
	assert.Contains(t, out, "ERR autoplay wants on|off")
	assert.Contains(t, out, "ERR unknown command WHISTLE")
	assert.Equal(t, 4, strings.Count(out, "ERR "), out)
}

func TestScriptMissingSound(t *testing.T) {
	out := script(t, Config{Ephemeral: true, Sound: "/nonexistent/fish.wav"},
		"TAP",
		"STATE",
		"QUIT",
	)
	assert.Contains(t, out, "EVENT error=load /nonexistent/fish.wav")
	assert.Contains(t, out, "STATE idle plays=0")
}

func TestScriptEOFWithoutQuit(t *testing.T) {
	out := script(t, Config{Ephemeral: true}, "TAP")
	assert.True(t, strings.HasSuffix(out, "BYE\n"), out)
}

func TestScriptLogsOneSession(t *testing.T) {
	dir := t.TempDir()
	log.SetDir(dir)
	require.NoError(t, log.Init())
	t.Cleanup(func() { log.Close(); log.SetDir("") })

	script(t, Config{Ephemeral: true}, "TAP", "QUIT")
	log.Close()

	data, err := os.ReadFile(filepath.Join(dir, "diagnostics_log.txt"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "session_start"), string(data))
}
