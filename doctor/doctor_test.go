package doctor

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"woodenfish/hotkey"
	"woodenfish/kv"
	"woodenfish/sound"
)

func testSession(input string, opts Options) (*session, *bytes.Buffer, *sound.FakeBackend) {
	out := &bytes.Buffer{}
	backend := sound.NewFakeBackend()
	mem := kv.NewMemory(nil)
	return &session{
		opts:    opts,
		in:      bufio.NewReader(strings.NewReader(input)),
		out:     out,
		backend: backend,
		hkWait:  50 * time.Millisecond,
		openKV:  func(string) (kv.Store, error) { return mem, nil },
	}, out, backend
}

func TestAllPass(t *testing.T) {
	s, out, backend := testSession("y\n", Options{DataDir: t.TempDir()})
	if code := s.runAll(); code != 0 {
		t.Fatalf("exit %d, output:\n%s", code, out)
	}
	if got := backend.Last().Plays(); got != 3 {
		t.Errorf("knocks played = %d, want 3", got)
	}
	if !backend.Last().Unloaded() {
		t.Error("handle not unloaded")
	}
	if !strings.Contains(out.String(), "All checks passed!") {
		t.Errorf("missing summary:\n%s", out)
	}
}

func TestOutputNotConfirmed(t *testing.T) {
	s, out, _ := testSession("n\n", Options{DataDir: t.TempDir()})
	if code := s.runAll(); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(out.String(), "playback not confirmed") {
		t.Errorf("output:\n%s", out)
	}
}

func TestStorageFailure(t *testing.T) {
	s, out, _ := testSession("y\n", Options{DataDir: "/nonexistent"})
	s.openKV = func(string) (kv.Store, error) { return nil, errors.New("locked") }
	if s.checkStorage() {
		t.Fatal("storage check passed")
	}
	if !strings.Contains(out.String(), "locked") {
		t.Errorf("output:\n%s", out)
	}
}

func TestStorageRealBadger(t *testing.T) {
	s, out, _ := testSession("", Options{DataDir: t.TempDir()})
	s.openKV = func(dir string) (kv.Store, error) { return kv.OpenBadger(dir) }
	if !s.checkStorage() {
		t.Fatalf("badger check failed:\n%s", out)
	}
}

func TestAssetUnsupported(t *testing.T) {
	s, out, _ := testSession("", Options{SoundPath: "fish.ogg"})
	if s.checkAsset() {
		t.Fatal("ogg accepted")
	}
	if !strings.Contains(out.String(), ".mp3, .wav or .flac") {
		t.Errorf("output:\n%s", out)
	}
}

func TestLoadFailure(t *testing.T) {
	s, out, backend := testSession("y\n", Options{})
	backend.SetLoadErr(errors.New("no device"))
	if s.checkOutput() {
		t.Fatal("output check passed without a handle")
	}
	if !strings.Contains(out.String(), "no device") {
		t.Errorf("output:\n%s", out)
	}
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{
		"y\n": true, "YES\n": true, " yes \n": true,
		"n\n": false, "\n": false, "": false, "maybe\n": false,
	} {
		s, _, _ := testSession(input, Options{})
		if got := s.confirm("ok?"); got != want {
			t.Errorf("confirm(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestHotkeyCheck(t *testing.T) {
	fk := hotkey.NewFake()
	s, _, _ := testSession("", Options{Hotkey: true})
	s.newHK = func() hotkey.Hotkey { return fk }
	if len(s.checks()) != 4 {
		t.Fatalf("hotkey check not scheduled")
	}

	if _, err := hotkey.Diagnose(); err != nil {
		t.Skipf("no hotkey support here: %v", err)
	}
	go fk.SimPress()
	if !s.checkHotkey() {
		t.Fatal("simulated press not detected")
	}
	if s.checkHotkey() {
		t.Fatal("passed without a press")
	}
}
