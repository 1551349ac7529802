//go:build !linux

package hotkey

import (
	"golang.design/x/hotkey"
)

type systemHotkey struct {
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
	stop    chan struct{}
}

func New() Hotkey {
	return &systemHotkey{
		hk:      hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace),
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *systemHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	h.stop = make(chan struct{})
	go h.forward(h.stop)
	return nil
}

func (h *systemHotkey) forward(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-h.hk.Keydown():
			notify(h.keydown)
		case <-h.hk.Keyup():
			notify(h.keyup)
		}
	}
}

func (h *systemHotkey) Unregister() {
	if h.stop == nil {
		return
	}
	close(h.stop)
	h.stop = nil
	h.hk.Unregister()
}

func (h *systemHotkey) Keydown() <-chan struct{} { return h.keydown }
func (h *systemHotkey) Keyup() <-chan struct{}   { return h.keyup }

func Diagnose() (string, error) {
	return "hotkey support available (" + Combo + ")", nil
}
