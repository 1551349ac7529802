package sound

import (
	"fmt"
	"sync"

	"woodenfish/log"
)

// Player is the real Backend. The device output opens on the first Load
// and is shared by every handle until Close.
type Player struct {
	open func() (output, error)

	mu  sync.Mutex
	out output
}

func NewPlayer() *Player {
	return &Player{open: openOutput}
}

func (p *Player) Load(path string, volume float64) (Handle, error) {
	buf, err := Decode(path, sampleRate)
	if err != nil {
		return nil, err
	}

	out, err := p.output()
	if err != nil {
		return nil, err
	}

	h := newBufferHandle(out, buf, volume)
	log.Infof("sound loaded: %s (%s)", AssetName(path), h.Duration())
	return h, nil
}

func (p *Player) output() (output, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		return p.out, nil
	}
	out, err := p.open()
	if err != nil {
		return nil, fmt.Errorf("open audio output: %w", err)
	}
	p.out = out
	return out, nil
}

// Close releases the device. Handles still held become silent.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return nil
	}
	err := p.out.close()
	p.out = nil
	return err
}

// Probe opens and closes the device once.
func Probe() error {
	out, err := openOutput()
	if err != nil {
		return err
	}
	return out.close()
}
