//go:build !linux && !darwin

package sound

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

type speakerOutput struct {
	mixer
}

func openOutput() (output, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("speaker init: %w", err)
	}
	o := &speakerOutput{}
	speaker.Play(beep.StreamerFunc(func(frames [][2]float64) (int, bool) {
		o.fill(frames)
		return len(frames), true
	}))
	return o, nil
}

func (o *speakerOutput) close() error {
	o.clear()
	speaker.Clear()
	speaker.Close()
	return nil
}
