//go:build linux

package sound

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

type pulseOutput struct {
	mixer
	client *pulse.Client
	stream *pulse.PlaybackStream
	frames [][2]float64
}

func openOutput() (output, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("woodenfish"))
	if err != nil {
		return nil, fmt.Errorf("pulse connect: %w", err)
	}

	o := &pulseOutput{client: c}
	reader := pulse.Float32Reader(func(buf []float32) (int, error) {
		n := len(buf) / 2
		if cap(o.frames) < n {
			o.frames = make([][2]float64, n)
		}
		frames := o.frames[:n]
		o.fill(frames)
		for i, f := range frames {
			buf[i*2] = float32(f[0])
			buf[i*2+1] = float32(f[1])
		}
		return n * 2, nil
	})

	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(int(sampleRate)),
		pulse.PlaybackLatency(0.05),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("pulse playback: %w", err)
	}
	stream.Start()
	o.stream = stream
	return o, nil
}

func (o *pulseOutput) close() error {
	o.clear()
	o.stream.Stop()
	o.stream.Close()
	o.client.Close()
	return nil
}
