//go:build darwin

package sound

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gen2brain/malgo"
)

const bytesPerFrame = 2 * 4 // stereo float32

type malgoOutput struct {
	mixer
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	frames [][2]float64
}

func openOutput() (output, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo context: %w", err)
	}

	o := &malgoOutput{ctx: ctx}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = 2
	config.SampleRate = uint32(sampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: o.dataCallback,
	}
	o.device, err = malgo.InitDevice(ctx.Context, config, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("malgo device: %w", err)
	}
	if err := o.device.Start(); err != nil {
		o.device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("malgo start: %w", err)
	}
	return o, nil
}

func (o *malgoOutput) dataCallback(pOutput, _ []byte, frameCount uint32) {
	n := int(frameCount)
	if max := len(pOutput) / bytesPerFrame; n > max {
		n = max
	}
	if cap(o.frames) < n {
		o.frames = make([][2]float64, n)
	}
	frames := o.frames[:n]
	o.fill(frames)
	for i, f := range frames {
		binary.LittleEndian.PutUint32(pOutput[i*bytesPerFrame:], math.Float32bits(float32(f[0])))
		binary.LittleEndian.PutUint32(pOutput[i*bytesPerFrame+4:], math.Float32bits(float32(f[1])))
	}
}

func (o *malgoOutput) close() error {
	o.clear()
	o.device.Uninit()
	o.ctx.Uninit()
	o.ctx.Free()
	return nil
}
