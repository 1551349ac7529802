package sound

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

const (
	knockDuration = 250 * time.Millisecond

	// Two inharmonic partials give the hollow wood-block colour; the noise
	// burst is the mallet contact.
	knockLowFreq   = 820
	knockHighFreq  = 1930
	knockLowDecay  = 28
	knockHighDecay = 55
	knockNoise     = 0.18
	knockVolume    = 0.6
)

// knock synthesizes the built-in wooden-fish strike.
func knock(sr beep.SampleRate) *beep.Buffer {
	n := sr.N(knockDuration)
	pos := 0
	seed := uint32(0x2545f491)

	gen := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= n {
			return 0, false
		}
		i := 0
		for ; i < len(samples) && pos < n; i++ {
			t := float64(pos) / float64(sr)

			low := math.Sin(2*math.Pi*knockLowFreq*t) * math.Exp(-t*knockLowDecay)
			high := 0.45 * math.Sin(2*math.Pi*knockHighFreq*t) * math.Exp(-t*knockHighDecay)

			seed ^= seed << 13
			seed ^= seed >> 17
			seed ^= seed << 5
			noise := (float64(seed)/float64(math.MaxUint32)*2 - 1) * knockNoise * math.Exp(-t*400)

			s := knockVolume * (low + high + noise)
			samples[i][0] = s
			samples[i][1] = s
			pos++
		}
		return i, true
	})

	buf := beep.NewBuffer(beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2})
	buf.Append(gen)
	return buf
}
