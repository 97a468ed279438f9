package frame

import (
	"math"

	"github.com/dokzlo13/ringclock/internal/ring"
)

// ChannelsPerLED is the number of channels each LED occupies in a dense buffer.
const ChannelsPerLED = 3

// Dense renders the sources into an R,G,B channel buffer of size*3 bytes. Each
// LED is the brightest source level scaled by color.
func Dense(size int, sources []ring.LightSource, color RGB) ([]byte, error) {
	levels, err := Level(size, sources)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size*ChannelsPerLED)
	for i, level := range levels {
		for c := 0; c < ChannelsPerLED; c++ {
			buf[i*ChannelsPerLED+c] = byte(math.Round(level * float64(color[c])))
		}
	}
	return buf, nil
}
