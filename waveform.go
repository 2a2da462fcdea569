package xm

import (
	"math"
)

// Waveform kinds shared by vibrato (4xy, E4y), tremolo (7xy, E7y) and
// autovibrato. Values 4..7 are the same shapes without retrigger on a
// new note.
const (
	waveformSine     = 0
	waveformRampDown = 1
	waveformSquare   = 2
	waveformRandom   = 3
)

// waveform evaluates one oscillator shape at the given step. The step
// wraps every 0x40; the result is in [-1, 1]. The random generator
// state lives in the Context, so one context's output never depends on
// another context playing in parallel.
func (c *Context) waveform(kind uint8, step uint8) float64 {
	step %= 0x40
	switch kind & 0b11 {
	case waveformSine:
		return -math.Sin(2 * math.Pi * float64(step) / 0x40)
	case waveformRampDown:
		// 1 at step 0, -1 at step 0x3F.
		return float64(0x20-int(step)) / 0x20
	case waveformSquare:
		if step < 0x20 {
			return 1
		}
		return -1
	default:
		c.randState = c.randState*1103515245 + 12345
		return float64((c.randState>>16)&0x7FFF)/0x4000 - 1
	}
}

// waveformRetriggers reports whether a control parameter (E4y/E7y)
// asks for the oscillator to restart on every note.
func waveformRetriggers(controlParam uint8) bool {
	return controlParam < 4
}
