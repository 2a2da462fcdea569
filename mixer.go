package xm

import (
	"math"
)

// nextOfSample returns the channel's next mono frame and advances its
// sample position by one step, handling loop wrapping and the blend-in
// of the previous waveform after a retrigger.
func (c *Context) nextOfSample(ch *channelContext) float32 {
	smp := &c.mod.Samples[ch.sample]
	data := c.samplesData[smp.Index : smp.Index+smp.Length]
	bits := c.cfg.MicrostepBits
	pos := ch.samplePosition

	u := pos >> bits
	if u >= smp.Length {
		u = smp.Length - 1
	}

	var v float32
	if c.cfg.LinearInterpolation {
		next := u + 1
		switch {
		case next < smp.Length:
		case smp.LoopLength == 0 || smp.PingPong:
			next = u
		default:
			next = smp.loopStart()
		}
		t := float32(pos&(uint32(1)<<bits-1)) / float32(uint32(1)<<bits)
		v = lerp(data[u], data[next], t)
	} else {
		v = data[u]
	}

	if c.ramping && ch.frameCount < rampingPoints {
		v = lerp(ch.endOfPreviousSample[ch.frameCount], v,
			float32(ch.frameCount)/rampingPoints)
	}

	length := int64(smp.Length) << bits
	loopLength := int64(smp.LoopLength) << bits

	switch {
	case smp.LoopLength == 0:
		p := int64(pos) + int64(ch.step)
		if p >= length {
			ch.samplePosition = sampleEnded
		} else {
			ch.samplePosition = uint32(p)
		}
	case !smp.PingPong:
		p := int64(pos) + int64(ch.step)
		for p >= length {
			p -= loopLength
		}
		ch.samplePosition = uint32(p)
	case ch.reverse:
		loopStart := int64(smp.loopStart()) << bits
		p := int64(pos) - int64(ch.step)
		if p < loopStart {
			ch.reverse = false
			p = 2*loopStart - p
			if p >= length {
				p = length - 1
			}
		}
		ch.samplePosition = uint32(p)
	default:
		p := int64(pos) + int64(ch.step)
		if p >= length {
			ch.reverse = true
			p = 2*length - p - 1
			if p < 0 {
				p = 0
			}
		}
		ch.samplePosition = uint32(p)
	}

	return v
}

// prefillRampBuffer captures the next frames of the current waveform
// before a retrigger switches samples, so the mixer can cross-blend
// over the discontinuity.
func (c *Context) prefillRampBuffer(ch *channelContext) {
	if !c.ramping {
		return
	}
	for i := range ch.endOfPreviousSample {
		if ch.active() {
			ch.endOfPreviousSample[i] = c.nextOfSample(ch)
		} else {
			ch.endOfPreviousSample[i] = 0
		}
	}
	ch.frameCount = 0
}

// computeVolumes folds the volume chain and the panning chain into the
// channel's stereo gains. With ramping enabled these become targets the
// mixer slides towards, otherwise they take effect immediately.
func (c *Context) computeVolumes(ch *channelContext) {
	vol := float64(clamp(int(ch.volume)+int(ch.volumeOffset), 0, maxVolume))
	fv := vol / maxVolume *
		float64(ch.fadeoutVolume) / maxFadeoutVolume *
		float64(ch.volumeEnvelopeValue) / maxEnvelopeValue *
		float64(c.globalVolume) / maxVolume

	pan := float64(ch.panning) / maxPanning
	envPan := (float64(ch.panningEnvelopeValue) - 32) / 32
	pan = clamp(pan+envPan*(0.5-abs(pan-0.5)), 0, 1)

	left := float32(fv * math.Sqrt(1-pan))
	right := float32(fv * math.Sqrt(pan))
	if c.ramping {
		ch.targetVolume[0] = left
		ch.targetVolume[1] = right
	} else {
		ch.actualVolume[0] = left
		ch.actualVolume[1] = right
	}
}

// nextFrame mixes one stereo frame, ticking the sequencer whenever the
// subsample budget of the current tick runs out.
func (c *Context) nextFrame() (float32, float32) {
	if c.remainingSubsamples <= 0 {
		c.tick()
		c.remainingSubsamples += c.subsamplesPerTick
	}
	c.remainingSubsamples -= tickSubsamples

	var left, right float64
	for i := range c.channels {
		ch := &c.channels[i]
		if !ch.active() {
			continue
		}

		// Muted channels keep advancing; only their contribution is
		// dropped, so unmuting resumes in phase.
		v := c.nextOfSample(ch)
		if !ch.muted && !(ch.instrument >= 0 && c.instrumentMuted[ch.instrument]) {
			left += float64(v * ch.actualVolume[0])
			right += float64(v * ch.actualVolume[1])
		}

		if !c.ramping {
			continue
		}
		ch.frameCount++
		ch.actualVolume[0] = slideTowards(ch.actualVolume[0], ch.targetVolume[0], volumeRamp)
		ch.actualVolume[1] = slideTowards(ch.actualVolume[1], ch.targetVolume[1], volumeRamp)
	}

	c.generatedFrames++
	return float32(left * amplification), float32(right * amplification)
}

// GenerateSamples fills out with interleaved stereo float32 frames and
// returns the number of frames written. Once the loop bound set with
// SetMaxLoopCount is reached it writes silence and returns short.
func (c *Context) GenerateSamples(out []float32) int {
	frames := len(out) / 2
	for i := 0; i < frames; i++ {
		if c.ended() {
			for j := 2 * i; j < len(out); j++ {
				out[j] = 0
			}
			return i
		}
		l, r := c.nextFrame()
		out[2*i] = l
		out[2*i+1] = r
	}
	return frames
}

func (c *Context) ended() bool {
	return c.maxLoopCount > 0 && c.loopCount >= c.maxLoopCount
}
