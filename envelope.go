package xm

// envelopeValue linearly interpolates the envelope between the two
// control points bracketing frame. Frames at or past the last point
// hold its value.
func envelopeValue(env *Envelope, frame uint16) uint8 {
	n := int(env.NumPoints)
	if frame <= env.Points[0].Frame {
		return env.Points[0].Value
	}
	if frame >= env.Points[n-1].Frame {
		return env.Points[n-1].Value
	}
	i := 0
	for i < n-2 && env.Points[i+1].Frame < frame {
		i++
	}
	a, b := env.Points[i], env.Points[i+1]
	if a.Frame == b.Frame {
		return b.Value
	}
	t := int(frame) - int(a.Frame)
	span := int(b.Frame) - int(a.Frame)
	return uint8(int(a.Value) + (int(b.Value)-int(a.Value))*t/span)
}

// envelopeTick evaluates the envelope at *frame and then advances the
// counter: loop wrap first, then the sustain hold while the note is
// still on.
func envelopeTick(env *Envelope, frame *uint16, sustained bool) uint8 {
	if env.loopEnabled() {
		loopEnd := env.Points[env.LoopEndPoint].Frame
		loopLength := loopEnd - env.Points[env.LoopStartPoint].Frame
		if loopLength > 0 {
			for *frame >= loopEnd {
				*frame -= loopLength
			}
		} else if *frame >= loopEnd {
			*frame = loopEnd
		}
	}

	v := envelopeValue(env, *frame)

	hold := sustained && env.sustainEnabled() &&
		*frame == env.Points[env.SustainPoint].Frame
	if !hold {
		*frame++
	}
	return v
}

// tickEnvelopes advances both envelopes of a channel by one tick and
// refreshes the cached values the mixer reads. Key-off starts the
// fadeout countdown; a disabled envelope evaluates to full volume or
// center panning respectively.
func (c *Context) tickEnvelopes(ch *channelContext) {
	inst := c.instrumentOf(ch)
	if inst == nil {
		ch.volumeEnvelopeValue = maxEnvelopeValue
		ch.panningEnvelopeValue = maxEnvelopeValue / 2
		return
	}

	if inst.VolumeEnvelope.enabled() {
		if !ch.sustained {
			ch.fadeoutVolume -= clampMax(inst.VolumeFadeout, ch.fadeoutVolume)
		}
		ch.volumeEnvelopeValue = envelopeTick(&inst.VolumeEnvelope, &ch.volumeEnvelopeFrameCount, ch.sustained)
	} else {
		ch.volumeEnvelopeValue = maxEnvelopeValue
	}

	if inst.PanningEnvelope.enabled() {
		ch.panningEnvelopeValue = envelopeTick(&inst.PanningEnvelope, &ch.panningEnvelopeFrameCount, ch.sustained)
	} else {
		ch.panningEnvelopeValue = maxEnvelopeValue / 2
	}
}

// autovibrato advances the instrument vibrato of a channel. Unlike the
// 4xy effect it runs unconditionally for as long as a note plays, with
// a sweep ramp after each trigger.
func (c *Context) autovibrato(ch *channelContext) {
	inst := c.instrumentOf(ch)
	if inst == nil || inst.VibratoDepth == 0 {
		ch.autovibratoNoteOffset = 0
		return
	}
	sweep := 1.0
	if ch.autovibratoTicks < uint16(inst.VibratoSweep) {
		sweep = float64(ch.autovibratoTicks) / float64(inst.VibratoSweep)
	}
	step := uint8((ch.autovibratoTicks * uint16(inst.VibratoRate)) >> 2)
	ch.autovibratoTicks++
	// 0.25 semitone full-scale, expressed in 1/64 semitone units.
	v := 16 * c.waveform(inst.VibratoType, step) * float64(inst.VibratoDepth) / 0x0F * sweep
	ch.autovibratoNoteOffset = int16(v)
}
