package xm

type triggerFlags uint8

const (
	triggerKeepVolume triggerFlags = 1 << iota
	triggerKeepPeriod
	triggerKeepSamplePosition
)

// handleSlot processes one channel's pattern slot at tick 0 of a row:
// note/instrument triggering, then the one-shot halves of the volume
// column and the effect column.
func (c *Context) handleSlot(ch *channelContext, s *PatternSlot) {
	ch.slot = s

	if s.Instrument > 0 {
		switch {
		case s.hasTonePortamento() && ch.instrument >= 0 && ch.sample >= 0:
			// 3xx/5xx with an instrument does not restart the sample.
			c.triggerNote(ch, triggerKeepPeriod|triggerKeepSamplePosition)
		case s.Note == 0 && ch.sample >= 0:
			// Ghost instrument: volume/panning/envelopes reset, sample
			// position and period kept.
			c.triggerNote(ch, triggerKeepPeriod|triggerKeepSamplePosition)
		case int(s.Instrument) > len(c.mod.Instruments):
			c.cutNote(ch)
			ch.instrument = -1
			ch.sample = -1
		default:
			ch.instrument = int(s.Instrument) - 1
		}
	}

	if s.hasNote() {
		inst := c.instrumentOf(ch)
		switch {
		case s.hasTonePortamento() && inst != nil && ch.sample >= 0:
			smp := c.sampleOf(ch)
			note := realNote(s.Note, smp.RelativeNote, ch.finetune)
			ch.tonePortamentoTargetPeriod = c.periodOfNote(note)
		case inst == nil || inst.NumSamples == 0:
			c.cutNote(ch)
		default:
			km := inst.SampleOfNotes[s.Note-1]
			if km >= inst.NumSamples {
				c.cutNote(ch)
				break
			}
			c.prefillRampBuffer(ch)
			ch.sample = int(inst.SamplesIndex) + int(km)
			smp := c.sampleOf(ch)
			ch.finetune = smp.Finetune
			ch.note = realNote(s.Note, smp.RelativeNote, ch.finetune)
			var flags triggerFlags
			if s.Instrument == 0 {
				// Ghost note: keep the old volume.
				flags = triggerKeepVolume
			}
			c.triggerNote(ch, flags)
		}
	} else if s.Note == keyOffNote {
		c.keyOff(ch)
	}

	c.handleSlotEffects(ch, s)
}

// handleSlotEffects is the tick-0 half of the effect dispatch. It runs
// on row reads and again on every pattern-delay repeat of a row.
func (c *Context) handleSlotEffects(ch *channelContext, s *PatternSlot) {
	switch s.VolumeColumn >> 4 {
	case 0x5:
		if s.VolumeColumn != 0x50 {
			break
		}
		fallthrough
	case 0x1, 0x2, 0x3, 0x4:
		ch.volume = s.VolumeColumn - 0x10
		ch.volumeOffset = 0
	case 0x8: // fine volume slide down
		c.volumeSlide(ch, s.VolumeColumn&0x0F)
	case 0x9: // fine volume slide up
		c.volumeSlide(ch, s.VolumeColumn<<4)
	case 0xA: // vibrato speed
		ch.vibratoParam = (ch.vibratoParam & 0x0F) | ((s.VolumeColumn & 0x0F) << 4)
	case 0xB: // vibrato depth
		if s.VolumeColumn&0x0F != 0 {
			ch.vibratoParam = (ch.vibratoParam & 0xF0) | (s.VolumeColumn & 0x0F)
		}
	case 0xC:
		ch.panning = uint16(((s.VolumeColumn & 0x0F) << 4) | (s.VolumeColumn & 0x0F))
	case 0xF:
		if s.VolumeColumn&0x0F != 0 {
			ch.tonePortamentoParam = ((s.VolumeColumn & 0x0F) << 4) | (s.VolumeColumn & 0x0F)
		}
	}

	p := s.EffectParam
	switch s.EffectType {
	case 0x1: // portamento up
		if p != 0 {
			ch.portamentoUpParam = p
		}
	case 0x2: // portamento down
		if p != 0 {
			ch.portamentoDownParam = p
		}
	case 0x3: // tone portamento
		if p != 0 {
			ch.tonePortamentoParam = p
		}
	case 0x4: // vibrato
		if p>>4 != 0 {
			ch.vibratoParam = (ch.vibratoParam & 0x0F) | (p & 0xF0)
		}
		if p&0x0F != 0 {
			ch.vibratoParam = (ch.vibratoParam & 0xF0) | (p & 0x0F)
		}
	case 0x5, 0x6, 0xA: // volume slide combos share one memory register
		if p != 0 {
			ch.volumeSlideParam = p
		}
	case 0x7: // tremolo
		if p>>4 != 0 {
			ch.tremoloParam = (ch.tremoloParam & 0x0F) | (p & 0xF0)
		}
		if p&0x0F != 0 {
			ch.tremoloParam = (ch.tremoloParam & 0xF0) | (p & 0x0F)
		}
	case 0x8: // set panning
		ch.panning = uint16(p)
	case 0x9: // sample offset
		if ch.sample >= 0 && s.hasNote() {
			if p != 0 {
				ch.sampleOffsetParam = p
			}
			smp := c.sampleOf(ch)
			offset := uint32(ch.sampleOffsetParam) << 8
			if offset >= smp.Length {
				ch.samplePosition = sampleEnded
			} else {
				ch.samplePosition = offset << c.cfg.MicrostepBits
			}
		}
	case 0xB: // position jump
		c.positionJump = true
		c.jumpDest = p
		c.jumpRow = 0
	case 0xC: // set volume
		ch.volume = clampMax(p, maxVolume)
		ch.volumeOffset = 0
	case 0xD: // pattern break, parameter is BCD
		c.patternBreak = true
		c.jumpRow = (p>>4)*10 + (p & 0x0F)
	case 0xE:
		c.handleExtendedEffect(ch, p)
	case 0xF: // set tempo/BPM
		if p == 0 {
			break
		}
		if p < 0x20 {
			c.tempo = p
		} else {
			c.setBPM(p)
		}
	case 0x10: // Gxx: set global volume
		c.globalVolume = clampMax(p, maxVolume)
	case 0x11: // Hxy: global volume slide
		if p != 0 {
			ch.globalVolumeSlideParam = p
		}
	case 0x15: // Lxx: set envelope position
		ch.volumeEnvelopeFrameCount = uint16(p)
		ch.panningEnvelopeFrameCount = uint16(p)
	case 0x19: // Pxy: panning slide
		if p != 0 {
			ch.panningSlideParam = p
		}
	case 0x1B: // Rxy: multi retrig, per-nibble memory
		if p&0x0F != 0 {
			ch.multiRetrigParam = (ch.multiRetrigParam & 0xF0) | (p & 0x0F)
		}
		if p>>4 != 0 {
			ch.multiRetrigParam = (ch.multiRetrigParam & 0x0F) | (p & 0xF0)
		}
	case 0x1D: // Txy: tremor
		if p != 0 {
			ch.tremorParam = p
		}
	case 0x21: // X1y/X2y: extra fine portamento
		switch p >> 4 {
		case 1:
			if p&0x0F != 0 {
				ch.extraFinePortamentoUpParam = p & 0x0F
			}
			c.pitchSlide(ch, -int(ch.extraFinePortamentoUpParam))
		case 2:
			if p&0x0F != 0 {
				ch.extraFinePortamentoDownParam = p & 0x0F
			}
			c.pitchSlide(ch, int(ch.extraFinePortamentoDownParam))
		}
	}
}

func (c *Context) handleExtendedEffect(ch *channelContext, p uint8) {
	x := p & 0x0F
	switch p >> 4 {
	case 0x1: // fine portamento up
		if x != 0 {
			ch.finePortamentoUpParam = x
		}
		c.pitchSlide(ch, -4*int(ch.finePortamentoUpParam))
	case 0x2: // fine portamento down
		if x != 0 {
			ch.finePortamentoDownParam = x
		}
		c.pitchSlide(ch, 4*int(ch.finePortamentoDownParam))
	case 0x4: // vibrato control
		ch.vibratoControlParam = x
	case 0x5: // set finetune, effective for the note on this row
		if ch.slot.hasNote() && ch.sample >= 0 {
			ch.finetune = int8((int(x) - 8) << 4)
			smp := c.sampleOf(ch)
			ch.note = realNote(ch.slot.Note, smp.RelativeNote, ch.finetune)
			ch.period = c.periodOfNote(ch.note)
		}
	case 0x6: // pattern loop
		if x == 0 {
			ch.patternLoopOrigin = uint8(c.currentRow)
			// FT2 quirk: falling off the pattern end re-enters the next
			// pattern at the loop origin row.
			c.jumpRow = ch.patternLoopOrigin
			break
		}
		if ch.patternLoopCount == x {
			ch.patternLoopCount = 0
			break
		}
		ch.patternLoopCount++
		c.positionJump = true
		c.jumpDest = uint8(c.currentTableIndex)
		c.jumpRow = ch.patternLoopOrigin
	case 0x7: // tremolo control
		ch.tremoloControlParam = x
	case 0xA: // fine volume slide up
		if x != 0 {
			ch.fineVolumeSlideUpParam = x
		}
		c.volumeSlide(ch, ch.fineVolumeSlideUpParam<<4)
	case 0xB: // fine volume slide down
		if x != 0 {
			ch.fineVolumeSlideDownParam = x
		}
		c.volumeSlide(ch, ch.fineVolumeSlideDownParam)
	case 0xE: // pattern delay
		c.extraRows = x
	}
}

// tickVolumeColumn is the per-tick half of the volume column.
func (c *Context) tickVolumeColumn(ch *channelContext, s *PatternSlot) {
	if c.currentTick == 0 {
		return
	}
	switch s.VolumeColumn >> 4 {
	case 0x6: // volume slide down
		c.volumeSlide(ch, s.VolumeColumn&0x0F)
	case 0x7: // volume slide up
		c.volumeSlide(ch, s.VolumeColumn<<4)
	case 0xB:
		c.vibrato(ch)
	case 0xD: // panning slide left
		c.panningSlide(ch, s.VolumeColumn&0x0F)
	case 0xE: // panning slide right
		c.panningSlide(ch, s.VolumeColumn<<4)
	case 0xF:
		c.tonePortamento(ch)
	}
}

// tickEffect is the per-tick half of the effect column. It runs on
// every tick, including 0; per-effect policy decides which ticks act.
func (c *Context) tickEffect(ch *channelContext, s *PatternSlot) {
	p := s.EffectParam
	switch s.EffectType {
	case 0x0: // arpeggio
		if p == 0 {
			break
		}
		switch c.currentTick % 3 {
		case 0:
			ch.arpNoteOffset = 0
		case 1:
			ch.arpNoteOffset = p >> 4
		case 2:
			ch.arpNoteOffset = p & 0x0F
		}
	case 0x1:
		if c.currentTick == 0 {
			break
		}
		c.pitchSlide(ch, -4*int(ch.portamentoUpParam))
	case 0x2:
		if c.currentTick == 0 {
			break
		}
		c.pitchSlide(ch, 4*int(ch.portamentoDownParam))
	case 0x3:
		if c.currentTick == 0 {
			break
		}
		c.tonePortamento(ch)
	case 0x4:
		if c.currentTick == 0 {
			break
		}
		c.vibrato(ch)
	case 0x5: // tone portamento + volume slide
		if c.currentTick == 0 {
			break
		}
		c.tonePortamento(ch)
		c.volumeSlide(ch, ch.volumeSlideParam)
	case 0x6: // vibrato + volume slide
		if c.currentTick == 0 {
			break
		}
		c.vibrato(ch)
		c.volumeSlide(ch, ch.volumeSlideParam)
	case 0x7:
		if c.currentTick == 0 {
			break
		}
		c.tremolo(ch)
	case 0xA:
		if c.currentTick == 0 {
			break
		}
		c.volumeSlide(ch, ch.volumeSlideParam)
	case 0xE:
		x := p & 0x0F
		switch p >> 4 {
		case 0x9: // retrigger every x ticks
			if x != 0 && c.currentTick > 0 && c.currentTick%x == 0 {
				c.prefillRampBuffer(ch)
				c.triggerNote(ch, triggerKeepVolume)
			}
		case 0xC: // note cut at tick x
			if c.currentTick == x {
				ch.volume = 0
			}
		case 0xD: // note delay: the suppressed trigger happens now
			if c.currentTick == ch.noteDelayParam && s.hasNoteDelay() {
				c.delayedNote(ch, s)
			}
		}
	case 0x11: // global volume slide
		if c.currentTick == 0 {
			break
		}
		c.globalVolumeSlide(ch.globalVolumeSlideParam)
	case 0x14: // Kxx: key off at tick x
		if c.currentTick == p {
			c.keyOff(ch)
		}
	case 0x19: // panning slide
		if c.currentTick == 0 {
			break
		}
		c.panningSlide(ch, ch.panningSlideParam)
	case 0x1B: // multi retrig
		if c.currentTick == 0 {
			break
		}
		c.multiRetrig(ch)
	case 0x1D: // tremor
		if c.currentTick == 0 {
			break
		}
		c.tremor(ch)
	}
}

// delayedNote performs the note/instrument half of a slot whose trigger
// was suppressed by EDx, plus the volume column that FT2 also delays.
func (c *Context) delayedNote(ch *channelContext, s *PatternSlot) {
	stripped := *s
	stripped.EffectType = 0
	stripped.EffectParam = 0
	c.handleSlot(ch, &stripped)
	ch.slot = s
}

func (c *Context) triggerNote(ch *channelContext, flags triggerFlags) {
	if flags&triggerKeepSamplePosition == 0 {
		ch.samplePosition = 0
		ch.reverse = false
	}

	if smp := c.sampleOf(ch); smp != nil {
		if flags&triggerKeepVolume == 0 {
			ch.volume = smp.Volume
		}
		ch.panning = uint16(smp.Panning)
	}

	ch.sustained = true
	ch.fadeoutVolume = maxFadeoutVolume
	ch.volumeEnvelopeFrameCount = 0
	ch.panningEnvelopeFrameCount = 0
	ch.volumeOffset = 0
	ch.vibratoOffset = 0
	ch.tremorOn = false
	ch.tremorTicks = 0
	ch.autovibratoTicks = 0

	if waveformRetriggers(ch.vibratoControlParam) {
		ch.vibratoTicks = 0
	}
	if waveformRetriggers(ch.tremoloControlParam) {
		ch.tremoloTicks = 0
	}

	if flags&triggerKeepPeriod == 0 {
		ch.period = c.periodOfNote(ch.note)
	}

	if c.cfg.Timing {
		ch.latestTrigger = c.generatedFrames
		if ch.instrument >= 0 {
			c.latestTriggerInstrument[ch.instrument] = c.generatedFrames
		}
		if ch.sample >= 0 {
			c.latestTriggerSample[ch.sample] = c.generatedFrames
		}
	}
}

// cutNote silences the channel. The sample keeps playing, inaudibly.
func (c *Context) cutNote(ch *channelContext) {
	ch.volume = 0
}

func (c *Context) keyOff(ch *channelContext) {
	ch.sustained = false
	inst := c.instrumentOf(ch)
	if inst == nil || !inst.VolumeEnvelope.enabled() {
		c.cutNote(ch)
	}
}

// volumeSlide interprets the shared x-up/y-down nibble convention; the
// x nibble wins when both are set.
func (c *Context) volumeSlide(ch *channelContext, param uint8) {
	if param>>4 != 0 {
		ch.volume = clampMax(ch.volume+param>>4, maxVolume)
		return
	}
	y := param & 0x0F
	if y > ch.volume {
		ch.volume = 0
	} else {
		ch.volume -= y
	}
}

func (c *Context) globalVolumeSlide(param uint8) {
	if param>>4 != 0 {
		c.globalVolume = clampMax(c.globalVolume+param>>4, maxVolume)
		return
	}
	y := param & 0x0F
	if y > c.globalVolume {
		c.globalVolume = 0
	} else {
		c.globalVolume -= y
	}
}

func (c *Context) panningSlide(ch *channelContext, param uint8) {
	if param>>4 != 0 {
		ch.panning = clampMax(ch.panning+uint16(param>>4), 255)
		return
	}
	y := uint16(param & 0x0F)
	if y > ch.panning {
		ch.panning = 0
	} else {
		ch.panning -= y
	}
}

func (c *Context) pitchSlide(ch *channelContext, delta int) {
	ch.period = uint16(clamp(int(ch.period)+delta, minPeriod, 65535))
}

func (c *Context) tonePortamento(ch *channelContext) {
	if ch.tonePortamentoTargetPeriod == 0 {
		return
	}
	ch.period = slideTowards(ch.period, ch.tonePortamentoTargetPeriod, 4*uint16(ch.tonePortamentoParam))
}

func (c *Context) vibrato(ch *channelContext) {
	ch.vibratoTicks += ch.vibratoParam >> 4
	depth := float64(ch.vibratoParam & 0x0F)
	// Full depth swings the pitch by 2 semitones, in 1/64 units.
	v := -2 * 64 * c.waveform(ch.vibratoControlParam, ch.vibratoTicks) * depth / 0x0F
	ch.vibratoOffset = int16(v)
}

func (c *Context) tremolo(ch *channelContext) {
	ch.tremoloTicks += ch.tremoloParam >> 4
	depth := float64(ch.tremoloParam & 0x0F)
	v := -4 * c.waveform(ch.tremoloControlParam, ch.tremoloTicks) * depth
	ch.volumeOffset = int8(clamp(v, -maxVolume, maxVolume))
}

func (c *Context) tremor(ch *channelContext) {
	if ch.tremorTicks == 0 {
		ch.tremorOn = !ch.tremorOn
		if ch.tremorOn {
			ch.tremorTicks = (ch.tremorParam >> 4) + 1
		} else {
			ch.tremorTicks = (ch.tremorParam & 0x0F) + 1
		}
	}
	ch.tremorTicks--
	if ch.tremorOn {
		ch.volumeOffset = 0
	} else {
		ch.volumeOffset = -maxVolume
	}
}

func (c *Context) multiRetrig(ch *channelContext) {
	y := ch.multiRetrigParam & 0x0F
	if y == 0 || c.currentTick%y != 0 {
		return
	}
	c.prefillRampBuffer(ch)
	c.triggerNote(ch, triggerKeepVolume|triggerKeepPeriod)
	x := ch.multiRetrigParam >> 4
	v := float64(ch.volume)*multiRetrigMul[x] + float64(multiRetrigAdd[x])
	ch.volume = uint8(clamp(v, 0, maxVolume))
}
