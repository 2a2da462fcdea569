package xm

// tick advances the playback state by one tracker tick. Tick 0 of a row
// also reads (or, under a pattern delay, re-applies) the row's slots.
func (c *Context) tick() {
	if c.currentTick == 0 {
		if c.extraRowsDone < c.extraRows {
			c.extraRowsDone++
			c.repeatRow()
		} else {
			c.row()
		}
	}

	for i := range c.channels {
		ch := &c.channels[i]
		s := ch.slot
		if s == nil {
			continue
		}

		c.tickEnvelopes(ch)
		c.autovibrato(ch)

		// Arpeggio and vibrato detune only last as long as their
		// command does.
		if ch.arpNoteOffset != 0 && !s.hasArpeggio() {
			ch.arpNoteOffset = 0
		}
		if ch.vibratoOffset != 0 && !s.hasVibrato() {
			ch.vibratoOffset = 0
		}

		c.tickVolumeColumn(ch, s)
		c.tickEffect(ch, s)

		c.updateStep(ch)
		c.computeVolumes(ch)
	}

	c.currentTick++
	if c.currentTick >= c.tempo {
		c.currentTick = 0
	}
}

// row reads the next pattern row, honoring any jump requested by the
// previous one.
func (c *Context) row() {
	c.extraRows = 0
	c.extraRowsDone = 0

	if c.positionJump {
		c.currentTableIndex = uint16(c.jumpDest)
		c.currentRow = uint16(c.jumpRow)
		c.positionJump = false
		c.patternBreak = false
		c.jumpRow = 0
		c.postPatternChange()
	} else if c.patternBreak {
		c.currentTableIndex++
		c.currentRow = uint16(c.jumpRow)
		c.patternBreak = false
		c.jumpRow = 0
		c.postPatternChange()
	}

	pat := c.mod.pattern(c.currentTableIndex)
	if c.currentRow >= pat.NumRows {
		// Dxx past the end of the next pattern.
		c.currentRow = 0
	}
	slots := c.mod.rowSlots(pat, c.currentRow)

	inLoop := false
	for i := range c.channels {
		ch := &c.channels[i]
		s := &slots[i]
		if s.hasNoteDelay() {
			// EDx: remember the slot, trigger nothing until tick x.
			ch.slot = s
			ch.noteDelayParam = s.EffectParam & 0x0F
		} else {
			c.handleSlot(ch, s)
		}
		if ch.patternLoopCount > 0 {
			inLoop = true
		}
	}

	// Count row visits for loop detection, except while an E6x loop is
	// rewinding rows on purpose.
	if !inLoop {
		idx := int(c.tableRowIndex[c.currentTableIndex]) + int(c.currentRow)
		n := c.rowLoopCount[idx]
		c.loopCount = n
		if n < 0xFF {
			c.rowLoopCount[idx] = n + 1
		}
	}

	c.currentRow++
	if !c.positionJump && !c.patternBreak && c.currentRow >= pat.NumRows {
		c.currentTableIndex++
		// jumpRow is nonzero only when E60 marked a loop origin here.
		c.currentRow = uint16(c.jumpRow)
		c.jumpRow = 0
		c.postPatternChange()
	}
}

// repeatRow re-applies the tick-0 effects of the current slots during a
// pattern delay. Notes are not re-read, so nothing retriggers.
func (c *Context) repeatRow() {
	for i := range c.channels {
		ch := &c.channels[i]
		if ch.slot == nil || ch.slot.hasNoteDelay() {
			continue
		}
		c.handleSlotEffects(ch, ch.slot)
	}
}

func (c *Context) postPatternChange() {
	if c.currentTableIndex >= c.mod.Length {
		c.currentTableIndex = uint16(c.mod.RestartPosition)
	}
}

func (c *Context) setBPM(bpm uint8) {
	c.bpm = bpm
	// Rounded integer form of rate*2.5/bpm, in 1/tickSubsamples frames.
	c.subsamplesPerTick = int64((5*uint64(c.rate)*tickSubsamples + uint64(bpm)) / (2 * uint64(bpm)))
}
