package xm

import (
	"math"
)

// Base Amiga periods for octave 2, one per semitone class plus the
// first entry of the next octave for interpolation.
var amigaBasePeriods = [13]float64{
	1712, 1616, 1525, 1440, 1357, 1281, 1209, 1141,
	1077, 1017, 961, 907, 856,
}

// realNote converts a pattern note (1..=96) into fractional semitones,
// folding in the sample's relative note and a finetune in 1/128
// semitone units (the channel override from E5y, or the sample's own).
func realNote(note uint8, relativeNote int8, finetune int8) float64 {
	return float64(note) + float64(relativeNote) + float64(finetune)/128 - 1
}

func linearPeriod(note float64) float64 {
	return 7680 - note*64
}

func linearFrequency(period float64) float64 {
	return 8363 * math.Pow(2, (4608-period)/768)
}

func amigaPeriod(note float64) float64 {
	// Out-of-range real notes are a loader precondition violation; clamp
	// instead of indexing out of the base table.
	note = clamp(note, 0, 118)
	intnote := int(note)
	a := intnote % 12
	octave := intnote/12 - 2
	p1 := amigaBasePeriods[a]
	p2 := amigaBasePeriods[a+1]
	if octave > 0 {
		p1 /= float64(int(1) << octave)
		p2 /= float64(int(1) << octave)
	} else if octave < 0 {
		p1 *= float64(int(1) << -octave)
		p2 *= float64(int(1) << -octave)
	}
	return lerp(p1, p2, note-float64(intnote))
}

// amigaNoteOfPeriod is the inverse of amigaPeriod: it locates the
// octave and the bracketing semitone entries of the base table and
// interpolates between them.
func amigaNoteOfPeriod(period float64) float64 {
	octave := 0
	for period > amigaBasePeriods[0] {
		period /= 2
		octave--
	}
	for period < amigaBasePeriods[12] {
		period *= 2
		octave++
	}
	for i := 0; i < 12; i++ {
		p1, p2 := amigaBasePeriods[i], amigaBasePeriods[i+1]
		if period <= p1 && period >= p2 {
			t := (p1 - period) / (p1 - p2)
			return float64((octave+2)*12+i) + t
		}
	}
	return float64((octave + 2) * 12)
}

func amigaFrequency(period float64) float64 {
	return 7093789.2 / (period * 2)
}

// period converts a real note into the channel period for the module's
// frequency model. Lower period means higher pitch in both models.
func (c *Context) periodOfNote(note float64) uint16 {
	var p float64
	switch c.mod.FrequencyType {
	case LinearFrequencies:
		p = linearPeriod(note)
	default:
		p = amigaPeriod(note)
	}
	return uint16(clamp(math.Round(p), 1, 65535))
}

// frequency returns the playback frequency of a period with a pitch
// offset in 1/64 semitone units (arpeggio, vibrato, autovibrato).
func (c *Context) frequency(period uint16, offset64 int32) float64 {
	switch c.mod.FrequencyType {
	case LinearFrequencies:
		return linearFrequency(float64(int32(period) - offset64))
	default:
		if offset64 == 0 {
			return amigaFrequency(float64(period))
		}
		note := amigaNoteOfPeriod(float64(period)) + float64(offset64)/64
		return amigaFrequency(amigaPeriod(note))
	}
}

// updateStep recomputes the channel's per-frame microstep increment
// from its period and the transient pitch offsets.
func (c *Context) updateStep(ch *channelContext) {
	offset := 64*int32(ch.arpNoteOffset) + int32(ch.vibratoOffset) + int32(ch.autovibratoNoteOffset)
	freq := c.frequency(ch.period, offset)
	step := math.Round(freq * float64(c.microsteps) / float64(c.rate))
	if step < 0 || step > float64(^uint32(0)) {
		step = 0
	}
	ch.step = uint32(step)
}
