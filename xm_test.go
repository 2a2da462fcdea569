package xm

// Shared helpers to assemble small in-memory modules for the tests
// below, without going through the file format.

type moduleBuilder struct {
	mod *Module
}

func newModuleBuilder(numChannels int) *moduleBuilder {
	return &moduleBuilder{
		mod: &Module{
			NumChannels:   uint8(numChannels),
			FrequencyType: LinearFrequencies,
			DefaultTempo:  6,
			DefaultBPM:    125,
		},
	}
}

// pattern appends a pattern and its order table entry. Each row must
// have exactly numChannels slots.
func (b *moduleBuilder) pattern(rows ...[]PatternSlot) *moduleBuilder {
	m := b.mod
	m.PatternTable[m.Length] = uint8(len(m.Patterns))
	m.Length++
	m.Patterns = append(m.Patterns, Pattern{
		RowsIndex: uint16(m.NumRows),
		NumRows:   uint16(len(rows)),
	})
	m.NumRows += uint32(len(rows))
	for _, row := range rows {
		if len(row) != int(m.NumChannels) {
			panic("row width does not match the channel count")
		}
		m.PatternSlots = append(m.PatternSlots, row...)
	}
	return b
}

// order appends an extra order table entry for an existing pattern.
func (b *moduleBuilder) order(pattern int) *moduleBuilder {
	m := b.mod
	m.PatternTable[m.Length] = uint8(pattern)
	m.Length++
	return b
}

// instrument appends an instrument with a single sample holding data.
// All notes map to that sample; no envelopes, full volume, centered.
func (b *moduleBuilder) instrument(data []float32, loopLength uint32, pingPong bool) *moduleBuilder {
	m := b.mod
	m.Instruments = append(m.Instruments, Instrument{
		SamplesIndex: uint16(len(m.Samples)),
		NumSamples:   1,
	})
	m.Samples = append(m.Samples, Sample{
		Index:      uint32(len(m.SamplesData)),
		Length:     uint32(len(data)),
		LoopLength: loopLength,
		PingPong:   pingPong,
		Volume:     maxVolume,
		Panning:    128,
	})
	m.SamplesData = append(m.SamplesData, data...)
	return b
}

func (b *moduleBuilder) speed(tempo, bpm uint8) *moduleBuilder {
	b.mod.DefaultTempo = tempo
	b.mod.DefaultBPM = bpm
	return b
}

func (b *moduleBuilder) build() *Module {
	return b.mod
}

func slot(note, instrument, volumeColumn, effectType, effectParam uint8) PatternSlot {
	return PatternSlot{
		Note:         note,
		Instrument:   instrument,
		VolumeColumn: volumeColumn,
		EffectType:   effectType,
		EffectParam:  effectParam,
	}
}

func effect(effectType, effectParam uint8) PatternSlot {
	return slot(0, 0, 0, effectType, effectParam)
}

// note index of C-4 in pattern encoding (1-based).
const noteC4 = 49

func constantData(v float32, n int) []float32 {
	data := make([]float32, n)
	for i := range data {
		data[i] = v
	}
	return data
}

func mustContext(mod *Module, config Config) *Context {
	ctx, err := NewContext(mod, config)
	if err != nil {
		panic(err)
	}
	return ctx
}
