package xm

import (
	"fmt"
	"io"

	"github.com/soniqlab/xm/xmfile"
)

// Load parses an XM file and compiles it into a playable Module.
func Load(r io.Reader, config Config) (*Module, error) {
	f, err := xmfile.ParseConfig(r, xmfile.ParserConfig{
		SkipStrings: config.NoStrings,
	})
	if err != nil {
		return nil, err
	}
	return LoadModule(f, config)
}

// LoadModule compiles parsed XM file contents into the arena form the
// player works with: patterns flattened into one slot slice, samples
// decoded (or kept delta-coded, see Config.DeltaSamples) into one
// waveform arena, notes and loop bounds normalized.
func LoadModule(f *xmfile.Module, config Config) (*Module, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	if f.NumChannels <= 0 || f.NumChannels > 255 {
		return nil, fmt.Errorf("xm: invalid number of channels: %d", f.NumChannels)
	}
	if f.SongLength <= 0 || f.SongLength > patternOrderLength {
		return nil, fmt.Errorf("xm: invalid song length: %d", f.SongLength)
	}

	mod := &Module{
		Length:          uint16(f.SongLength),
		RestartPosition: uint8(f.RestartPosition),
		NumChannels:     uint8(f.NumChannels),
		DefaultTempo:    uint8(clamp(f.DefaultTempo, 1, 255)),
		DefaultBPM:      uint8(clamp(f.DefaultBPM, minBPM, maxBPM)),
	}
	if f.Flags&1 != 0 {
		mod.FrequencyType = LinearFrequencies
	} else {
		mod.FrequencyType = AmigaFrequencies
	}
	if !config.NoStrings {
		mod.Name = f.Name
		mod.TrackerName = f.TrackerName
	}

	if err := loadPatterns(mod, f); err != nil {
		return nil, err
	}
	if err := loadInstruments(mod, f, config); err != nil {
		return nil, err
	}

	return mod, nil
}

func loadPatterns(mod *Module, f *xmfile.Module) error {
	numChannels := f.NumChannels

	mod.Patterns = make([]Pattern, 0, len(f.Patterns)+1)
	for i := range f.Patterns {
		rows := f.Patterns[i].Rows
		if len(rows) == 0 || len(rows) > maxRowsPerPattern {
			return fmt.Errorf("xm: pattern %d: invalid number of rows: %d", i, len(rows))
		}
		mod.Patterns = append(mod.Patterns, Pattern{
			RowsIndex: uint16(mod.NumRows),
			NumRows:   uint16(len(rows)),
		})
		mod.NumRows += uint32(len(rows))

		for _, row := range rows {
			if len(row.Notes) != numChannels {
				return fmt.Errorf("xm: pattern %d: row has %d notes, want %d", i, len(row.Notes), numChannels)
			}
			for _, n := range row.Notes {
				mod.PatternSlots = append(mod.PatternSlots, compileSlot(n))
			}
		}
	}

	// Out-of-range order entries point at a shared empty pattern, like
	// FT2 plays them.
	emptyPattern := -1
	for i := 0; i < f.SongLength; i++ {
		entry := int(f.PatternOrder[i])
		if entry < len(f.Patterns) {
			mod.PatternTable[i] = uint8(entry)
			continue
		}
		if emptyPattern < 0 {
			emptyPattern = len(mod.Patterns)
			mod.Patterns = append(mod.Patterns, Pattern{
				RowsIndex: uint16(mod.NumRows),
				NumRows:   1,
			})
			mod.NumRows++
			mod.PatternSlots = append(mod.PatternSlots, make([]PatternSlot, numChannels)...)
		}
		mod.PatternTable[i] = uint8(emptyPattern)
	}

	return nil
}

func compileSlot(n xmfile.PatternNote) PatternSlot {
	s := PatternSlot{
		Note:         n.Note,
		Instrument:   n.Instrument,
		VolumeColumn: n.Volume,
		EffectType:   n.EffectType,
		EffectParam:  n.EffectParameter,
	}
	switch {
	case s.Note == 97:
		s.Note = keyOffNote
	case s.Note > numNotes && s.Note != keyOffNote:
		s.Note = 0
	}
	return s
}

func loadInstruments(mod *Module, f *xmfile.Module, config Config) error {
	mod.Instruments = make([]Instrument, 0, len(f.Instruments))

	for i := range f.Instruments {
		finst := &f.Instruments[i]
		inst := Instrument{
			SamplesIndex:  uint16(len(mod.Samples)),
			NumSamples:    uint8(clampMax(len(finst.Samples), 255)),
			VolumeFadeout: uint16(clamp(finst.VolumeFadeout, 0, 65535)),
			VibratoType:   finst.VibratoType,
			VibratoSweep:  finst.VibratoSweep,
			VibratoDepth:  finst.VibratoDepth,
			VibratoRate:   finst.VibratoRate,
		}
		if !config.NoStrings {
			inst.Name = finst.Name
		}

		copy(inst.SampleOfNotes[:], finst.KeymapAssignments)

		loadEnvelope(&inst.VolumeEnvelope, finst.EnvelopeVolume, finst.VolumeFlags,
			finst.VolumeSustainPoint, finst.VolumeLoopStartPoint, finst.VolumeLoopEndPoint)
		loadEnvelope(&inst.PanningEnvelope, finst.EnvelopePanning, finst.PanningFlags,
			finst.PanningSustainPoint, finst.PanningLoopStartPoint, finst.PanningLoopEndPoint)

		for j := range finst.Samples {
			smp, err := loadSample(mod, &finst.Samples[j], config)
			if err != nil {
				return fmt.Errorf("xm: instrument %d sample %d: %w", i, j, err)
			}
			mod.Samples = append(mod.Samples, smp)
		}

		mod.Instruments = append(mod.Instruments, inst)
	}

	return nil
}

func loadEnvelope(env *Envelope, points []xmfile.EnvelopePoint, flags xmfile.EnvelopeFlags, sustain, loopStart, loopEnd uint8) {
	if !flags.IsOn() {
		return // NumPoints stays 0, the envelope is off
	}
	env.NumPoints = uint8(clampMax(len(points), maxEnvelopePoints))
	for i := 0; i < int(env.NumPoints); i++ {
		env.Points[i] = EnvelopePoint{
			Frame: points[i].X,
			Value: uint8(clampMax(points[i].Y, maxEnvelopeValue)),
		}
	}

	env.SustainPoint = sustain
	env.LoopStartPoint = loopStart
	env.LoopEndPoint = loopEnd
	if !flags.SustainEnabled() {
		env.SustainPoint = env.NumPoints
	}
	if !flags.LoopEnabled() {
		env.LoopStartPoint = env.NumPoints
		env.LoopEndPoint = env.NumPoints
	}
}

func loadSample(mod *Module, fsmp *xmfile.InstrumentSample, config Config) (Sample, error) {
	length := fsmp.Length
	loopStart := fsmp.LoopStart
	loopLength := fsmp.LoopLength
	if fsmp.Is16bits() {
		length /= 2
		loopStart /= 2
		loopLength /= 2
	}

	maxLength := int(^uint32(0)>>config.MicrostepBits) + 1
	if length > maxLength {
		return Sample{}, fmt.Errorf("too long for the microstep resolution: %d frames", length)
	}

	// Normalize the loop window so that the playback code can trust it.
	if loopStart > length {
		loopStart = length
	}
	if loopStart+loopLength > length {
		loopLength = length - loopStart
	}
	if fsmp.LoopType() == xmfile.SampleLoopNone || fsmp.LoopType() == xmfile.SampleLoopUnknown {
		loopLength = 0
	}

	smp := Sample{
		Index:        uint32(len(mod.SamplesData) + len(mod.DeltaData)),
		LoopLength:   uint32(loopLength),
		PingPong:     fsmp.LoopType() == xmfile.SampleLoopPingPong,
		Volume:       uint8(clamp(fsmp.Volume, 0, maxVolume)),
		Panning:      fsmp.Panning,
		Finetune:     int8(fsmp.Finetune),
		RelativeNote: int8(fsmp.RelativeNote),
	}
	if !config.NoStrings {
		smp.Name = fsmp.Name
	}

	// Everything past the loop end is unreachable, so don't keep it.
	if loopLength > 0 {
		length = loopStart + loopLength
	}
	smp.Length = uint32(length)

	if config.DeltaSamples {
		mod.DeltaData = append(mod.DeltaData, sampleDeltas(fsmp, length)...)
		return smp, nil
	}
	mod.SamplesData = append(mod.SamplesData, decodeSampleData(fsmp, length)...)
	return smp, nil
}

// decodeSampleData undoes the delta coding of the raw sample bytes and
// normalizes frames to [-1, 1].
func decodeSampleData(fsmp *xmfile.InstrumentSample, length int) []float32 {
	out := make([]float32, length)
	if fsmp.Is16bits() {
		var acc int16
		for i := 0; i < length; i++ {
			d := int16(fsmp.Data[2*i]) | int16(fsmp.Data[2*i+1])<<8
			acc += d
			out[i] = float32(acc) / 32768
		}
		return out
	}
	var acc int8
	for i := 0; i < length; i++ {
		acc += int8(fsmp.Data[i])
		out[i] = float32(acc) / 128
	}
	return out
}

// sampleDeltas keeps the waveform delta-coded, widened to 16 bits. The
// 8-bit case shifts each delta up; the wrap-around of the running sum
// behaves the same in the low byte, so decoding stays exact.
func sampleDeltas(fsmp *xmfile.InstrumentSample, length int) []int16 {
	out := make([]int16, length)
	if fsmp.Is16bits() {
		for i := 0; i < length; i++ {
			out[i] = int16(fsmp.Data[2*i]) | int16(fsmp.Data[2*i+1])<<8
		}
		return out
	}
	for i := 0; i < length; i++ {
		out[i] = int16(int8(fsmp.Data[i])) << 8
	}
	return out
}
