package xmfile

import (
	"encoding/binary"
	"fmt"
	"strings"
)

type parser struct {
	data   []byte
	offset int

	module Module

	config ParserConfig

	// Current file section, for error reporting.
	section      string
	sectionIndex int
}

func (p *parser) startSection(name string, index int) {
	p.section = name
	p.sectionIndex = index
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	e := &ParseError{
		Message: fmt.Sprintf(format, args...),
		Section: p.section,
		Offset:  p.offset,
	}
	if p.sectionIndex >= 0 {
		e.Section = fmt.Sprintf("%s[%d]", p.section, p.sectionIndex)
	}
	return e
}

func (p *parser) remaining() int {
	return len(p.data) - p.offset
}

func (p *parser) read(l int, what string) []byte {
	if p.remaining() < l {
		panic(p.errorf("unexpected EOF while reading %s", what))
	}
	b := p.data[p.offset : p.offset+l]
	p.offset += l
	return b
}

func (p *parser) skip(l int, what string) {
	if p.remaining() < l {
		panic(p.errorf("unexpected EOF while reading %s", what))
	}
	p.offset += l
}

func (p *parser) readByte(what string) uint8 {
	return p.read(1, what)[0]
}

func (p *parser) readWord(what string) int {
	return int(binary.LittleEndian.Uint16(p.read(2, what)))
}

func (p *parser) readDword(what string) int {
	return int(int32(binary.LittleEndian.Uint32(p.read(4, what))))
}

func (p *parser) readString(l int, what string) string {
	return convertCstring(p.read(l, what))
}

func (p *parser) readOptionalString(l int, what string) string {
	if p.config.SkipStrings {
		p.skip(l, what)
		return ""
	}
	return p.readString(l, what)
}

func (p *parser) parse() (m *Module, err error) {
	defer func() {
		rv := recover()
		if rv == nil {
			return
		}
		if parseErr, ok := rv.(*ParseError); ok {
			m = nil
			err = parseErr
			return
		}
		panic(rv)
	}()

	p.startSection("header", -1)
	p.parseHeader()

	for i := 0; i < p.module.NumPatterns; i++ {
		p.startSection("pattern", i)
		p.module.Patterns = append(p.module.Patterns, p.parsePattern())
	}

	for i := 0; i < p.module.NumInstruments; i++ {
		p.startSection("instrument", i)
		p.module.Instruments = append(p.module.Instruments, p.parseInstrument())
	}

	return &p.module, nil
}

func (p *parser) parseHeader() {
	idText := p.readString(17, "id text")
	if !strings.EqualFold(idText, "extended module: ") {
		panic(p.errorf("unexpected ID text: %q", idText))
	}

	p.module.Name = strings.TrimSpace(p.readString(20, "module name"))

	if b := p.readByte("magic byte"); b != 0x1a {
		panic(p.errorf("expected 0x1a, found %#02x", b))
	}

	p.module.TrackerName = strings.TrimSpace(p.readString(20, "tracker name"))

	version := p.readWord("version")
	p.module.Version[0] = uint8(version >> 8)
	p.module.Version[1] = uint8(version & 0xff)

	headerSize := p.readDword("header size") - 4
	if headerSize < 0 || p.remaining() < headerSize {
		panic(p.errorf("invalid header size: %d", headerSize+4))
	}
	end := p.offset + headerSize

	p.module.SongLength = p.readWord("song length")
	if p.module.SongLength <= 0 || p.module.SongLength > 256 {
		panic(p.errorf("invalid song length value: %d", p.module.SongLength))
	}

	p.module.RestartPosition = p.readWord("restart position")
	if p.module.RestartPosition >= p.module.SongLength {
		p.module.RestartPosition = 0
	}

	p.module.NumChannels = p.readWord("number of channels")
	p.module.NumPatterns = p.readWord("number of patterns")
	p.module.NumInstruments = p.readWord("number of instruments")

	p.module.Flags = uint16(p.readWord("flags"))
	p.module.DefaultTempo = p.readWord("default tempo")
	p.module.DefaultBPM = p.readWord("default bpm")

	p.module.PatternOrder = p.read(p.module.SongLength, "pattern order table")

	p.offset = end
}

func (p *parser) parsePattern() Pattern {
	var pat Pattern

	patternHeaderLength := p.readDword("pattern header length")
	if patternHeaderLength < 9 {
		panic(p.errorf("invalid pattern header length: %d", patternHeaderLength))
	}
	p.skip(1, "packing type")

	numRows := p.readWord("number of rows")
	if numRows <= 0 || numRows > 256 {
		panic(p.errorf("invalid number of rows: %d", numRows))
	}

	packedSize := p.readWord("packed pattern data size")
	if p.remaining() < packedSize {
		panic(p.errorf("incomplete packed pattern data"))
	}
	end := p.offset + packedSize

	// Usually zero, but the stated header size wins.
	p.skip(patternHeaderLength-9, "pattern metadata")

	if packedSize == 0 {
		// An empty pattern is stored as no data at all and plays as 64
		// empty rows regardless of the declared row count.
		pat.Rows = make([]PatternRow, 64)
		for i := range pat.Rows {
			pat.Rows[i].Notes = make([]PatternNote, p.module.NumChannels)
		}
		return pat
	}

	pat.Rows = make([]PatternRow, numRows)
	for i := range pat.Rows {
		pat.Rows[i].Notes = make([]PatternNote, p.module.NumChannels)
		for j := range pat.Rows[i].Notes {
			pat.Rows[i].Notes[j] = p.parseNote()
		}
	}

	if p.offset < end {
		panic(p.errorf("found %d redundant bytes in the pattern data", end-p.offset))
	}
	if p.offset > end {
		panic(p.errorf("consumed %d extra bytes of the pattern data", p.offset-end))
	}

	return pat
}

func (p *parser) parseNote() PatternNote {
	var note PatternNote

	b := p.readByte("first note byte")
	if b&0b10000000 == 0 {
		// Uncompressed: five plain bytes, the first of which we already
		// consumed.
		note.Note = b
		note.Instrument = p.readByte("pattern instrument")
		note.Volume = p.readByte("pattern volume")
		note.EffectType = p.readByte("effect type")
		note.EffectParameter = p.readByte("effect parameter")
		return note
	}

	// MSB set: the low bits say which of the five bytes follow.
	if b&(1<<0) != 0 {
		note.Note = p.readByte("pattern note")
	}
	if b&(1<<1) != 0 {
		note.Instrument = p.readByte("pattern instrument")
	}
	if b&(1<<2) != 0 {
		note.Volume = p.readByte("pattern volume")
	}
	if b&(1<<3) != 0 {
		note.EffectType = p.readByte("effect type")
	}
	if b&(1<<4) != 0 {
		note.EffectParameter = p.readByte("effect parameter")
	}
	return note
}

func (p *parser) parseInstrument() Instrument {
	var inst Instrument

	headerSize := p.readDword("instrument header size") - 4
	if headerSize < 0 || p.remaining() < headerSize {
		panic(p.errorf("incomplete instrument header data"))
	}
	end := p.offset + headerSize

	inst.Name = p.readOptionalString(22, "instrument name")

	p.skip(1, "instrument type")

	numSamples := p.readWord("number of samples")
	if numSamples == 0 {
		if p.offset > end {
			panic(p.errorf("consumed %d extra bytes", p.offset-end))
		}
		p.offset = end
		return inst
	}

	sampleHeaderSize := p.readDword("instrument sample header size") - 4
	if sampleHeaderSize < 0 || p.remaining() < sampleHeaderSize {
		panic(p.errorf("incomplete instrument sample header data"))
	}

	inst.KeymapAssignments = p.read(96, "instrument samples keymap assignments")

	inst.EnvelopeVolume = p.parseEnvelopePoints("volume")
	inst.EnvelopePanning = p.parseEnvelopePoints("panning")

	numVolumePoints := p.readByte("number of volume points")
	if numVolumePoints > 12 {
		numVolumePoints = 12
	}
	inst.EnvelopeVolume = inst.EnvelopeVolume[:numVolumePoints]

	numPanningPoints := p.readByte("number of panning points")
	if numPanningPoints > 12 {
		numPanningPoints = 12
	}
	inst.EnvelopePanning = inst.EnvelopePanning[:numPanningPoints]

	inst.VolumeSustainPoint = p.readByte("volume sustain point")
	inst.VolumeLoopStartPoint = p.readByte("volume loop start point")
	inst.VolumeLoopEndPoint = p.readByte("volume loop end point")
	inst.PanningSustainPoint = p.readByte("panning sustain point")
	inst.PanningLoopStartPoint = p.readByte("panning loop start point")
	inst.PanningLoopEndPoint = p.readByte("panning loop end point")

	inst.VolumeFlags = EnvelopeFlags(p.readByte("volume type"))
	inst.PanningFlags = EnvelopeFlags(p.readByte("panning type"))

	inst.VibratoType = p.readByte("vibrato type")
	inst.VibratoSweep = p.readByte("vibrato sweep")
	inst.VibratoDepth = p.readByte("vibrato depth")
	inst.VibratoRate = p.readByte("vibrato rate")

	inst.VolumeFadeout = p.readWord("volume fadeout")

	if p.offset > end {
		panic(p.errorf("consumed %d extra bytes", p.offset-end))
	}
	p.offset = end

	inst.Samples = make([]InstrumentSample, numSamples)
	for i := range inst.Samples {
		p.parseSampleHeader(&inst.Samples[i])
	}
	for i := range inst.Samples {
		sample := &inst.Samples[i]
		if sample.Length == 0 {
			continue
		}
		sample.Data = p.read(sample.Length, "sample data")
	}

	return inst
}

func (p *parser) parseEnvelopePoints(what string) []EnvelopePoint {
	points := make([]EnvelopePoint, 12)
	for i := range points {
		points[i].X = uint16(p.readWord(what + " envelope point x"))
		points[i].Y = uint16(p.readWord(what + " envelope point y"))
	}
	return points
}

func (p *parser) parseSampleHeader(sample *InstrumentSample) {
	sample.Length = p.readDword("sample length")
	if sample.Length < 0 || p.remaining() < sample.Length {
		panic(p.errorf("incomplete instrument sample data"))
	}

	sample.LoopStart = p.readDword("sample loop start")
	sample.LoopLength = p.readDword("sample loop length")
	sample.Volume = int(p.readByte("sample volume"))
	sample.Finetune = int(int8(p.readByte("sample finetune")))
	sample.TypeFlags = p.readByte("sample type")
	sample.Panning = p.readByte("sample panning")
	sample.RelativeNote = int(int8(p.readByte("sample relative note number")))

	if enc := p.readByte("sample encoding"); enc != 0 {
		panic(p.errorf("unsupported sample encoding scheme (%#02x)", enc))
	}

	sample.Name = p.readOptionalString(22, "sample name")
}
