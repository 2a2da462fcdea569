package xm

// FrequencyType is the pitch model a module was saved with.
type FrequencyType uint8

const (
	LinearFrequencies FrequencyType = iota
	AmigaFrequencies
)

// EnvelopePoint is a single control point of a volume or panning
// envelope. Frames are non-decreasing across the points of an envelope.
type EnvelopePoint struct {
	Frame uint16
	Value uint8 // 0..=maxEnvelopeValue
}

// Envelope holds up to 12 control points plus sustain/loop indices.
// Point counts outside [2,12] disable the envelope; sustain/loop point
// indices at or beyond NumPoints disable sustain/looping.
type Envelope struct {
	Points [maxEnvelopePoints]EnvelopePoint

	NumPoints      uint8
	SustainPoint   uint8
	LoopStartPoint uint8
	LoopEndPoint   uint8
}

func (e *Envelope) enabled() bool {
	return e.NumPoints >= 2 && e.NumPoints <= maxEnvelopePoints
}

func (e *Envelope) sustainEnabled() bool {
	return e.SustainPoint < e.NumPoints
}

func (e *Envelope) loopEnabled() bool {
	return e.LoopStartPoint < e.NumPoints &&
		e.LoopEndPoint < e.NumPoints &&
		e.LoopStartPoint <= e.LoopEndPoint
}

// Sample is waveform metadata. The waveform itself lives in the shared
// module arena at [Index, Index+Length); Length doubles as the loop end.
type Sample struct {
	Index      uint32
	Length     uint32
	LoopLength uint32 // 0 means no looping

	PingPong     bool
	Volume       uint8 // 0..=maxVolume
	Panning      uint8
	Finetune     int8 // 1/128 semitone units
	RelativeNote int8

	Name string
}

func (s *Sample) loopStart() uint32 { return s.Length - s.LoopLength }

// Instrument is a playable voice: envelopes, autovibrato, and a
// note-to-sample keymap over the module sample table slice
// [SamplesIndex, SamplesIndex+NumSamples).
type Instrument struct {
	VolumeEnvelope  Envelope
	PanningEnvelope Envelope

	SampleOfNotes [numNotes]uint8

	SamplesIndex  uint16
	VolumeFadeout uint16
	NumSamples    uint8

	VibratoType  uint8
	VibratoSweep uint8
	VibratoDepth uint8
	VibratoRate  uint8

	Name string
}

// PatternSlot is one channel's cell at one row.
type PatternSlot struct {
	Note         uint8 // 0 = none, 1..=96 = note, keyOffNote = key off
	Instrument   uint8 // 0 = none, otherwise 1-based
	VolumeColumn uint8
	EffectType   uint8
	EffectParam  uint8
}

func (s *PatternSlot) hasNote() bool {
	return s.Note > 0 && s.Note <= numNotes
}

func (s *PatternSlot) hasTonePortamento() bool {
	return s.EffectType == 3 || s.EffectType == 5 || s.VolumeColumn>>4 == 0x0F
}

func (s *PatternSlot) hasVibrato() bool {
	return s.EffectType == 4 || s.EffectType == 6 || s.VolumeColumn>>4 == 0x0B
}

func (s *PatternSlot) hasArpeggio() bool {
	return s.EffectType == 0 && s.EffectParam != 0
}

func (s *PatternSlot) hasNoteDelay() bool {
	return s.EffectType == 0x0E && s.EffectParam>>4 == 0x0D && s.EffectParam&0x0F != 0
}

// Pattern is a row range into the module's shared slot arena. Multiple
// order table entries may reference the same pattern.
type Pattern struct {
	RowsIndex uint16 // first row, in row units
	NumRows   uint16 // 1..=maxRowsPerPattern
}

// Module is the static, immutable description of a song. It is produced
// by LoadModule (or by an external loader honoring the same layout) and
// may be shared read-only between any number of Contexts.
type Module struct {
	Patterns     []Pattern
	PatternSlots []PatternSlot // row-major, NumChannels slots per row
	Instruments  []Instrument
	Samples      []Sample

	// SamplesData is the waveform arena, normalized to [-1, 1].
	// When the module was loaded with Config.DeltaSamples it is nil and
	// DeltaData holds the delta-coded arena instead.
	SamplesData []float32
	DeltaData   []int16

	PatternTable [patternOrderLength]uint8

	Length          uint16 // used entries of PatternTable
	RestartPosition uint8
	NumChannels     uint8
	NumRows         uint32 // total rows across all patterns

	FrequencyType FrequencyType

	DefaultTempo uint8
	DefaultBPM   uint8

	Name        string
	TrackerName string
}

func (m *Module) pattern(tableIndex uint16) *Pattern {
	return &m.Patterns[m.PatternTable[tableIndex]]
}

// rowSlots returns the slots of one row of a pattern, one per channel.
func (m *Module) rowSlots(p *Pattern, row uint16) []PatternSlot {
	n := int(m.NumChannels)
	base := (int(p.RowsIndex) + int(row)) * n
	return m.PatternSlots[base : base+n]
}
