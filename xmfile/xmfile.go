// Package xmfile decodes the FastTracker II extended module (XM) file
// format into a raw, unoptimized in-memory form. Turning that form into
// something playable is the job of the importing package.
package xmfile

import (
	"fmt"
	"io"
)

// Module is parsed XM file contents, kept close to the file layout.
type Module struct {
	Name        string
	TrackerName string

	// Version[0] is the major version, Version[1] the minor one.
	Version [2]byte

	SongLength      int
	RestartPosition int

	NumChannels    int
	NumPatterns    int
	NumInstruments int

	// Bit 0: 0 - Amiga frequencies, 1 - linear frequencies.
	Flags uint16

	DefaultTempo int
	DefaultBPM   int

	PatternOrder []uint8

	Patterns []Pattern

	Instruments []Instrument
}

type Pattern struct {
	Rows []PatternRow
}

type PatternRow struct {
	Notes []PatternNote
}

type PatternNote struct {
	Note            uint8
	Instrument      uint8
	Volume          uint8
	EffectType      uint8
	EffectParameter uint8
}

type Instrument struct {
	Name string

	// KeymapAssignments maps the 96 playable notes to sample indices.
	// Empty for instruments without samples.
	KeymapAssignments []byte

	EnvelopeVolume  []EnvelopePoint
	EnvelopePanning []EnvelopePoint

	VolumeSustainPoint    uint8
	VolumeLoopStartPoint  uint8
	VolumeLoopEndPoint    uint8
	PanningSustainPoint   uint8
	PanningLoopStartPoint uint8
	PanningLoopEndPoint   uint8

	VolumeFlags  EnvelopeFlags
	PanningFlags EnvelopeFlags

	VibratoType  uint8
	VibratoSweep uint8
	VibratoDepth uint8
	VibratoRate  uint8

	VolumeFadeout int

	Samples []InstrumentSample
}

type EnvelopePoint struct {
	X uint16
	Y uint16
}

// InstrumentSample is one sample header plus its raw, still
// delta-coded data bytes.
type InstrumentSample struct {
	Name         string
	Length       int
	LoopStart    int
	LoopLength   int
	Volume       int
	Finetune     int
	TypeFlags    uint8
	Panning      uint8
	RelativeNote int
	Data         []uint8
}

type SampleLoopType int

const (
	SampleLoopNone SampleLoopType = iota
	SampleLoopForward
	SampleLoopPingPong
	SampleLoopUnknown
)

func (s *InstrumentSample) LoopType() SampleLoopType {
	return SampleLoopType(s.TypeFlags & 0b11)
}

func (s *InstrumentSample) Is16bits() bool {
	return s.TypeFlags&(1<<4) != 0
}

type EnvelopeFlags uint8

func (f EnvelopeFlags) IsOn() bool {
	return f&(1<<0) != 0
}

func (f EnvelopeFlags) SustainEnabled() bool {
	return f&(1<<1) != 0
}

func (f EnvelopeFlags) LoopEnabled() bool {
	return f&(1<<2) != 0
}

// ParserConfig adjusts parsing behavior; its zero value is ready to use.
type ParserConfig struct {
	// SkipStrings drops module, instrument and sample names instead of
	// allocating them.
	SkipStrings bool
}

// Parse reads and decodes an XM module.
//
// A non-nil error is usually a *ParseError.
func Parse(r io.Reader) (*Module, error) {
	return ParseConfig(r, ParserConfig{})
}

// ParseConfig is Parse with explicit parser options.
func ParseConfig(r io.Reader, config ParserConfig) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	p := &parser{data: data, config: config}
	return p.parse()
}
