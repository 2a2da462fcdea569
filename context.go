package xm

import (
	"errors"
	"fmt"
)

// Context is one playback head over an immutable Module. Several
// contexts may share a module; all mutable state, including the
// decoded waveform arena when the module stores deltas, lives here.
// A Context is not safe for concurrent use.
type Context struct {
	mod *Module
	cfg Config

	samplesData []float32
	channels    []channelContext

	// rowLoopCount counts row visits for loop detection, one counter per
	// order table entry row. Keyed by tableRowIndex, not by pattern, so
	// that a pattern repeated in the order table is counted per entry.
	rowLoopCount  []uint8
	tableRowIndex []uint32

	instrumentMuted         []bool
	latestTriggerInstrument []uint32
	latestTriggerSample     []uint32

	remainingSubsamples int64
	subsamplesPerTick   int64

	rate       int
	microsteps uint32
	ramping    bool

	randState uint32

	generatedFrames uint32

	currentTableIndex uint16
	currentRow        uint16
	currentTick       uint8
	extraRows         uint8
	extraRowsDone     uint8

	tempo uint8
	bpm   uint8

	globalVolume uint8

	positionJump bool
	patternBreak bool
	jumpDest     uint8
	jumpRow      uint8

	loopCount    uint8
	maxLoopCount uint8
}

// NewContext creates a playback context for mod. The zero Config is
// valid and selects the defaults documented on its fields.
func NewContext(mod *Module, config Config) (*Context, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	model := ModelLinear
	if mod.FrequencyType == AmigaFrequencies {
		model = ModelAmiga
	}
	if config.FrequencyModels&model == 0 {
		return nil, fmt.Errorf("xm: module needs a frequency model excluded by the config (%d)", model)
	}
	if mod.NumChannels == 0 || mod.Length == 0 {
		return nil, errors.New("xm: empty module")
	}

	tableRowIndex := make([]uint32, mod.Length)
	var totalOrderRows uint32
	for i := range tableRowIndex {
		tableRowIndex[i] = totalOrderRows
		totalOrderRows += uint32(mod.pattern(uint16(i)).NumRows)
	}

	c := &Context{
		mod:                     mod,
		cfg:                     config,
		samplesData:             mod.SamplesData,
		channels:                make([]channelContext, mod.NumChannels),
		rowLoopCount:            make([]uint8, totalOrderRows),
		tableRowIndex:           tableRowIndex,
		instrumentMuted:         make([]bool, len(mod.Instruments)),
		latestTriggerInstrument: make([]uint32, len(mod.Instruments)),
		latestTriggerSample:     make([]uint32, len(mod.Samples)),
		rate:                    int(config.Rate),
		microsteps:              uint32(1) << config.MicrostepBits,
		ramping:                 !config.NoRamping,
	}
	if mod.DeltaData != nil {
		c.samplesData = decodeDeltas(mod.DeltaData)
	}
	c.Reset()
	return c, nil
}

// decodeDeltas undoes the delta coding of a module loaded with
// Config.DeltaSamples, back into a normalized float32 arena.
func decodeDeltas(deltas []int16) []float32 {
	out := make([]float32, len(deltas))
	var acc int16
	for i, d := range deltas {
		acc += d
		out[i] = float32(acc) / 32768
	}
	return out
}

// Reset rewinds the context to the start of the song. The loop bound
// set with SetMaxLoopCount and the mute flags are kept.
func (c *Context) Reset() {
	for i := range c.channels {
		c.channels[i].reset()
	}
	for i := range c.rowLoopCount {
		c.rowLoopCount[i] = 0
	}
	for i := range c.latestTriggerInstrument {
		c.latestTriggerInstrument[i] = 0
	}
	for i := range c.latestTriggerSample {
		c.latestTriggerSample[i] = 0
	}

	c.remainingSubsamples = 0
	c.randState = 0x12345678
	c.generatedFrames = 0
	c.currentTableIndex = 0
	c.currentRow = 0
	c.currentTick = 0
	c.extraRows = 0
	c.extraRowsDone = 0
	c.globalVolume = maxVolume
	c.positionJump = false
	c.patternBreak = false
	c.jumpDest = 0
	c.jumpRow = 0
	c.loopCount = 0

	c.tempo = c.mod.DefaultTempo
	if c.tempo == 0 {
		c.tempo = 6
	}
	bpm := c.mod.DefaultBPM
	if bpm < minBPM {
		bpm = 125
	}
	c.setBPM(bpm)
}

// Module returns the module this context plays.
func (c *Context) Module() *Module { return c.mod }

// NumChannels returns the number of voices of the song.
func (c *Context) NumChannels() int { return len(c.channels) }

// SetMaxLoopCount bounds playback: GenerateSamples goes silent once the
// song has looped max times. Zero means loop forever.
func (c *Context) SetMaxLoopCount(max uint8) { c.maxLoopCount = max }

// LoopCount returns how many times the song has looped, that is, how
// often playback has re-entered a row it had already played outside of
// an E6x pattern loop.
func (c *Context) LoopCount() uint8 { return c.loopCount }

// MuteChannel silences channel index (0-based) and returns the previous
// state. A muted channel keeps playing, it just does not reach the mix.
func (c *Context) MuteChannel(index int, mute bool) bool {
	prev := c.channels[index].muted
	c.channels[index].muted = mute
	return prev
}

// ChannelMuted reports whether channel index is muted.
func (c *Context) ChannelMuted(index int) bool {
	return c.channels[index].muted
}

// MuteInstrument silences every channel currently or later playing
// instrument index (0-based) and returns the previous state.
func (c *Context) MuteInstrument(index int, mute bool) bool {
	prev := c.instrumentMuted[index]
	c.instrumentMuted[index] = mute
	return prev
}

// InstrumentMuted reports whether instrument index is muted.
func (c *Context) InstrumentMuted(index int) bool {
	return c.instrumentMuted[index]
}

// Position returns the playback position: the pattern order index, the
// pattern number it refers to, the current row, and the number of
// stereo frames generated so far.
func (c *Context) Position() (tableIndex, pattern, row int, frames uint32) {
	tableIndex = int(c.currentTableIndex)
	if tableIndex >= int(c.mod.Length) {
		tableIndex = int(c.mod.RestartPosition)
	}
	return tableIndex, int(c.mod.PatternTable[tableIndex]), int(c.currentRow), c.generatedFrames
}

// PlayingSpeed returns the current BPM and tempo (ticks per row).
func (c *Context) PlayingSpeed() (bpm, tempo uint8) {
	return c.bpm, c.tempo
}

// LatestTriggerOfChannel returns the frame count at which channel index
// last triggered a note. Only meaningful with Config.Timing.
func (c *Context) LatestTriggerOfChannel(index int) uint32 {
	return c.channels[index].latestTrigger
}

// LatestTriggerOfInstrument returns the frame count at which any
// channel last triggered instrument index (0-based).
func (c *Context) LatestTriggerOfInstrument(index int) uint32 {
	return c.latestTriggerInstrument[index]
}

// LatestTriggerOfSample returns the frame count at which any channel
// last triggered sample index (0-based, into Module.Samples).
func (c *Context) LatestTriggerOfSample(index int) uint32 {
	return c.latestTriggerSample[index]
}

// ActiveChannel reports whether channel index currently plays a sample.
func (c *Context) ActiveChannel(index int) bool {
	return c.channels[index].active()
}

func (c *Context) instrumentOf(ch *channelContext) *Instrument {
	if ch.instrument < 0 || ch.instrument >= len(c.mod.Instruments) {
		return nil
	}
	return &c.mod.Instruments[ch.instrument]
}

func (c *Context) sampleOf(ch *channelContext) *Sample {
	if ch.sample < 0 || ch.sample >= len(c.mod.Samples) {
		return nil
	}
	return &c.mod.Samples[ch.sample]
}
