package xm

import (
	"errors"
	"fmt"
)

// SampleFormat selects the numeric representation of the PCM frames
// produced by Stream and GenerateBuffer.
type SampleFormat uint8

const (
	// FormatInt16 is 16-bit signed little endian PCM.
	// This is what most audio player packages expect.
	FormatInt16 SampleFormat = iota

	// FormatInt8 is 8-bit signed PCM.
	FormatInt8

	// FormatFloat32 is 32-bit little endian IEEE float PCM.
	FormatFloat32
)

// BytesPerSample reports the encoded size of a single mono sample.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatInt8:
		return 1
	case FormatInt16:
		return 2
	default:
		return 4
	}
}

// FrequencyModels is a bitmask of the pitch models a Context supports.
// Creating a Context for a module whose model is not in the mask fails.
type FrequencyModels uint8

const (
	ModelLinear FrequencyModels = 1 << iota
	ModelAmiga
)

// Config gathers the options that the original engine resolved at build
// time. It is resolved exactly once, when a Context is created; a zero
// value gets the defaults filled in by applyDefaults.
type Config struct {
	// Rate is the output sample rate.
	// A zero value assumes 48000.
	Rate uint

	// SampleFormat is the representation of generated PCM frames.
	// The zero value is FormatInt16.
	SampleFormat SampleFormat

	// FrequencyModels restricts the supported pitch models.
	// A zero value enables both linear and Amiga frequencies.
	FrequencyModels FrequencyModels

	// MicrostepBits is the sub-frame resolution of sample positions, in
	// bits. Valid range is 8..16; a zero value means 12. More bits mean
	// finer pitch but shorter maximum sample length (2^(32-bits) frames).
	MicrostepBits uint8

	// NoRamping disables the anti-click volume ramping.
	NoRamping bool

	// LinearInterpolation enables sub-sample interpolation when
	// resampling waveforms. Nearest-neighbour is used otherwise.
	LinearInterpolation bool

	// Timing maintains per-channel/instrument/sample trigger timestamps,
	// queryable via the LatestTriggerOf* methods.
	Timing bool

	// NoStrings makes the loader drop module/instrument/sample names.
	NoStrings bool

	// DeltaSamples makes LoadModule keep the waveform arena as
	// delta-coded 16-bit integers; each Context decodes its own float
	// arena at creation. Cannot be combined with FormatFloat32.
	DeltaSamples bool
}

func (c *Config) applyDefaults() {
	if c.Rate == 0 {
		c.Rate = 48000
	}
	if c.FrequencyModels == 0 {
		c.FrequencyModels = ModelLinear | ModelAmiga
	}
	if c.MicrostepBits == 0 {
		c.MicrostepBits = 12
	}
}

// validate is called after applyDefaults, before any Context exists.
func (c *Config) validate() error {
	if c.SampleFormat > FormatFloat32 {
		return fmt.Errorf("unknown sample format (%d)", c.SampleFormat)
	}
	if c.FrequencyModels&^(ModelLinear|ModelAmiga) != 0 {
		return errors.New("unknown frequency model bits")
	}
	if c.MicrostepBits < 8 || c.MicrostepBits > 16 {
		return fmt.Errorf("microstep bits out of range: %d (want 8..16)", c.MicrostepBits)
	}
	if c.DeltaSamples && c.SampleFormat == FormatFloat32 {
		return errors.New("delta-coded samples cannot be combined with float32 output")
	}
	return nil
}
