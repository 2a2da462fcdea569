package xm

// sampleEnded marks a channel whose non-looping sample ran out.
const sampleEnded = ^uint32(0)

// channelContext is the mutable playback cursor of one voice. It is
// reset field-by-field on note triggers and mutated every tick by the
// effect processor; the mixer only reads it.
type channelContext struct {
	instrument int // index into Module.Instruments, -1 when none
	sample     int // index into Module.Samples, -1 when none
	slot       *PatternSlot

	note           float64 // real note of the last trigger, in semitones
	samplePosition uint32  // in microsteps, relative to the sample start
	step           uint32  // in microsteps per frame
	reverse        bool    // ping-pong playing backwards

	actualVolume        [2]float32
	targetVolume        [2]float32
	frameCount          uint32
	endOfPreviousSample [rampingPoints]float32

	period                     uint16 // 1/64 semitone units (linear model)
	tonePortamentoTargetPeriod uint16

	fadeoutVolume             uint16 // 0..=maxFadeoutVolume
	autovibratoTicks          uint16
	volumeEnvelopeFrameCount  uint16
	panningEnvelopeFrameCount uint16
	volumeEnvelopeValue       uint8 // 0..=maxEnvelopeValue
	panningEnvelopeValue      uint8

	volume       uint8 // 0..=maxVolume
	volumeOffset int8  // tremolo/tremor contribution, reset by triggers and volume commands
	panning      uint16
	finetune     int8 // 1/128 semitone units

	autovibratoNoteOffset int16 // 1/64 semitone
	arpNoteOffset         uint8 // semitones
	vibratoOffset         int16 // 1/64 semitone

	// Effect memory. A command with a zero parameter reuses the value
	// stored by the last nonzero one.
	volumeSlideParam             uint8
	fineVolumeSlideUpParam       uint8
	fineVolumeSlideDownParam     uint8
	globalVolumeSlideParam       uint8
	panningSlideParam            uint8
	portamentoUpParam            uint8
	portamentoDownParam          uint8
	finePortamentoUpParam        uint8
	finePortamentoDownParam      uint8
	extraFinePortamentoUpParam   uint8
	extraFinePortamentoDownParam uint8
	tonePortamentoParam          uint8
	multiRetrigParam             uint8
	noteDelayParam               uint8
	patternLoopOrigin            uint8
	patternLoopCount             uint8
	sampleOffsetParam            uint8

	tremoloParam        uint8
	tremoloControlParam uint8
	tremoloTicks        uint8

	vibratoParam        uint8
	vibratoControlParam uint8
	vibratoTicks        uint8

	tremorParam uint8
	tremorTicks uint8
	tremorOn    bool

	sustained bool
	muted     bool

	latestTrigger uint32 // in generated frames, when timing is enabled
}

func (ch *channelContext) reset() {
	*ch = channelContext{instrument: -1, sample: -1}
}

// active reports whether the mixer should read this channel at all.
func (ch *channelContext) active() bool {
	return ch.sample >= 0 && ch.samplePosition != sampleEnded
}
