package xm

const (
	numNotes           = 96
	keyOffNote         = 128 // Loader-normalized key off (97 in the file format)
	maxVolume          = 64
	maxPanning         = 256
	maxEnvelopeValue   = 64
	maxEnvelopePoints  = 12
	maxFadeoutVolume   = 32768
	minBPM             = 32
	maxBPM             = 255
	patternOrderLength = 256
	maxRowsPerPattern  = 256

	// MilkyTracker clamps slides here; going lower makes the Amiga
	// frequency conversion blow up anyway.
	minPeriod = 50

	// Final amplification factor for the mixed frames.
	// A compromise between too quiet output and clipping.
	amplification = 0.25

	// How much a channel's final volume may change per generated frame.
	// Anything faster is audible as a click.
	volumeRamp = 1.0 / 128.0

	// How many frames of the previous note's tail are blended in after
	// an abrupt sample switch.
	rampingPoints = 31

	// Tick durations are accounted in 1/tickSubsamples frame units.
	// Worst case rounding drift is 1 frame per tickSubsamples ticks.
	tickSubsamples = 1 << 13
)

// retrig volume modifiers for Rxy, indexed by x
var (
	multiRetrigAdd = [16]int8{0, -1, -2, -4, -8, -16, 0, 0, 0, 1, 2, 4, 8, 16, 0, 0}
	multiRetrigMul = [16]float64{1, 1, 1, 1, 1, 1, 2.0 / 3.0, 0.5, 1, 1, 1, 1, 1, 1, 1.5, 2}
)
