package xm

import (
	"testing"

	"github.com/soniqlab/xm/xmfile"
)

func testFileModule() *xmfile.Module {
	return &xmfile.Module{
		Name:            "test song",
		TrackerName:     "FastTracker v2.00",
		SongLength:      1,
		NumChannels:     2,
		NumPatterns:     1,
		NumInstruments:  1,
		Flags:           1, // linear frequencies
		DefaultTempo:    6,
		DefaultBPM:      125,
		PatternOrder:    []uint8{0},
		Patterns: []xmfile.Pattern{
			{Rows: []xmfile.PatternRow{
				{Notes: []xmfile.PatternNote{
					{Note: noteC4, Instrument: 1},
					{Note: 97}, // key off
				}},
				{Notes: []xmfile.PatternNote{
					{Note: 120}, // out of range
					{},
				}},
			}},
		},
		Instruments: []xmfile.Instrument{
			{
				Name:              "lead",
				KeymapAssignments: make([]byte, 96),
				VolumeFadeout:     1024,
				Samples: []xmfile.InstrumentSample{
					{
						Name:       "wave",
						Length:     8,
						LoopStart:  2,
						LoopLength: 4,
						Volume:     64,
						Panning:    128,
						TypeFlags:  1, // forward loop
						Data:       []byte{10, 10, 10, 10, 10, 10, 10, 10},
					},
				},
			},
		},
	}
}

func TestLoadModuleBasics(t *testing.T) {
	mod, err := LoadModule(testFileModule(), Config{})
	if err != nil {
		t.Fatal(err)
	}

	if mod.Name != "test song" || mod.TrackerName != "FastTracker v2.00" {
		t.Errorf("names = %q/%q", mod.Name, mod.TrackerName)
	}
	if mod.FrequencyType != LinearFrequencies {
		t.Error("frequency type not linear")
	}
	if mod.NumChannels != 2 || mod.Length != 1 || mod.NumRows != 2 {
		t.Errorf("shape = %d channels, %d orders, %d rows", mod.NumChannels, mod.Length, mod.NumRows)
	}

	slots := mod.rowSlots(&mod.Patterns[0], 0)
	if slots[0].Note != noteC4 || slots[0].Instrument != 1 {
		t.Errorf("slot 0 = %+v", slots[0])
	}
	if slots[1].Note != keyOffNote {
		t.Errorf("note 97 not normalized to key off: %d", slots[1].Note)
	}
	slots = mod.rowSlots(&mod.Patterns[0], 1)
	if slots[0].Note != 0 {
		t.Errorf("out-of-range note kept: %d", slots[0].Note)
	}

	if len(mod.Instruments) != 1 || len(mod.Samples) != 1 {
		t.Fatalf("instruments/samples = %d/%d", len(mod.Instruments), len(mod.Samples))
	}
	inst := &mod.Instruments[0]
	if inst.VolumeFadeout != 1024 || inst.NumSamples != 1 || inst.SamplesIndex != 0 {
		t.Errorf("instrument = %+v", inst)
	}
	// Envelope flags were off, so both envelopes stay disabled.
	if inst.VolumeEnvelope.enabled() || inst.PanningEnvelope.enabled() {
		t.Error("disabled envelope imported as enabled")
	}
}

func TestLoadSampleTruncatesAfterLoop(t *testing.T) {
	f := testFileModule()
	mod, err := LoadModule(f, Config{})
	if err != nil {
		t.Fatal(err)
	}
	smp := &mod.Samples[0]
	// Frames past loop start 2 + loop length 4 are unreachable.
	if smp.Length != 6 || smp.LoopLength != 4 {
		t.Errorf("sample window = %d/%d, want 6/4", smp.Length, smp.LoopLength)
	}
	if smp.loopStart() != 2 {
		t.Errorf("loop start = %d, want 2", smp.loopStart())
	}
	if len(mod.SamplesData) != 6 {
		t.Errorf("arena holds %d frames, want 6", len(mod.SamplesData))
	}
}

func TestLoadSampleDecodesDeltas(t *testing.T) {
	f := testFileModule()
	mod, err := LoadModule(f, Config{})
	if err != nil {
		t.Fatal(err)
	}
	// Deltas of 10 accumulate: 10, 20, 30, ... over the 8-bit range.
	for i, v := range mod.SamplesData {
		want := float32(10*(i+1)) / 128
		if v != want {
			t.Fatalf("frame %d = %v, want %v", i, v, want)
		}
	}
}

func TestLoad16BitSample(t *testing.T) {
	f := testFileModule()
	smp := &f.Instruments[0].Samples[0]
	smp.TypeFlags |= 1 << 4 // 16-bit
	smp.Length = 8          // in bytes: 4 frames
	smp.LoopStart = 0
	smp.LoopLength = 8
	// Deltas of 0x0100 accumulate 256, 512, 768, 1024.
	smp.Data = []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x01, 0x00, 0x01}

	mod, err := LoadModule(f, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if mod.Samples[0].Length != 4 {
		t.Fatalf("16-bit length = %d frames, want 4", mod.Samples[0].Length)
	}
	for i, v := range mod.SamplesData {
		want := float32(256*(i+1)) / 32768
		if v != want {
			t.Fatalf("frame %d = %v, want %v", i, v, want)
		}
	}
}

func TestLoadDeltaSamplesKeepsArenaCoded(t *testing.T) {
	mod, err := LoadModule(testFileModule(), Config{DeltaSamples: true})
	if err != nil {
		t.Fatal(err)
	}
	if mod.SamplesData != nil {
		t.Error("float arena allocated despite DeltaSamples")
	}
	if len(mod.DeltaData) != 6 {
		t.Fatalf("delta arena holds %d frames, want 6", len(mod.DeltaData))
	}
	for i, d := range mod.DeltaData {
		if d != 10<<8 {
			t.Fatalf("delta %d = %d, want %d", i, d, 10<<8)
		}
	}
}

func TestLoadNoStrings(t *testing.T) {
	mod, err := LoadModule(testFileModule(), Config{NoStrings: true})
	if err != nil {
		t.Fatal(err)
	}
	if mod.Name != "" || mod.Instruments[0].Name != "" || mod.Samples[0].Name != "" {
		t.Error("strings kept despite NoStrings")
	}
}

func TestLoadInvalidOrderEntryPlaysEmpty(t *testing.T) {
	f := testFileModule()
	f.SongLength = 2
	f.PatternOrder = []uint8{0, 9} // entry 9 does not exist

	mod, err := LoadModule(f, Config{})
	if err != nil {
		t.Fatal(err)
	}
	pat := mod.pattern(1)
	if pat.NumRows != 1 {
		t.Fatalf("placeholder pattern has %d rows", pat.NumRows)
	}
	for _, s := range mod.rowSlots(pat, 0) {
		if s != (PatternSlot{}) {
			t.Fatalf("placeholder pattern not empty: %+v", s)
		}
	}
}

func TestLoadRejectsBadShapes(t *testing.T) {
	f := testFileModule()
	f.NumChannels = 0
	if _, err := LoadModule(f, Config{}); err == nil {
		t.Error("zero channels accepted")
	}

	f = testFileModule()
	f.SongLength = 0
	if _, err := LoadModule(f, Config{}); err == nil {
		t.Error("zero song length accepted")
	}

	f = testFileModule()
	f.Patterns[0].Rows[0].Notes = f.Patterns[0].Rows[0].Notes[:1]
	if _, err := LoadModule(f, Config{}); err == nil {
		t.Error("row narrower than the channel count accepted")
	}
}

func TestLoadedModulePlays(t *testing.T) {
	mod, err := LoadModule(testFileModule(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := mustContext(mod, Config{})
	out := make([]float32, 2*256)
	if n := ctx.GenerateSamples(out); n != 256 {
		t.Fatalf("generated %d frames, want 256", n)
	}
	nonzero := false
	for _, v := range out {
		if v != 0 {
			nonzero = true
			break
		}
	}
	if !nonzero {
		t.Error("loaded module produced silence")
	}
}
