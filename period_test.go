package xm

import (
	"math"
	"testing"
)

func TestLinearPeriodC4(t *testing.T) {
	// C-4 is real note 48: period 4608, frequency 8363 Hz.
	if p := linearPeriod(48); p != 4608 {
		t.Errorf("linearPeriod(48)=%v, want 4608", p)
	}
	if f := linearFrequency(4608); math.Abs(f-8363) > 1e-9 {
		t.Errorf("linearFrequency(4608)=%v, want 8363", f)
	}
	// One octave up halves the period in Amiga terms and doubles the
	// frequency in both models.
	if f := linearFrequency(linearPeriod(60)); math.Abs(f-2*8363) > 1e-6 {
		t.Errorf("linearFrequency one octave above C-4 = %v, want %v", f, 2*8363)
	}
}

func TestAmigaPeriodBaseTable(t *testing.T) {
	tests := []struct {
		note float64
		want float64
	}{
		{24, 1712}, // octave 2 starts the base table
		{25, 1616},
		{35, 907},
		{36, 856},      // next octave halves
		{48, 428},      // C-4
		{12, 2 * 1712}, // octave below doubles
	}
	for _, tt := range tests {
		if got := amigaPeriod(tt.note); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("amigaPeriod(%v)=%v, want %v", tt.note, got, tt.want)
		}
	}
}

func TestPeriodMonotonic(t *testing.T) {
	// Higher notes always produce lower periods, with no plateaus, for
	// both frequency models.
	for note := 1.0; note < 96; note += 0.25 {
		if a, b := linearPeriod(note), linearPeriod(note+0.25); b >= a {
			t.Fatalf("linearPeriod not decreasing at note %v: %v -> %v", note, a, b)
		}
		if a, b := amigaPeriod(note), amigaPeriod(note+0.25); b >= a {
			t.Fatalf("amigaPeriod not decreasing at note %v: %v -> %v", note, a, b)
		}
	}
}

func TestAmigaNoteOfPeriodRoundTrip(t *testing.T) {
	for note := 12.0; note <= 96; note += 0.5 {
		p := amigaPeriod(note)
		back := amigaNoteOfPeriod(p)
		if math.Abs(back-note) > 0.01 {
			t.Errorf("round trip of note %v: period %v -> note %v", note, p, back)
		}
	}
}

func TestAmigaFrequency(t *testing.T) {
	// PAL clock: period 428 (C-4 area) plays around 8287 Hz.
	f := amigaFrequency(428)
	if math.Abs(f-8287.1369) > 0.01 {
		t.Errorf("amigaFrequency(428)=%v, want ~8287.14", f)
	}
}

func TestRealNote(t *testing.T) {
	if n := realNote(noteC4, 0, 0); n != 48 {
		t.Errorf("realNote(C-4)=%v, want 48", n)
	}
	if n := realNote(noteC4, 12, 0); n != 60 {
		t.Errorf("realNote(C-4, +12)=%v, want 60", n)
	}
	// Finetune is in 1/128 semitone units.
	if n := realNote(noteC4, 0, 64); n != 48.5 {
		t.Errorf("realNote(C-4, finetune 64)=%v, want 48.5", n)
	}
	if n := realNote(noteC4, 0, -128); n != 47 {
		t.Errorf("realNote(C-4, finetune -128)=%v, want 47", n)
	}
}
