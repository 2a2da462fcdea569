package main

// This CLI tool renders an XM track into a 16-bit stereo WAV file.

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/soniqlab/xm"
)

func main() {
	rate := flag.Uint("rate", 48000, "output sample rate")
	interpolate := flag.Bool("interpolate", false, "resample with linear interpolation")
	loops := flag.Uint("loops", 1, "render the track looping this many times")
	out := flag.String("o", "out.wav", "output file name")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: xm2wav [flags] path/to/music.xm")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 || *loops == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *out, *rate, *interpolate, uint8(*loops)); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(filename, out string, rate uint, interpolate bool, loops uint8) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	config := xm.Config{
		Rate:                rate,
		LinearInterpolation: interpolate,
	}
	mod, err := xm.Load(f, config)
	if err != nil {
		return fmt.Errorf("load %s: %w", filename, err)
	}
	ctx, err := xm.NewContext(mod, config)
	if err != nil {
		return err
	}
	// The loop bound is what makes rendering terminate: without it a
	// track with a trailing jump would generate frames forever.
	ctx.SetMaxLoopCount(loops)

	w, err := os.Create(out)
	if err != nil {
		return err
	}
	defer w.Close()

	enc := wav.NewEncoder(w, int(rate), 16, 2, 1)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  int(rate),
		},
		SourceBitDepth: 16,
	}
	const chunkFrames = 4096
	samples := make([]float32, 2*chunkFrames)

	var total uint32
	for {
		frames := ctx.GenerateSamples(samples)
		if frames == 0 {
			break
		}
		buf.Data = buf.Data[:0]
		for _, v := range samples[:2*frames] {
			c := math.Round(float64(v) * 32767)
			buf.Data = append(buf.Data, int(clamp(c, -32768, 32767)))
		}
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		total += uint32(frames)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", out, err)
	}
	fmt.Printf("wrote %s: %d frames (%.1fs)\n", out, total, float64(total)/float64(rate))
	return nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
