package main

// This CLI tool plays the specified XM track on the default audio
// device via oto.

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/soniqlab/xm"
)

func main() {
	rate := flag.Uint("rate", 48000, "output sample rate")
	interpolate := flag.Bool("interpolate", false, "resample with linear interpolation")
	loops := flag.Uint("loops", 1, "stop after the track looped this many times (0 plays forever)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: xmplay [flags] path/to/music.xm")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *rate, *interpolate, uint8(*loops)); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(filename string, rate uint, interpolate bool, loops uint8) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	mod, err := xm.Load(f, xm.Config{
		Rate:                rate,
		LinearInterpolation: interpolate,
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", filename, err)
	}

	ctx, err := xm.NewContext(mod, xm.Config{
		Rate:                rate,
		LinearInterpolation: interpolate,
	})
	if err != nil {
		return err
	}
	ctx.SetMaxLoopCount(loops)
	stream := xm.NewStream(ctx)
	if loops == 0 {
		stream.SetLooping(true)
	}

	audioCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(rate),
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("audio device: %w", err)
	}
	<-ready

	name := mod.Name
	if name == "" {
		name = filename
	}
	bpm, tempo := ctx.PlayingSpeed()
	fmt.Printf("playing %q (%d channels, bpm=%d tempo=%d)\n", name, ctx.NumChannels(), bpm, tempo)

	player := audioCtx.NewPlayer(stream)
	defer player.Close()
	player.Play()

	for player.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}
