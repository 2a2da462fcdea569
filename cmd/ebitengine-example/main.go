package main

// This example plays an XM track through the Ebitengine audio player.
// SPACE pauses and resumes; the current position is drawn on screen.

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/soniqlab/xm"
)

const sampleRate = 44100

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: go run ./cmd/ebitengine-example path/to/music.xm")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	filename := flag.Arg(0)

	f, err := os.Open(filename)
	if err != nil {
		panic(err)
	}
	config := xm.Config{Rate: sampleRate}
	mod, err := xm.Load(f, config)
	f.Close()
	if err != nil {
		panic(fmt.Errorf("load XM file: %w", err))
	}

	ctx, err := xm.NewContext(mod, config)
	if err != nil {
		panic(err)
	}
	stream := xm.NewStream(ctx)
	stream.SetLooping(true)

	// You can have multiple players, but only one audio context.
	// See Ebitengine docs to learn more.
	audioContext := audio.NewContext(sampleRate)
	player, err := audioContext.NewPlayer(stream)
	if err != nil {
		panic(err)
	}

	g := &game{
		ctx:      ctx,
		player:   player,
		filename: filename,
		paused:   true,
	}
	if err := ebiten.RunGame(g); err != nil {
		panic(err)
	}
}

type game struct {
	ctx    *xm.Context
	player *audio.Player

	filename string
	paused   bool
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
		if g.player.IsPlaying() {
			g.player.Pause()
		} else {
			g.player.Play()
		}
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.paused {
		ebitenutil.DebugPrint(screen, "Paused... press SPACE")
		return
	}
	tableIndex, pattern, row, _ := g.ctx.Position()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("Playing %s...\npos=%02d pattern=%02d row=%02d",
		g.filename, tableIndex, pattern, row))
}

func (g *game) Layout(_, _ int) (int, int) {
	return 640, 480
}
