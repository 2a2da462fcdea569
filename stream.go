package xm

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Stream wraps a Context, making it possible to Read() its PCM bytes.
//
// The sample representation follows the Config.SampleFormat of the
// context; the default 16-bit little endian PCM is what the ebiten/audio
// and oto packages expect. Use Stream as an io.Reader argument for
// audio.NewPlayer().
//
// A Stream is not safe for concurrent use, just like its Context.
type Stream struct {
	ctx *Context

	scratch []float32
	encoded []byte
	pending []byte

	volume  float64
	looping bool
}

// NewStream wraps ctx. The context keeps working on its own; reading
// from the stream advances it exactly like GenerateSamples does.
//
// Unless the context already has a loop bound, the stream sets one so
// that Read can report EOF when the song has played once.
func NewStream(ctx *Context) *Stream {
	if ctx.maxLoopCount == 0 {
		ctx.SetMaxLoopCount(1)
	}
	const chunkFrames = 512
	return &Stream{
		ctx:     ctx,
		scratch: make([]float32, 2*chunkFrames),
		encoded: make([]byte, 2*chunkFrames*ctx.cfg.SampleFormat.BytesPerSample()),
		volume:  1,
	}
}

// SetVolume adjusts an output volume scaling for this stream on top of
// the amplification the mixer already applies. The value is clamped
// into [0, 1]; the default is 1.
func (s *Stream) SetVolume(v float64) {
	s.volume = clamp(v, 0, 1)
}

// SetLooping makes Read restart the song from the beginning instead of
// returning EOF.
//
// Note that many XM tracks end in a position jump that loops them in a
// more deliberate way; such tracks never reach EOF to begin with.
func (s *Stream) SetLooping(loop bool) {
	s.looping = loop
}

// Rewind restarts the stream (and its context) from the beginning.
func (s *Stream) Rewind() {
	s.ctx.Reset()
	s.pending = nil
}

// Seek partially implements io.Seeker.
//
// You can use it for two things:
//  1. (0, SeekStart) to rewind
//  2. (0, SeekCurrent) to get the byte pos inside the stream
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		if offset != 0 {
			return 0, errors.New("xm: only offset 0 is supported with SeekStart")
		}
		s.Rewind()
		return 0, nil
	case io.SeekCurrent:
		if offset != 0 {
			return 0, errors.New("xm: only offset 0 is supported with SeekCurrent")
		}
		frameBytes := int64(2 * s.ctx.cfg.SampleFormat.BytesPerSample())
		return int64(s.ctx.generatedFrames)*frameBytes - int64(len(s.pending)), nil
	default:
		return 0, errors.New("xm: unsupported whence value")
	}
}

// Read puts the next PCM bytes into b.
//
// It returns io.EOF after the song has looped up to the context's loop
// bound, unless SetLooping(true) was called.
func (s *Stream) Read(b []byte) (int, error) {
	n := 0
	for n < len(b) {
		if len(s.pending) == 0 {
			frames := s.ctx.GenerateSamples(s.scratch)
			if frames == 0 {
				if !s.looping {
					if n > 0 {
						return n, nil
					}
					return 0, io.EOF
				}
				s.ctx.Reset()
				continue
			}
			s.pending = s.encode(s.scratch[:2*frames])
		}
		copied := copy(b[n:], s.pending)
		n += copied
		s.pending = s.pending[copied:]
	}
	return n, nil
}

func (s *Stream) encode(samples []float32) []byte {
	out := s.encoded
	switch s.ctx.cfg.SampleFormat {
	case FormatInt8:
		for i, v := range samples {
			v64 := clamp(float64(v)*s.volume, -1, 1)
			out[i] = byte(int8(math.Round(v64 * 127)))
		}
		return out[:len(samples)]
	case FormatFloat32:
		for i, v := range samples {
			v64 := float64(v) * s.volume
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(v64)))
		}
		return out[:4*len(samples)]
	default:
		for i, v := range samples {
			v64 := clamp(float64(v)*s.volume, -1, 1)
			binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(math.Round(v64*32767))))
		}
		return out[:2*len(samples)]
	}
}
