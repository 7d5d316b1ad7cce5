// Package speaker plays a synth stream on the system audio device
package speaker

import (
	"io"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"go-mpe/debug"
)

// latency is the audio buffer handed to the player
const latency = 20 * time.Millisecond

// Speaker owns the audio context and the player reading the stream
type Speaker struct {
	ctx    *audio.Context
	player *audio.Player
}

// Open starts playing stream, which must produce 16-bit little-endian
// stereo at sampleRate. Only one audio context may exist per process.
func Open(stream io.Reader, sampleRate int) (*Speaker, error) {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(sampleRate)
	} else if ctx.SampleRate() != sampleRate {
		return nil, fault.New("audio context already running at a different sample rate")
	}

	player, err := ctx.NewPlayer(stream)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("create audio player"))
	}
	player.SetBufferSize(latency)
	player.Play()
	debug.Log("audio", "playing at %d Hz", sampleRate)

	return &Speaker{ctx: ctx, player: player}, nil
}

// SetVolume sets the player volume, 0 to 1
func (s *Speaker) SetVolume(v float64) {
	s.player.SetVolume(v)
}

func (s *Speaker) Close() error {
	s.player.Pause()
	return s.player.Close()
}
