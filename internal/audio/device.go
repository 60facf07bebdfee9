package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoCtx      *oto.Context
	otoRate     int
	otoInitOnce sync.Once
	otoInitErr  error
)

func ensureOtoContext(sampleRate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		otoRate = sampleRate
		<-ready
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio context already running at %d Hz", otoRate)
	}
	return otoCtx, nil
}

// Device plays a stereo s16le stream pulled from a reader.
type Device struct {
	player *oto.Player
}

// OpenDevice starts playback of src on the default output device.
func OpenDevice(src io.Reader, sampleRate int) (*Device, error) {
	ctx, err := ensureOtoContext(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}
	player := ctx.NewPlayer(src)
	// ~64ms worth of frames keeps latency low without starving the callback
	player.SetBufferSize(sampleRate / 16 * bytesPerFrame)
	player.Play()
	return &Device{player: player}, nil
}

// Close stops playback.
func (d *Device) Close() error {
	if d == nil || d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	return err
}
