// Package runner drives an emulation core in real time on a dedicated
// goroutine and connects it to the presentation side through channels:
// input snapshots in, completed frames out, audio through a lock-free ring.
package runner

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/audio"
	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/serial"
)

// AudioOutput opens a playback device that pulls s16le stereo from src.
type AudioOutput func(src io.Reader, sampleRate int) (io.Closer, error)

// Runner owns the worker goroutine and everything attached to it.
type Runner struct {
	cfg      Config
	input    *InputSender
	frames   chan []byte
	rotation core.Rotation

	w      *worker
	ring   *audio.Ring
	sink   *audio.Sink
	rec    *audio.Recorder
	out    io.Closer
	bridge *serial.Bridge

	group      errgroup.Group
	workerDone chan struct{}

	closeOnce sync.Once
	closeErr  error
}

type initResult struct {
	rotation core.Rotation
	err      error
}

// Spawn starts a worker for a new core and blocks until the core has loaded
// its images and reported the screen rotation. A non-nil error means nothing
// is running. When cfg.Mute is false and openAudio is non-nil the sample
// stream is attached to the device it returns.
func Spawn(cfg Config, newCore core.Factory, openAudio AudioOutput) (*Runner, error) {
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:        cfg,
		input:      newInputSender(cfg.InputBuffer),
		frames:     make(chan []byte, 1),
		workerDone: make(chan struct{}),
	}

	if !cfg.Mute {
		r.ring = audio.NewRing(cfg.RingCapacity())
		r.sink = audio.NewSink(r.ring)
		if cfg.RecordPath != "" {
			rec, err := audio.CreateRecorder(cfg.RecordPath, int(cfg.SampleRate))
			if err != nil {
				return nil, err
			}
			r.rec = rec
			r.sink.Record(rec)
		}
	}

	var link Relayer
	if cfg.SerialEnabled {
		b, err := serial.Listen(cfg.SerialAddr, cfg.SerialBufferSize)
		if err != nil {
			r.closeRecorder()
			return nil, err
		}
		if cfg.Pacing == PaceFrame {
			log.Printf("serial bridge with frame pacing relays once per frame; use tick pacing for full link speed")
		}
		r.bridge = b
		link = b
	}

	r.w = newWorker(cfg, newCore(), systemClock{}, r.input.ch, r.input.done, r.frames, r.ring, link)

	ready := make(chan initResult, 1)
	r.group.Go(func() error {
		defer close(r.workerDone)
		rot, err := r.w.initialize()
		ready <- initResult{rotation: rot, err: err}
		if err != nil {
			return err
		}
		r.w.run()
		return nil
	})

	res := <-ready
	if res.err != nil {
		r.group.Wait()
		if r.bridge != nil {
			r.bridge.Close()
		}
		r.closeRecorder()
		return nil, res.err
	}
	r.rotation = res.rotation

	if r.bridge != nil {
		r.group.Go(r.bridge.Serve)
	}

	if r.sink != nil {
		r.startAudio(openAudio)
	}

	log.Printf("runner started: pacing=%s crystal=%dHz group=%d rotation=%s mute=%v",
		cfg.Pacing, cfg.CrystalFrequency, cfg.TickGroup, r.rotation, cfg.Mute)
	return r, nil
}

func (r *Runner) startAudio(openAudio AudioOutput) {
	if openAudio == nil {
		return
	}
	out, err := openAudio(r.sink, int(r.cfg.SampleRate))
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
		return
	}
	r.out = out
}

// Input is the edge-triggered input channel.
func (r *Runner) Input() *InputSender { return r.input }

// Frames delivers completed frames. At most one frame is ever buffered.
func (r *Runner) Frames() <-chan []byte { return r.frames }

// TryFrame returns a pending frame without blocking.
func (r *Runner) TryFrame() ([]byte, bool) {
	select {
	case f := <-r.frames:
		return f, true
	default:
		return nil, false
	}
}

// Rotation is the orientation reported by the cartridge at load time.
func (r *Runner) Rotation() core.Rotation { return r.rotation }

// Config returns the effective configuration, defaults included.
func (r *Runner) Config() Config { return r.cfg }

// SerialAddr is the bridge listen address, or nil when disabled.
func (r *Runner) SerialAddr() net.Addr {
	if r.bridge == nil {
		return nil
	}
	return r.bridge.Addr()
}

// Stats returns a snapshot of the worker counters.
func (r *Runner) Stats() Stats {
	s := r.w.stats()
	if r.sink != nil {
		s.Underruns = r.sink.Underruns()
	}
	return s
}

// Close stops the worker by disconnecting the input sender, waits for it and the
// serial listener to finish, then releases the audio device. It is safe to
// call more than once.
func (r *Runner) Close() error {
	r.closeOnce.Do(func() {
		r.input.Close()
		<-r.workerDone
		if r.bridge != nil {
			r.bridge.Close()
		}
		err := r.group.Wait()
		if r.out != nil {
			if cerr := r.out.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close audio: %w", cerr))
			}
		}
		err = errors.Join(err, r.closeRecorder())
		r.closeErr = err
	})
	return r.closeErr
}

func (r *Runner) closeRecorder() error {
	if r.rec == nil {
		return nil
	}
	err := r.rec.Close()
	r.rec = nil
	return err
}
