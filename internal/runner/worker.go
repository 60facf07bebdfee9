package runner

import (
	"fmt"
	"log"
	"runtime"
	"sync/atomic"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/audio"
	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/loader"
)

type state int

const (
	stateUninitialized state = iota
	stateLoaded
	stateRunning
	stateStopped
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateLoaded:
		return "loaded"
	case stateRunning:
		return "running"
	case stateStopped:
		return "stopped"
	}
	return "invalid"
}

// Relayer is an optional serial cable driven once per pacing iteration.
type Relayer interface {
	Relay(port core.SerialPort)
}

// Stats counts work done and backpressure absorbed by the worker.
type Stats struct {
	Ticks          uint64
	Frames         uint64 // frames completed by the core
	FramesDropped  uint64 // completed frames the renderer was not ready for
	Samples        uint64 // frames pushed into the sample ring
	SamplesDropped uint64 // frames lost to a full ring
	Underruns      uint64 // device reads padded with silence
}

type counters struct {
	ticks, frames, framesDropped, samples, samplesDropped atomic.Uint64
}

// worker owns the core. Every method except stats access runs on the
// worker goroutine.
type worker struct {
	cfg   Config
	core  core.Core
	state state
	clk   clock

	input  <-chan Input
	done   <-chan struct{} // closed on shutdown
	frames chan<- []byte
	ring   *audio.Ring // nil when muted
	link   Relayer     // nil when the serial bridge is disabled

	sampleTicks uint32
	sampleTick  uint32

	counters *counters
}

func newWorker(cfg Config, c core.Core, clk clock, input <-chan Input, done <-chan struct{}, frames chan<- []byte, ring *audio.Ring, link Relayer) *worker {
	return &worker{
		cfg:         cfg,
		core:        c,
		clk:         clk,
		input:       input,
		done:        done,
		frames:      frames,
		ring:        ring,
		link:        link,
		sampleTicks: cfg.SampleTicks(),
		counters:    &counters{},
	}
}

// initialize loads the images into the core and returns the cartridge
// rotation. Any failure here is fatal for the runner.
func (w *worker) initialize() (core.Rotation, error) {
	if w.state != stateUninitialized {
		return core.RotateNone, fmt.Errorf("initialize in state %s", w.state)
	}

	if w.cfg.ROMPath != "" {
		data, name, err := loader.Load(w.cfg.ROMPath, loader.ROMExtensions)
		if err != nil {
			return core.RotateNone, fmt.Errorf("load ROM: %w", err)
		}
		if err := w.core.LoadROM(data); err != nil {
			return core.RotateNone, fmt.Errorf("load ROM %s: %w", name, err)
		}
		log.Printf("ROM loaded: %s (%d bytes)", name, len(data))
	}

	if w.cfg.CartridgePath == "" {
		return core.RotateNone, ErrNoCartridge
	}
	data, name, err := loader.Load(w.cfg.CartridgePath, loader.CartridgeExtensions)
	if err != nil {
		return core.RotateNone, fmt.Errorf("load cartridge: %w", err)
	}
	if err := w.core.LoadCartridge(data); err != nil {
		return core.RotateNone, fmt.Errorf("load cartridge %s: %w", name, err)
	}
	log.Printf("cartridge loaded: %s (%d bytes)", name, len(data))

	rot := w.core.Rotation()
	if !rot.Valid() {
		return core.RotateNone, fmt.Errorf("core reported invalid rotation %d", int(rot))
	}
	if w.link != nil {
		w.core.SetCablePresent(false)
	}
	w.state = stateLoaded
	return rot, nil
}

// run paces the core until shutdown is signalled.
func (w *worker) run() {
	if w.state != stateLoaded {
		return
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	w.state = stateRunning
	switch w.cfg.Pacing {
	case PaceFrame:
		w.runFramePaced()
	default:
		w.runTickPaced()
	}
	w.state = stateStopped
}

func (w *worker) runTickPaced() {
	p := newTickPacer(w.clk, w.cfg.TickInterval())
	for {
		p.wait()
		if !w.step() {
			return
		}
	}
}

// step runs one tick group: input, TickGroup ticks with audio sampling,
// frame publication and serial relay. It returns false once shutdown is
// signalled.
func (w *worker) step() bool {
	if !w.applyInput() {
		return false
	}
	for i := uint32(0); i < w.cfg.TickGroup; i++ {
		w.core.Tick()
		w.sample()
	}
	w.counters.ticks.Add(uint64(w.cfg.TickGroup))
	if w.core.RedrawRequested() {
		w.publish()
	}
	w.relay()
	return true
}

func (w *worker) runFramePaced() {
	p := newFramePacer(w.clk)
	for {
		if !w.stepFrame(p) {
			return
		}
		p.wait()
	}
}

// stepFrame ticks until the core completes a frame (or the per-frame tick
// bound is hit), then publishes it and relays serial bytes.
func (w *worker) stepFrame(p *framePacer) bool {
	if !w.applyInput() {
		return false
	}
	limit := w.cfg.maxTicksPerFrame()
	var n uint64
	ready := w.core.RedrawRequested()
	for !ready && n < limit {
		w.core.Tick()
		w.sample()
		n++
		ready = w.core.RedrawRequested()
	}
	w.counters.ticks.Add(n)

	p.setRefreshRate(w.core.DisplayRefreshRate())
	if ready {
		w.publish()
	}
	w.relay()
	return true
}

// applyInput takes at most one pending snapshot. Shutdown is checked first
// so snapshots still queued at Close are never applied.
func (w *worker) applyInput() bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case in, ok := <-w.input:
		if !ok {
			return false
		}
		w.core.SetJoystick(in.Joystick)
		w.core.SetSwitches(in.Switches)
	default:
	}
	return true
}

// sample decimates the tick stream down to the output sample rate.
func (w *worker) sample() {
	if w.ring == nil {
		return
	}
	w.sampleTick++
	if w.sampleTick < w.sampleTicks {
		return
	}
	w.sampleTick = 0
	l, r := w.core.AudioSample()
	if w.ring.Push(l, r) {
		w.counters.samples.Add(1)
	} else {
		w.counters.samplesDropped.Add(1)
	}
}

// publish hands a copy of the completed frame to the renderer, or drops it
// when the renderer has not taken the previous one yet.
func (w *worker) publish() {
	w.counters.frames.Add(1)
	if len(w.frames) == cap(w.frames) {
		w.counters.framesDropped.Add(1)
		return
	}
	px := w.core.FramePixels()
	frame := make([]byte, len(px))
	copy(frame, px)
	select {
	case w.frames <- frame:
	default:
		w.counters.framesDropped.Add(1)
	}
}

func (w *worker) relay() {
	if w.link != nil {
		w.link.Relay(w.core)
	}
}

func (w *worker) stats() Stats {
	return Stats{
		Ticks:          w.counters.ticks.Load(),
		Frames:         w.counters.frames.Load(),
		FramesDropped:  w.counters.framesDropped.Load(),
		Samples:        w.counters.samples.Load(),
		SamplesDropped: w.counters.samplesDropped.Load(),
	}
}
