package runner

import (
	"errors"
	"fmt"
	"time"
)

// PacingMode selects how the worker paces emulation against wall time.
type PacingMode int

const (
	// PaceTickGroup spins until each group of TickGroup ticks is due.
	// Lowest audio latency; burns one CPU core.
	PaceTickGroup PacingMode = iota
	// PaceFrame runs ticks flat out until the core completes a frame, then
	// waits out the rest of the frame time derived from the refresh rate.
	PaceFrame
)

func (m PacingMode) String() string {
	switch m {
	case PaceTickGroup:
		return "tick"
	case PaceFrame:
		return "frame"
	default:
		return fmt.Sprintf("PacingMode(%d)", int(m))
	}
}

// ParsePacingMode accepts "tick" or "frame".
func ParsePacingMode(s string) (PacingMode, error) {
	switch s {
	case "tick", "":
		return PaceTickGroup, nil
	case "frame":
		return PaceFrame, nil
	}
	return 0, fmt.Errorf("unknown pacing mode %q: use tick or frame", s)
}

// Defaults used by Config.Defaults.
const (
	DefaultCrystalFrequency = 16_000_000
	DefaultSampleRate       = 16_000
	DefaultTickGroup        = 8
	DefaultInputBuffer      = 64
	DefaultSerialBufferSize = 128
)

// ErrNoCartridge is returned when no cartridge path is configured.
var ErrNoCartridge = errors.New("a cartridge is required")

// Config is copied into the worker at spawn and never changed afterwards.
type Config struct {
	ROMPath       string // optional boot ROM override
	CartridgePath string // required
	Mute          bool
	LinearFilter  bool

	SerialEnabled    bool
	SerialAddr       string // listen address, e.g. ":5555"
	SerialBufferSize int    // max bytes handed to the core per iteration

	Pacing           PacingMode
	CrystalFrequency uint32 // Hz
	SampleRate       uint32 // Hz
	TickGroup        uint32 // ticks per pacing checkpoint

	RingSeconds float64 // sample ring capacity in seconds of audio
	InputBuffer int     // input channel capacity

	RecordPath string // optional WAV capture of the played audio
}

// Defaults fills zero fields with reasonable values.
func (c *Config) Defaults() {
	if c.CrystalFrequency == 0 {
		c.CrystalFrequency = DefaultCrystalFrequency
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.TickGroup == 0 {
		c.TickGroup = DefaultTickGroup
	}
	if c.RingSeconds <= 0 {
		c.RingSeconds = 1
	}
	if c.InputBuffer <= 0 {
		c.InputBuffer = DefaultInputBuffer
	}
	if c.SerialBufferSize <= 0 {
		c.SerialBufferSize = DefaultSerialBufferSize
	}
}

// Validate reports configuration that cannot be run.
func (c Config) Validate() error {
	if c.CartridgePath == "" {
		return ErrNoCartridge
	}
	if c.CrystalFrequency == 0 || c.SampleRate == 0 || c.TickGroup == 0 {
		return errors.New("crystal frequency, sample rate and tick group must be non-zero")
	}
	if c.SampleRate > c.CrystalFrequency {
		return fmt.Errorf("sample rate %d Hz exceeds crystal frequency %d Hz", c.SampleRate, c.CrystalFrequency)
	}
	if c.Pacing != PaceTickGroup && c.Pacing != PaceFrame {
		return fmt.Errorf("invalid pacing mode %d", int(c.Pacing))
	}
	if c.SerialEnabled && c.SerialAddr == "" {
		return errors.New("serial bridge enabled without a listen address")
	}
	return nil
}

// TickInterval is the wall time one tick group represents.
func (c Config) TickInterval() time.Duration {
	return time.Duration(uint64(c.TickGroup) * uint64(time.Second) / uint64(c.CrystalFrequency))
}

// SampleTicks is the number of core ticks per emitted audio frame.
func (c Config) SampleTicks() uint32 {
	return c.CrystalFrequency / c.SampleRate
}

// RingCapacity is the sample ring size in stereo frames.
func (c Config) RingCapacity() int {
	return int(float64(c.SampleRate) * c.RingSeconds)
}

// maxTicksPerFrame bounds frame pacing when a core never completes a frame,
// so shutdown is still noticed at 10 Hz.
func (c Config) maxTicksPerFrame() uint64 {
	return uint64(c.CrystalFrequency) / 10
}
