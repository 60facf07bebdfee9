// Package emu is a small reference core. It has no CPU; it exists so the
// runner, audio path, serial bridge and presentation loop can be exercised
// end to end with real timing: a 160x102 RGB pattern derived from the
// cartridge data and scrolled by the joystick, a square-wave tone, and a
// serial port that echoes whatever arrives while the cable is plugged.
package emu

import (
	"errors"
	"fmt"
	"log"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/cart"
	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
)

// BootROMSize is the only accepted ROM override size.
const BootROMSize = 512

const maxEcho = 256

var (
	ErrEmptyCartridge = errors.New("cartridge image is empty")
	ErrBadROMSize     = errors.New("bad boot ROM size")
)

var palette [16][3]byte

func init() {
	for i := range palette {
		palette[i] = [3]byte{byte(i * 17), byte((i * 5 & 15) * 17), byte((15 - i) * 17)}
	}
}

type Machine struct {
	cfg  Config
	fb   []byte // RGB 160x102*3
	rom  []byte
	cart *cart.Cartridge

	frameTicks uint64
	frameTick  uint64
	frames     uint64
	redraw     bool

	joystick, switches uint8
	scrollX, scrollY   int

	toneHalf uint64 // ticks per half period
	toneTick uint64
	toneHigh bool

	cable bool
	echo  []byte
}

var _ core.Core = (*Machine)(nil)

func New(cfg Config) *Machine {
	cfg.Defaults()
	m := &Machine{
		cfg: cfg,
		fb:  make([]byte, core.ScreenWidth*core.ScreenHeight*3),
	}
	m.frameTicks = uint64(float64(cfg.CrystalFrequency) / cfg.RefreshRate)
	if m.frameTicks == 0 {
		m.frameTicks = 1
	}
	m.setTone(cfg.ToneFrequency)
	return m
}

// LoadROM installs a boot ROM override.
func (m *Machine) LoadROM(data []byte) error {
	if len(data) != BootROMSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBadROMSize, len(data), BootROMSize)
	}
	m.rom = append([]byte(nil), data...)
	return nil
}

// HasBootROM reports whether a ROM override was loaded.
func (m *Machine) HasBootROM() bool { return m.rom != nil }

func (m *Machine) LoadCartridge(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyCartridge
	}
	c, err := cart.New(data)
	if err != nil {
		return fmt.Errorf("parse cartridge: %w", err)
	}
	if c.Size() == 0 {
		return ErrEmptyCartridge
	}
	if h := c.Header; h != nil {
		log.Printf("LNX header: %q by %q, rotation %s, bank0 %d bytes", h.Name, h.Manufacturer, h.Rotation, h.Bank0Size)
	}
	m.cart = c
	m.reset()
	return nil
}

func (m *Machine) reset() {
	m.frameTick, m.frames = 0, 0
	m.redraw = false
	m.scrollX, m.scrollY = 0, 0
	m.toneTick, m.toneHigh = 0, false
	m.echo = m.echo[:0]
	m.render()
}

// Tick advances the machine by one crystal cycle.
func (m *Machine) Tick() {
	if !m.paused() && m.toneHalf > 0 {
		m.toneTick++
		if m.toneTick >= m.toneHalf {
			m.toneTick = 0
			m.toneHigh = !m.toneHigh
		}
	}
	m.frameTick++
	if m.frameTick >= m.frameTicks {
		m.frameTick = 0
		m.endFrame()
	}
}

func (m *Machine) endFrame() {
	if !m.paused() {
		if m.joystick&core.JoyRight != 0 {
			m.scrollX++
		}
		if m.joystick&core.JoyLeft != 0 {
			m.scrollX--
		}
		if m.joystick&core.JoyDown != 0 {
			m.scrollY++
		}
		if m.joystick&core.JoyUp != 0 {
			m.scrollY--
		}
		m.scrollX &= 0xFF
		m.scrollY &= 0xFF
	}
	m.render()
	m.frames++
	m.redraw = true
}

func (m *Machine) render() {
	if m.cart == nil {
		return
	}
	i := 0
	for y := 0; y < core.ScreenHeight; y++ {
		sy := (y + m.scrollY) & 0xFF
		for x := 0; x < core.ScreenWidth; x++ {
			sx := (x + m.scrollX) & 0xFF
			v := m.cart.Read(uint32(sy>>2)<<6 | uint32(sx>>2))
			ci := (v + byte(sx>>3+sy>>3)) & 0x0F
			c := palette[ci]
			m.fb[i], m.fb[i+1], m.fb[i+2] = c[0], c[1], c[2]
			i += 3
		}
	}
}

func (m *Machine) paused() bool { return m.switches&core.SwitchPause != 0 }

// SetJoystick latches the joystick byte. Holding Inside raises the tone
// an octave.
func (m *Machine) SetJoystick(bits uint8) {
	if (bits^m.joystick)&core.JoyInside != 0 {
		f := m.cfg.ToneFrequency
		if bits&core.JoyInside != 0 {
			f *= 2
		}
		m.setTone(f)
	}
	m.joystick = bits
}

func (m *Machine) SetSwitches(bits uint8) { m.switches = bits }

func (m *Machine) setTone(hz float64) {
	if hz <= 0 {
		m.toneHalf = 0
		return
	}
	m.toneHalf = uint64(float64(m.cfg.CrystalFrequency) / hz / 2)
	if m.toneTick >= m.toneHalf {
		m.toneTick = 0
	}
}

// AudioSample returns the current output level. Outside mutes the right
// channel so the stereo path can be told apart.
func (m *Machine) AudioSample() (int16, int16) {
	if m.paused() || m.toneHalf == 0 {
		return 0, 0
	}
	v := -m.cfg.Volume
	if m.toneHigh {
		v = m.cfg.Volume
	}
	if m.joystick&core.JoyOutside != 0 {
		return v, 0
	}
	return v, v
}

func (m *Machine) RedrawRequested() bool {
	r := m.redraw
	m.redraw = false
	return r
}

func (m *Machine) DisplayRefreshRate() float64 { return m.cfg.RefreshRate }

func (m *Machine) FramePixels() []byte { return m.fb }

// Frames is the number of frames completed since the cartridge was loaded.
func (m *Machine) Frames() uint64 { return m.frames }

func (m *Machine) Rotation() core.Rotation {
	if m.cart == nil {
		return core.RotateNone
	}
	return m.cart.Rotation()
}

func (m *Machine) SetCablePresent(present bool) {
	m.cable = present
	if !present {
		m.echo = m.echo[:0]
	}
}

// SerialRx queues b for echo while the cable is plugged.
func (m *Machine) SerialRx(b uint8) {
	if !m.cable || len(m.echo) >= maxEcho {
		return
	}
	m.echo = append(m.echo, b)
}

func (m *Machine) SerialTx() (uint8, bool) {
	if len(m.echo) == 0 {
		return 0, false
	}
	b := m.echo[0]
	m.echo = append(m.echo[:0], m.echo[1:]...)
	return b, true
}
