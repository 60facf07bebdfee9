// Package core defines the contract between the runner and an emulation core.
// The runner never looks inside a core: it loads images, advances ticks and
// reads peripheral state through the interfaces below.
package core

// Lynx display geometry in pixels.
const (
	ScreenWidth  = 160
	ScreenHeight = 102
)

// Joystick register bits.
const (
	JoyOutside uint8 = 1 << 0 // A
	JoyInside  uint8 = 1 << 1 // B
	JoyOption2 uint8 = 1 << 2
	JoyOption1 uint8 = 1 << 3
	JoyRight   uint8 = 1 << 4
	JoyLeft    uint8 = 1 << 5
	JoyDown    uint8 = 1 << 6
	JoyUp      uint8 = 1 << 7
)

// Switches register bits.
const (
	SwitchPause uint8 = 1 << 0
)

// Rotation is the screen orientation requested by a cartridge.
type Rotation int

const (
	RotateNone Rotation = iota
	Rotate90
	Rotate270
)

func (r Rotation) String() string {
	switch r {
	case RotateNone:
		return "none"
	case Rotate90:
		return "90"
	case Rotate270:
		return "270"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the three defined orientations.
func (r Rotation) Valid() bool {
	return r == RotateNone || r == Rotate90 || r == Rotate270
}

// SerialPort is the part of a core that a serial cable talks to.
type SerialPort interface {
	// SetCablePresent tells the core whether a peer is attached.
	SetCablePresent(present bool)
	// SerialRx delivers one byte received from the peer.
	SerialRx(b uint8)
	// SerialTx returns the next byte the core wants to send, if any.
	SerialTx() (uint8, bool)
}

// Core is an emulation core driven one tick at a time.
// A Core is owned by exactly one goroutine and is not safe for concurrent use.
type Core interface {
	SerialPort

	// LoadROM replaces the built-in boot ROM.
	LoadROM(data []byte) error
	// LoadCartridge inserts a cartridge image. It is mandatory before ticking.
	LoadCartridge(data []byte) error

	// Tick advances the emulated clock by one cycle.
	Tick()

	SetJoystick(bits uint8)
	SetSwitches(bits uint8)

	// AudioSample returns the current stereo output level.
	AudioSample() (left, right int16)

	// RedrawRequested reports whether a frame was completed since the last
	// call. Reading the flag clears it.
	RedrawRequested() bool
	// DisplayRefreshRate is the current refresh rate in Hz.
	DisplayRefreshRate() float64
	// FramePixels returns the last completed frame as RGB or RGBA bytes.
	// The slice may be reused by the core on the next frame.
	FramePixels() []byte

	// Rotation is the orientation requested by the loaded cartridge.
	Rotation() Rotation
}

// Factory creates a fresh core instance.
type Factory func() Core
