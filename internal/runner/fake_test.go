package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
)

// fakeCore is a core.Core that records what the worker asks of it.
type fakeCore struct {
	mu sync.Mutex

	romErr, cartErr error
	loadGate        chan struct{} // LoadCartridge blocks until closed, if set
	rom, cart       []byte
	rotation        core.Rotation

	ticks      uint64
	frameEvery uint64 // complete a frame every N ticks; 0 = never
	redraw     bool
	refresh    float64
	pixels     []byte

	joystick, switches uint8
	joyAtTick          []uint8

	sampleCalls int
	nextSample  int16

	events []string
	tx     []byte
}

func newFakeCore() *fakeCore {
	return &fakeCore{refresh: 75, pixels: []byte{1, 2, 3, 4, 5, 6}}
}

func (c *fakeCore) LoadROM(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rom = data
	return c.romErr
}

func (c *fakeCore) LoadCartridge(data []byte) error {
	if c.loadGate != nil {
		<-c.loadGate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cart = data
	return c.cartErr
}

func (c *fakeCore) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	c.joyAtTick = append(c.joyAtTick, c.joystick)
	if c.frameEvery > 0 && c.ticks%c.frameEvery == 0 {
		c.redraw = true
		c.pixels[0] = byte(c.ticks / c.frameEvery)
	}
}

func (c *fakeCore) SetJoystick(bits uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joystick = bits
	c.events = append(c.events, fmt.Sprintf("joy=%d", bits))
}

func (c *fakeCore) SetSwitches(bits uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.switches = bits
	c.events = append(c.events, fmt.Sprintf("sw=%d", bits))
}

func (c *fakeCore) AudioSample() (int16, int16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sampleCalls++
	c.nextSample++
	return c.nextSample, -c.nextSample
}

func (c *fakeCore) RedrawRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.redraw
	c.redraw = false
	return r
}

func (c *fakeCore) DisplayRefreshRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh
}

func (c *fakeCore) FramePixels() []byte { return c.pixels }

func (c *fakeCore) Rotation() core.Rotation { return c.rotation }

func (c *fakeCore) SetCablePresent(present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, fmt.Sprintf("cable=%v", present))
}

func (c *fakeCore) SerialRx(b uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, fmt.Sprintf("rx=%c", b))
}

func (c *fakeCore) SerialTx() (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tx) == 0 {
		return 0, false
	}
	b := c.tx[0]
	c.tx = c.tx[1:]
	return b, true
}

func (c *fakeCore) tickCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// eventsMatching returns recorded events accepted by keep.
func (c *fakeCore) eventsMatching(keep func(string) bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

var errRejected = errors.New("rejected image")

// fakeClock advances by step on every Now call.
type fakeClock struct {
	now   time.Time
	step  time.Duration
	slept []time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

// recordingLink counts Relay calls.
type recordingLink struct{ calls int }

func (l *recordingLink) Relay(core.SerialPort) { l.calls++ }

func writeImage(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := Config{
		CartridgePath:    writeImage(t, "game.lnx", []byte("cartridge")),
		CrystalFrequency: 16_000_000,
		SampleRate:       16_000,
		TickGroup:        8,
	}
	cfg.Defaults()
	return cfg
}
