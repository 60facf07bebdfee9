package emu

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
)

// testConfig gives 100 ticks per frame and a 50-tick half period.
var testConfig = Config{CrystalFrequency: 7500, RefreshRate: 75, ToneFrequency: 75, Volume: 1000}

func lnxImage(rotation byte, size int) []byte {
	img := make([]byte, 64+size)
	copy(img, "LYNX")
	binary.LittleEndian.PutUint16(img[4:6], 256)
	copy(img[10:], "PATTERN")
	img[58] = rotation
	for i := 0; i < size; i++ {
		img[64+i] = byte(i * 7)
	}
	return img
}

func loaded(t *testing.T) *Machine {
	t.Helper()
	m := New(testConfig)
	if err := m.LoadCartridge(lnxImage(0, 4096)); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	return m
}

func tickN(m *Machine, n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

func TestNew_Defaults(t *testing.T) {
	m := New(Config{})
	if m.DisplayRefreshRate() != 75 {
		t.Fatalf("refresh got %v want 75", m.DisplayRefreshRate())
	}
	if m.frameTicks != 16_000_000/75 {
		t.Fatalf("frameTicks got %d", m.frameTicks)
	}
	if len(m.FramePixels()) != core.ScreenWidth*core.ScreenHeight*3 {
		t.Fatalf("framebuffer size got %d", len(m.FramePixels()))
	}
}

func TestLoadROM_Size(t *testing.T) {
	m := New(testConfig)
	if err := m.LoadROM(make([]byte, 100)); !errors.Is(err, ErrBadROMSize) {
		t.Fatalf("err = %v, want ErrBadROMSize", err)
	}
	if m.HasBootROM() {
		t.Fatalf("rejected ROM was kept")
	}
	if err := m.LoadROM(make([]byte, BootROMSize)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	if !m.HasBootROM() {
		t.Fatalf("HasBootROM = false after load")
	}
}

func TestLoadCartridge_Errors(t *testing.T) {
	m := New(testConfig)
	if err := m.LoadCartridge(nil); !errors.Is(err, ErrEmptyCartridge) {
		t.Fatalf("err = %v, want ErrEmptyCartridge", err)
	}
	if err := m.LoadCartridge(lnxImage(0, 0)); !errors.Is(err, ErrEmptyCartridge) {
		t.Fatalf("header without data: err = %v, want ErrEmptyCartridge", err)
	}
	if err := m.LoadCartridge([]byte("LYNX")); err == nil {
		t.Fatalf("truncated header accepted")
	}
}

func TestLoadCartridge_Rotation(t *testing.T) {
	for b, want := range map[byte]core.Rotation{0: core.RotateNone, 1: core.Rotate270, 2: core.Rotate90} {
		m := New(testConfig)
		if err := m.LoadCartridge(lnxImage(b, 16)); err != nil {
			t.Fatalf("LoadCartridge: %v", err)
		}
		if m.Rotation() != want {
			t.Fatalf("rotation byte %d got %v want %v", b, m.Rotation(), want)
		}
	}
	headerless := New(testConfig)
	if err := headerless.LoadCartridge([]byte{1, 2, 3}); err != nil {
		t.Fatalf("LoadCartridge headerless: %v", err)
	}
	if headerless.Rotation() != core.RotateNone {
		t.Fatalf("headerless rotation got %v", headerless.Rotation())
	}
}

func TestFrameCadence(t *testing.T) {
	m := loaded(t)
	tickN(m, 99)
	if m.RedrawRequested() {
		t.Fatalf("redraw before the frame completed")
	}
	m.Tick()
	if !m.RedrawRequested() {
		t.Fatalf("no redraw after 100 ticks")
	}
	if m.RedrawRequested() {
		t.Fatalf("redraw flag not cleared on read")
	}
	tickN(m, 300)
	if m.Frames() != 4 {
		t.Fatalf("Frames got %d want 4", m.Frames())
	}
}

func TestTone(t *testing.T) {
	m := loaded(t)
	l, r := m.AudioSample()
	if l != -1000 || r != -1000 {
		t.Fatalf("initial level got %d/%d want -1000", l, r)
	}
	tickN(m, 50)
	if l, _ := m.AudioSample(); l != 1000 {
		t.Fatalf("after one half period got %d want 1000", l)
	}
	tickN(m, 50)
	if l, _ := m.AudioSample(); l != -1000 {
		t.Fatalf("after one period got %d want -1000", l)
	}

	m.SetJoystick(core.JoyInside)
	tickN(m, 25)
	if l, _ := m.AudioSample(); l != 1000 {
		t.Fatalf("octave up should flip after 25 ticks, got %d", l)
	}

	m.SetJoystick(core.JoyOutside)
	if _, r := m.AudioSample(); r != 0 {
		t.Fatalf("Outside should mute the right channel, got %d", r)
	}
}

func TestPause(t *testing.T) {
	m := loaded(t)
	m.SetJoystick(core.JoyRight)
	m.SetSwitches(core.SwitchPause)
	if l, r := m.AudioSample(); l != 0 || r != 0 {
		t.Fatalf("paused machine produced %d/%d", l, r)
	}
	before := append([]byte(nil), m.FramePixels()...)
	tickN(m, 500)
	if !bytes.Equal(before, m.FramePixels()) {
		t.Fatalf("pattern scrolled while paused")
	}
	if !m.RedrawRequested() {
		t.Fatalf("display should keep refreshing while paused")
	}
}

func TestJoystickScrolls(t *testing.T) {
	m := loaded(t)
	tickN(m, 100)
	before := append([]byte(nil), m.FramePixels()...)

	m.SetJoystick(core.JoyRight)
	tickN(m, 400)
	if m.scrollX != 4 {
		t.Fatalf("scrollX got %d want 4", m.scrollX)
	}
	if bytes.Equal(before, m.FramePixels()) {
		t.Fatalf("pattern did not move")
	}

	m.SetJoystick(core.JoyLeft | core.JoyUp)
	tickN(m, 500)
	if m.scrollX != 255 || m.scrollY != 251 {
		t.Fatalf("scroll got %d,%d want 255,251", m.scrollX, m.scrollY)
	}
}

func TestSerialEcho(t *testing.T) {
	m := loaded(t)

	m.SerialRx('x')
	if _, ok := m.SerialTx(); ok {
		t.Fatalf("echo without a cable")
	}

	m.SetCablePresent(true)
	for _, b := range []byte("hi!") {
		m.SerialRx(b)
	}
	var got []byte
	for {
		b, ok := m.SerialTx()
		if !ok {
			break
		}
		got = append(got, b)
	}
	if string(got) != "hi!" {
		t.Fatalf("echo got %q want %q", got, "hi!")
	}

	m.SerialRx('z')
	m.SetCablePresent(false)
	if _, ok := m.SerialTx(); ok {
		t.Fatalf("unplugging should discard pending echo")
	}
}

func TestSerialEchoBounded(t *testing.T) {
	m := loaded(t)
	m.SetCablePresent(true)
	for i := 0; i < maxEcho+10; i++ {
		m.SerialRx(byte(i))
	}
	n := 0
	for {
		if _, ok := m.SerialTx(); !ok {
			break
		}
		n++
	}
	if n != maxEcho {
		t.Fatalf("echo queue held %d bytes want %d", n, maxEcho)
	}
}
