package ui

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/runner"
)

// Emulator is the running side the window presents.
type Emulator interface {
	TryFrame() ([]byte, bool)
	Rotation() core.Rotation
	Stats() runner.Stats
}

// InputSink receives the joystick and switch bytes every update.
type InputSink interface {
	Send(joystick, switches uint8) bool
}

type App struct {
	cfg    Config
	keys   Keymap
	emu    Emulator
	input  InputSink
	filter ebiten.Filter

	tex   *ebiten.Image
	rgba  []byte // RGBA 160x102*4, alpha fixed at 0xFF
	dirty bool

	showStats bool
}

func NewApp(cfg Config, e Emulator, in InputSink) (*App, error) {
	cfg.Defaults()
	keys, err := ParseKeymap(cfg.Buttons)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:       cfg,
		keys:      keys,
		emu:       e,
		input:     in,
		filter:    ebiten.FilterNearest,
		rgba:      make([]byte, core.ScreenWidth*core.ScreenHeight*4),
		showStats: cfg.ShowStats,
	}
	for i := range a.rgba {
		a.rgba[i] = 0xFF
	}
	if cfg.LinearFilter {
		a.filter = ebiten.FilterLinear
	}

	w, h := displaySize(e.Rotation())
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(w*cfg.Scale, h*cfg.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	// poll input and frames once per displayed frame
	ebiten.SetTPS(ebiten.SyncWithFPS)
	return a, nil
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	a.input.Send(a.keys.State(ebiten.IsKeyPressed))

	// Stats overlay (F3)
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		a.showStats = !a.showStats
	}
	// Screenshot (F12)
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if err := a.saveScreenshot(); err != nil {
			log.Printf("Warning: screenshot failed: %v", err)
		}
	}

	if frame, ok := a.emu.TryFrame(); ok {
		expandRGB(a.rgba, frame)
		a.dirty = true
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(core.ScreenWidth, core.ScreenHeight)
		a.dirty = true
	}
	if a.dirty {
		a.tex.WritePixels(a.rgba)
		a.dirty = false
	}

	b := screen.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM = screenTransform(a.emu.Rotation(), b.Dx(), b.Dy())
	op.Filter = a.filter
	screen.DrawImage(a.tex, op)

	if a.showStats {
		s := a.emu.Stats()
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS %.1f\nframes %d (dropped %d)\nsamples %d (dropped %d)\nunderruns %d",
			ebiten.ActualFPS(), s.Frames, s.FramesDropped, s.Samples, s.SamplesDropped, s.Underruns))
	}
}

// Layout keeps the window's own resolution; Draw letterboxes into it.
func (a *App) Layout(outW, outH int) (int, int) { return outW, outH }

func (a *App) saveScreenshot() error {
	img := &image.RGBA{
		Pix:    append([]byte(nil), a.rgba...),
		Stride: 4 * core.ScreenWidth,
		Rect:   image.Rect(0, 0, core.ScreenWidth, core.ScreenHeight),
	}
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("screenshot_%s.png", ts)
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
