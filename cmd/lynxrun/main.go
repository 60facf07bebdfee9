package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/audio"
	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/emu"
	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/runner"
	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/ui"
)

type CLIFlags struct {
	Cartridge string
	ROM       string
	Buttons   string
	Linear    bool
	Mute      bool
	Serial    int // TCP port, 0 disables the bridge
	Pacing    string
	Scale     int
	Title     string
	Record    string // WAV capture path
	Stats     bool

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.Cartridge, "cartridge", "", "cartridge image (.lnx, .o, or an archive containing one)")
	flag.StringVar(&f.ROM, "rom", "", "optional boot ROM override")
	flag.StringVar(&f.Buttons, "buttons", ui.DefaultButtons, "keys for up,down,left,right,outside,inside,option1,option2,pause")
	flag.BoolVar(&f.Linear, "linear", false, "linear display filter")
	flag.BoolVar(&f.Mute, "mute", false, "mute sound")
	flag.IntVar(&f.Serial, "serial", 0, "serial cable TCP port (0 disables)")
	flag.StringVar(&f.Pacing, "pacing", "tick", "pacing mode: tick or frame")
	flag.IntVar(&f.Scale, "scale", 4, "window scale")
	flag.StringVar(&f.Title, "title", "lynxrun", "window title")
	flag.StringVar(&f.Record, "record", "", "write the played audio to a WAV file")
	flag.BoolVar(&f.Stats, "stats", false, "show the stats overlay (F3 toggles)")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

func runnerConfig(f CLIFlags) (runner.Config, error) {
	pacing, err := runner.ParsePacingMode(f.Pacing)
	if err != nil {
		return runner.Config{}, err
	}
	cfg := runner.Config{
		ROMPath:       f.ROM,
		CartridgePath: f.Cartridge,
		Mute:          f.Mute,
		LinearFilter:  f.Linear,
		Pacing:        pacing,
		RecordPath:    f.Record,
	}
	if f.Serial != 0 {
		if f.Serial < 1 || f.Serial > 65535 {
			return cfg, fmt.Errorf("serial port %d out of range", f.Serial)
		}
		cfg.SerialEnabled = true
		cfg.SerialAddr = fmt.Sprintf(":%d", f.Serial)
	}
	cfg.Defaults()
	return cfg, cfg.Validate()
}

// openDevice adapts audio.OpenDevice to runner.AudioOutput.
func openDevice(src io.Reader, sampleRate int) (io.Closer, error) {
	d, err := audio.OpenDevice(src, sampleRate)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func runHeadless(r *runner.Runner, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}

	var fb []byte
	start := time.Now()
	for i := 0; i < frames; i++ {
		select {
		case fb = <-r.Frames():
		case <-time.After(5 * time.Second):
			return fmt.Errorf("no frame after %d of %d", i, frames)
		}
	}
	dur := time.Since(start)

	crc := crc32.ChecksumIEEE(fb)
	fps := float64(frames) / dur.Seconds()
	s := r.Stats()

	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x dropped=%d",
		frames, dur.Truncate(time.Millisecond), fps, crc, s.FramesDropped)

	if pngPath != "" {
		if err := saveFramePNG(fb, core.ScreenWidth, core.ScreenHeight, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}

	if expectCRC != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

// saveFramePNG writes an RGB framebuffer as an opaque PNG.
func saveFramePNG(rgb []byte, w, h int, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i+2 < len(rgb) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = rgb[i], rgb[i+1], rgb[i+2], 0xFF
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	f := parseFlags()
	cfg, err := runnerConfig(f)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if _, err := ui.ParseKeymap(f.Buttons); err != nil {
		log.Fatalf("config: %v", err)
	}

	var out runner.AudioOutput = openDevice
	if f.Headless {
		out = nil
		if cfg.RecordPath != "" {
			log.Printf("Warning: -record needs an audio device; ignored in headless mode")
			cfg.RecordPath = ""
		}
	}

	crystal := cfg.CrystalFrequency
	newCore := func() core.Core {
		return emu.New(emu.Config{CrystalFrequency: crystal})
	}

	r, err := runner.Spawn(cfg, newCore, out)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Printf("shutdown: %v", err)
		}
		s := r.Stats()
		log.Printf("stopped: ticks=%d frames=%d dropped=%d samples=%d sample_drops=%d underruns=%d",
			s.Ticks, s.Frames, s.FramesDropped, s.Samples, s.SamplesDropped, s.Underruns)
	}()

	if f.Headless {
		if err := runHeadless(r, f.Frames, f.PNGOut, f.Expect); err != nil {
			r.Close()
			log.Fatal(err)
		}
		return
	}

	uiCfg := ui.Config{
		Title:        f.Title,
		Scale:        f.Scale,
		LinearFilter: f.Linear,
		Buttons:      f.Buttons,
		ShowStats:    f.Stats,
	}
	app, err := ui.NewApp(uiCfg, r, r.Input())
	if err != nil {
		r.Close()
		log.Fatal(err)
	}
	if err := app.Run(); err != nil {
		r.Close()
		log.Fatal(err)
	}
}
