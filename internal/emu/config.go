package emu

// Config contains settings that affect emulation behavior.
type Config struct {
	CrystalFrequency uint32  // Hz, ticks per emulated second
	RefreshRate      float64 // Hz, frames per emulated second
	ToneFrequency    float64 // Hz of the square wave test tone
	Volume           int16   // tone amplitude
}

// Defaults fills zero fields: a 16 MHz crystal and the 75 Hz refresh the
// hardware boots with.
func (c *Config) Defaults() {
	if c.CrystalFrequency == 0 {
		c.CrystalFrequency = 16_000_000
	}
	if c.RefreshRate <= 0 {
		c.RefreshRate = 75
	}
	if c.ToneFrequency <= 0 {
		c.ToneFrequency = 440
	}
	if c.Volume == 0 {
		c.Volume = 4096
	}
}
