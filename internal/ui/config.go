package ui

// DefaultButtons maps up, down, left, right, outside, inside, option 1,
// option 2 and pause, in that order.
const DefaultButtons = "up,down,left,right,q,w,1,2,p"

// Config contains window/input related settings.
type Config struct {
	Title        string // window title
	Scale        int    // integer upscaling factor of the initial window
	LinearFilter bool   // bilinear instead of nearest-neighbour scaling
	Buttons      string // comma separated key names, see DefaultButtons
	ShowStats    bool   // start with the stats overlay visible (F3 toggles)
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "lynxrun"
	}
	if c.Scale <= 0 {
		c.Scale = 4
	}
	if c.Buttons == "" {
		c.Buttons = DefaultButtons
	}
}
