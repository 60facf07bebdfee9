package cart

import "github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"

// Cartridge is a loaded cartridge image with its optional LNX header
// stripped off. Headerless images (.lyx, .o) have a nil Header.
type Cartridge struct {
	Header *Header
	data   []byte
}

// New parses image. Only a malformed LNX header is an error; anything else
// is taken as raw cartridge data.
func New(image []byte) (*Cartridge, error) {
	if !IsLNX(image) {
		return &Cartridge{data: image}, nil
	}
	h, err := ParseHeader(image)
	if err != nil {
		return nil, err
	}
	return &Cartridge{Header: h, data: image[HeaderSize:]}, nil
}

// Read returns the byte at addr, mirrored over the image size.
func (c *Cartridge) Read(addr uint32) byte {
	if len(c.data) == 0 {
		return 0xFF
	}
	return c.data[int(addr%uint32(len(c.data)))]
}

// Size is the data size without the header.
func (c *Cartridge) Size() int { return len(c.data) }

// Rotation is the screen orientation requested by the header.
func (c *Cartridge) Rotation() core.Rotation {
	if c.Header == nil {
		return core.RotateNone
	}
	return c.Header.Rotation
}

// Title is the header name, or "" for headerless images.
func (c *Cartridge) Title() string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Name
}
