package cart

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
)

// HeaderSize is the length of the LNX header that precedes the cartridge data.
const HeaderSize = 64

const (
	nameStart         = 10
	nameEnd           = 42
	manufacturerStart = 42
	manufacturerEnd   = 58
	rotationOffset    = 58
)

var lnxMagic = [4]byte{'L', 'Y', 'N', 'X'}

// ErrNotLNX is returned by ParseHeader when the magic is missing.
var ErrNotLNX = errors.New("not an LNX image")

type Header struct {
	Bank0PageSize uint16 // 0x04, bytes per page in bank 0
	Bank1PageSize uint16 // 0x06
	Version       uint16 // 0x08
	Name          string // 0x0A-0x29 (NUL-trimmed ASCII)
	Manufacturer  string // 0x2A-0x39
	RotationByte  byte   // 0x3A

	// Decoded helpers (for logs)
	Rotation  core.Rotation
	Bank0Size int // 256 pages of Bank0PageSize
	Bank1Size int
}

// IsLNX reports whether data starts with the LNX magic.
func IsLNX(data []byte) bool {
	return len(data) >= len(lnxMagic) && [4]byte(data[:4]) == lnxMagic
}

func ParseHeader(data []byte) (*Header, error) {
	if !IsLNX(data) {
		return nil, ErrNotLNX
	}
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("LNX header truncated: %d of %d bytes", len(data), HeaderSize)
	}

	h := &Header{
		Bank0PageSize: binary.LittleEndian.Uint16(data[4:6]),
		Bank1PageSize: binary.LittleEndian.Uint16(data[6:8]),
		Version:       binary.LittleEndian.Uint16(data[8:10]),
		Name:          cString(data[nameStart:nameEnd]),
		Manufacturer:  cString(data[manufacturerStart:manufacturerEnd]),
		RotationByte:  data[rotationOffset],
	}
	h.Rotation = decodeRotation(h.RotationByte)
	h.Bank0Size = int(h.Bank0PageSize) * 256
	h.Bank1Size = int(h.Bank1PageSize) * 256
	return h, nil
}

func decodeRotation(b byte) core.Rotation {
	switch b {
	case 1:
		return core.Rotate270
	case 2:
		return core.Rotate90
	default:
		return core.RotateNone
	}
}

func cString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
