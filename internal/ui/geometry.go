package ui

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
)

// rotationDegrees is the clockwise angle the screen is drawn at. A cartridge
// asking for 270 is held turned left, so its image is turned right.
func rotationDegrees(r core.Rotation) float64 {
	switch r {
	case core.Rotate270:
		return 90
	case core.Rotate90:
		return 270
	default:
		return 0
	}
}

// displaySize is the screen size after rotation.
func displaySize(r core.Rotation) (w, h int) {
	if r == core.Rotate90 || r == core.Rotate270 {
		return core.ScreenHeight, core.ScreenWidth
	}
	return core.ScreenWidth, core.ScreenHeight
}

// fit returns the largest rectangle with the rotated screen's aspect ratio
// that fits in outW x outH, centred.
func fit(r core.Rotation, outW, outH int) (x, y, w, h int) {
	dw, dh := displaySize(r)
	if outW*dh > outH*dw {
		w, h = outH*dw/dh, outH
	} else {
		w, h = outW, outW*dh/dw
	}
	return (outW - w) / 2, (outH - h) / 2, w, h
}

// screenTransform maps the unrotated screen texture onto the letterboxed
// target inside an outW x outH window.
func screenTransform(r core.Rotation, outW, outH int) ebiten.GeoM {
	x, y, w, h := fit(r, outW, outH)
	dw, _ := displaySize(r)
	s := float64(w) / float64(dw)

	var g ebiten.GeoM
	g.Translate(-float64(core.ScreenWidth)/2, -float64(core.ScreenHeight)/2)
	g.Rotate(rotationDegrees(r) * math.Pi / 180)
	g.Scale(s, s)
	g.Translate(float64(x)+float64(w)/2, float64(y)+float64(h)/2)
	return g
}

// expandRGB copies RGB pixels into an RGBA buffer, leaving alpha alone.
// A source that is already RGBA is copied as is.
func expandRGB(dst, src []byte) {
	if len(src) == len(dst) {
		copy(dst, src)
		return
	}
	for i, j := 0, 0; i+2 < len(src) && j+3 < len(dst); i, j = i+3, j+4 {
		dst[j], dst[j+1], dst[j+2] = src[i], src[i+1], src[i+2]
	}
}
