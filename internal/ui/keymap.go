package ui

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
)

// Keymap holds the key bound to each logical input, in DefaultButtons order.
type Keymap [9]ebiten.Key

var inputBits = [9]struct {
	joystick, switches uint8
}{
	{joystick: core.JoyUp},
	{joystick: core.JoyDown},
	{joystick: core.JoyLeft},
	{joystick: core.JoyRight},
	{joystick: core.JoyOutside},
	{joystick: core.JoyInside},
	{joystick: core.JoyOption1},
	{joystick: core.JoyOption2},
	{switches: core.SwitchPause},
}

var keyNames = map[string]ebiten.Key{
	"a": ebiten.KeyA, "b": ebiten.KeyB, "c": ebiten.KeyC, "d": ebiten.KeyD,
	"e": ebiten.KeyE, "f": ebiten.KeyF, "g": ebiten.KeyG, "h": ebiten.KeyH,
	"i": ebiten.KeyI, "j": ebiten.KeyJ, "k": ebiten.KeyK, "l": ebiten.KeyL,
	"m": ebiten.KeyM, "n": ebiten.KeyN, "o": ebiten.KeyO, "p": ebiten.KeyP,
	"q": ebiten.KeyQ, "r": ebiten.KeyR, "s": ebiten.KeyS, "t": ebiten.KeyT,
	"u": ebiten.KeyU, "v": ebiten.KeyV, "w": ebiten.KeyW, "x": ebiten.KeyX,
	"y": ebiten.KeyY, "z": ebiten.KeyZ,

	"0": ebiten.KeyDigit0, "1": ebiten.KeyDigit1, "2": ebiten.KeyDigit2,
	"3": ebiten.KeyDigit3, "4": ebiten.KeyDigit4, "5": ebiten.KeyDigit5,
	"6": ebiten.KeyDigit6, "7": ebiten.KeyDigit7, "8": ebiten.KeyDigit8,
	"9": ebiten.KeyDigit9,

	"up":    ebiten.KeyArrowUp,
	"down":  ebiten.KeyArrowDown,
	"left":  ebiten.KeyArrowLeft,
	"right": ebiten.KeyArrowRight,

	"space":     ebiten.KeySpace,
	"enter":     ebiten.KeyEnter,
	"tab":       ebiten.KeyTab,
	"backspace": ebiten.KeyBackspace,
	"lshift":    ebiten.KeyShiftLeft,
	"rshift":    ebiten.KeyShiftRight,
	"lctrl":     ebiten.KeyControlLeft,
	"rctrl":     ebiten.KeyControlRight,
	"lalt":      ebiten.KeyAltLeft,
	"ralt":      ebiten.KeyAltRight,
	"comma":     ebiten.KeyComma,
	"period":    ebiten.KeyPeriod,
	"slash":     ebiten.KeySlash,
	"semicolon": ebiten.KeySemicolon,
}

// ParseKeymap reads exactly nine comma separated key names.
func ParseKeymap(s string) (Keymap, error) {
	var km Keymap
	names := strings.Split(s, ",")
	if len(names) != len(km) {
		return km, fmt.Errorf("button mapping needs %d keys, got %d", len(km), len(names))
	}
	for i, n := range names {
		k, ok := keyNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return km, fmt.Errorf("button mapping: unknown key %q", n)
		}
		km[i] = k
	}
	return km, nil
}

// State builds the joystick and switch bytes from the keys held down.
func (km Keymap) State(pressed func(ebiten.Key) bool) (joystick, switches uint8) {
	for i, k := range km {
		if pressed(k) {
			joystick |= inputBits[i].joystick
			switches |= inputBits[i].switches
		}
	}
	return joystick, switches
}
