package render

import (
	"fmt"
	"os"
	"strings"
)

// Palette selects how cell colors are encoded in the output.
type Palette string

const (
	// PaletteTrueColor emits 24-bit SGR sequences (38;2 / 48;2).
	PaletteTrueColor Palette = "truecolor"
	// Palette256 quantizes to the 216-color cube of the xterm-256 palette
	// and emits indexed SGR sequences (38;5 / 48;5).
	Palette256 Palette = "ansi256"
)

// RGB is a single 24-bit color sample.
type RGB struct {
	R, G, B uint8
}

// cubeLevels are the channel values of the 6x6x6 xterm color cube.
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// cubeIndex maps one 8-bit channel to the nearest cube level index.
func cubeIndex(v uint8) int {
	// Levels above 0 are evenly spaced at 40; 0->95 is the odd gap.
	if v < 48 {
		return 0
	}
	if v < 115 {
		return 1
	}
	return int(v-35) / 40
}

// quantize maps c onto the palette. TrueColor is the identity; 256-color
// snaps each channel to the nearest cube level.
func quantize(c RGB, p Palette) RGB {
	if p != Palette256 {
		return c
	}
	return RGB{
		R: cubeLevels[cubeIndex(c.R)],
		G: cubeLevels[cubeIndex(c.G)],
		B: cubeLevels[cubeIndex(c.B)],
	}
}

// paletteIndex returns the xterm palette index for a color already
// quantized to cube levels.
func paletteIndex(c RGB) int {
	return 16 + 36*cubeIndex(c.R) + 6*cubeIndex(c.G) + cubeIndex(c.B)
}

// sgr appends the SGR parameters selecting c as foreground (fg=true)
// or background.
func sgr(b *strings.Builder, c RGB, p Palette, fg bool) {
	layer := 48
	if fg {
		layer = 38
	}
	if p == Palette256 {
		fmt.Fprintf(b, "%d;5;%d", layer, paletteIndex(c))
		return
	}
	fmt.Fprintf(b, "%d;2;%d;%d;%d", layer, c.R, c.G, c.B)
}

// DetectPalette inspects the environment for 24-bit color support.
// COLORTERM is the de-facto signal modern emulators set.
func DetectPalette() Palette {
	switch strings.ToLower(os.Getenv("COLORTERM")) {
	case "truecolor", "24bit":
		return PaletteTrueColor
	}
	return Palette256
}
