package render

import (
	"errors"
	"image"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Mode selects the glyph strategy used for each character cell.
type Mode string

const (
	// ModeBlock paints one frame pixel per cell as a space with a
	// colored background.
	ModeBlock Mode = "block"
	// ModeHalfBlock paints two vertically stacked frame pixels per cell
	// using the upper-half-block glyph, doubling vertical resolution.
	ModeHalfBlock Mode = "halfblock"
)

var (
	// ErrInvalidFrame reports a source frame with no pixels.
	ErrInvalidFrame = errors.New("zero-area frame")
	// ErrInvalidConfig reports a non-positive target geometry.
	ErrInvalidConfig = errors.New("non-positive render geometry")
)

// Config describes the target character grid for a render pass.
// The zero Palette renders 24-bit color.
type Config struct {
	Mode    Mode
	Columns int
	Rows    int
	Palette Palette
}

// Cell is one character cell of a rendered image. Block cells carry only
// a background color; half-block cells color the glyph (upper pixel) and
// the background (lower pixel) independently.
type Cell struct {
	FG RGB
	BG RGB
}

// Line is one row of cells.
type Line []Cell

// Image is a rendered frame: Rows lines of Columns cells each, plus the
// mode and palette needed to serialize them.
type Image struct {
	Mode    Mode
	Palette Palette
	Columns int
	Rows    int
	Lines   []Line
}

const (
	csi   = "\x1b["
	reset = "\x1b[0m"
)

// halfBlock is U+2580 UPPER HALF BLOCK.
const halfBlock = '▀'

// Render scales m onto the character grid described by cfg and colors
// each cell from the scaled pixels. The frame's aspect ratio is
// preserved by centering it on a black canvas; the result always has
// exactly cfg.Rows lines of cfg.Columns cells. Render is pure: equal
// inputs produce equal output.
func Render(m image.Image, cfg Config) (*Image, error) {
	if cfg.Columns <= 0 || cfg.Rows <= 0 {
		return nil, ErrInvalidConfig
	}
	b := m.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrInvalidFrame
	}

	gridW, gridH := cfg.Columns, cfg.Rows
	if cfg.Mode == ModeHalfBlock {
		gridH *= 2
	}
	canvas := rasterize(m, gridW, gridH)

	out := &Image{
		Mode:    cfg.Mode,
		Palette: cfg.Palette,
		Columns: cfg.Columns,
		Rows:    cfg.Rows,
		Lines:   make([]Line, cfg.Rows),
	}
	for y := 0; y < cfg.Rows; y++ {
		line := make(Line, cfg.Columns)
		for x := 0; x < cfg.Columns; x++ {
			if cfg.Mode == ModeHalfBlock {
				line[x] = Cell{
					FG: quantize(pixelAt(canvas, x, 2*y), cfg.Palette),
					BG: quantize(pixelAt(canvas, x, 2*y+1), cfg.Palette),
				}
			} else {
				c := quantize(pixelAt(canvas, x, y), cfg.Palette)
				line[x] = Cell{FG: c, BG: c}
			}
		}
		out.Lines[y] = line
	}
	return out, nil
}

// rasterize scales m to fit a gridW x gridH canvas, letterboxing with
// black rather than stretching.
func rasterize(m image.Image, gridW, gridH int) *image.RGBA {
	b := m.Bounds()
	scale := math.Min(float64(gridW)/float64(b.Dx()), float64(gridH)/float64(b.Dy()))
	innerW := clamp(int(math.Round(float64(b.Dx())*scale)), 1, gridW)
	innerH := clamp(int(math.Round(float64(b.Dy())*scale)), 1, gridH)
	offX := (gridW - innerW) / 2
	offY := (gridH - innerH) / 2

	canvas := image.NewRGBA(image.Rect(0, 0, gridW, gridH))
	inner := image.Rect(offX, offY, offX+innerW, offY+innerH)
	xdraw.ApproxBiLinear.Scale(canvas, inner, m, b, xdraw.Src, nil)
	return canvas
}

func pixelAt(canvas *image.RGBA, x, y int) RGB {
	c := canvas.RGBAAt(x, y)
	return RGB{R: c.R, G: c.G, B: c.B}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// String serializes the image as ANSI-colored text, one line per row.
// Color sequences are emitted only when a cell differs from its
// predecessor, and every line ends with a reset so stray lines never
// bleed color into the terminal.
func (im *Image) String() string {
	var b strings.Builder
	// Rough capacity: per cell one glyph plus an occasional SGR.
	b.Grow(im.Rows * im.Columns * 8)
	for y, line := range im.Lines {
		if y > 0 {
			b.WriteByte('\n')
		}
		im.writeLine(&b, line)
	}
	return b.String()
}

func (im *Image) writeLine(b *strings.Builder, line Line) {
	var prev Cell
	for x, cell := range line {
		if im.Mode == ModeHalfBlock {
			if x == 0 || cell != prev {
				b.WriteString(csi)
				sgr(b, cell.FG, im.Palette, true)
				b.WriteByte(';')
				sgr(b, cell.BG, im.Palette, false)
				b.WriteByte('m')
			}
			b.WriteRune(halfBlock)
		} else {
			if x == 0 || cell.BG != prev.BG {
				b.WriteString(csi)
				sgr(b, cell.BG, im.Palette, false)
				b.WriteByte('m')
			}
			b.WriteByte(' ')
		}
		prev = cell
	}
	b.WriteString(reset)
}
