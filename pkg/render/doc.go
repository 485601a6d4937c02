// Package render turns decoded camera frames into ANSI-colored text.
//
// The renderer maps an image.Image onto a fixed character grid and emits
// escape sequences a terminal can print directly. It is pure: the same
// frame and config always produce the same output, which keeps video
// playback flicker-free and makes the output testable.
//
// # Modes
//
// Two glyph strategies are supported, each trading resolution for
// compatibility:
//
//   - block: one pixel per cell, drawn as a space with a background
//     color. Works on any color terminal.
//   - halfblock: two pixels per cell using the upper-half-block glyph,
//     doubling vertical resolution. Needs a Unicode font.
//
// # Palettes
//
// Colors are emitted as 24-bit SGR sequences when the terminal supports
// them, or quantized to the 216-color xterm cube otherwise. Use
// DetectPalette to pick from the COLORTERM environment variable.
//
// # Usage
//
// Render a snapshot at 80 columns and print it:
//
//	img, _, err := image.Decode(bytes.NewReader(jpeg))
//	if err != nil {
//	    return err
//	}
//	out, err := render.Render(img, render.Config{
//	    Mode:    render.ModeHalfBlock,
//	    Columns: 80,
//	    Rows:    22,
//	    Palette: render.DetectPalette(),
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(out.String())
//
// Frames that do not match the grid's aspect ratio are letterboxed on a
// black canvas, never stretched.
package render
