package main

import (
	"testing"

	"github.com/printforge/go-k1/internal/config"
	"github.com/printforge/go-k1/pkg/render"
)

func TestFrameGeometry(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		wantCols int
		wantRows int
	}{
		{"explicit both", 120, 30, 120, 30},
		{"derived 16:9 at 80", 80, 0, 80, 22},
		{"derived 16:9 at 160", 160, 0, 160, 45},
		{"derived small", 10, 0, 10, 2},
		{"derived clamps to one row", 3, 0, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows := frameGeometry(tt.w, tt.h)
			if cols != tt.wantCols || rows != tt.wantRows {
				t.Errorf("frameGeometry(%d, %d) = %d, %d, want %d, %d",
					tt.w, tt.h, cols, rows, tt.wantCols, tt.wantRows)
			}
		})
	}
}

func TestPickPalette(t *testing.T) {
	cfg := config.Default()

	cfg.Render.Palette = "truecolor"
	if got := pickPalette(cfg); got != render.PaletteTrueColor {
		t.Errorf("got %q, want truecolor", got)
	}

	cfg.Render.Palette = "ansi256"
	if got := pickPalette(cfg); got != render.Palette256 {
		t.Errorf("got %q, want ansi256", got)
	}

	// Auto defers to terminal detection, which always lands on a
	// usable palette.
	cfg.Render.Palette = "auto"
	switch got := pickPalette(cfg); got {
	case render.PaletteTrueColor, render.Palette256:
	default:
		t.Errorf("auto resolved to %q", got)
	}
}
