package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/printforge/go-k1/internal/config"
	"github.com/printforge/go-k1/internal/log"
	"github.com/printforge/go-k1/pkg/printer"
	"github.com/printforge/go-k1/pkg/render"
)

func cmdPhoto(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("photo", flag.ExitOnError)
	mode := fs.String("mode", cfg.Render.Mode, "Render mode: block or halfblock")
	width := fs.Int("width", 0, "Frame width in terminal columns (default: terminal width)")
	height := fs.Int("height", 0, "Frame height in rows (default: 16:9 for the width)")
	fs.Parse(args)

	fmt.Println("Fetching photo from printer...")
	img, err := printer.Snapshot(ctx, cfg.SnapshotURL())
	if err != nil {
		return err
	}

	cols, rows := frameGeometry(*width, *height)
	out, err := render.Render(img, render.Config{
		Mode:    render.Mode(*mode),
		Columns: cols,
		Rows:    rows,
		Palette: pickPalette(cfg),
	})
	if err != nil {
		return err
	}
	fmt.Println(out.String())
	return nil
}

// cmdVideo repaints the camera feed in place. The grid is resolved
// every frame so resizing the terminal takes effect mid stream.
func cmdVideo(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("video", flag.ExitOnError)
	mode := fs.String("mode", cfg.Render.Mode, "Render mode: block or halfblock")
	width := fs.Int("width", 0, "Frame width in terminal columns (default: terminal width)")
	height := fs.Int("height", 0, "Frame height in rows (default: 16:9 for the width)")
	interval := fs.Duration("interval", cfg.Video.Interval, "Delay between frames")
	fs.Parse(args)

	palette := pickPalette(cfg)
	first := true
	lastCols, lastRows := 0, 0

	for ctx.Err() == nil {
		cols, rows := frameGeometry(*width, *height)

		frame, err := printer.Snapshot(ctx, cfg.SnapshotURL())
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			// A dropped frame is not fatal; the camera streamer
			// stalls briefly when the printer is busy.
			log.Warn("skipping frame", "err", err)
			sleepCtx(ctx, *interval)
			continue
		}

		out, err := render.Render(frame, render.Config{
			Mode:    render.Mode(*mode),
			Columns: cols,
			Rows:    rows,
			Palette: palette,
		})
		if err != nil {
			return err
		}

		if first || cols != lastCols || rows != lastRows {
			fmt.Print("\x1b[2J\x1b[H")
			first = false
		} else {
			// Rewind to the first frame line and overwrite.
			fmt.Printf("\x1b[%dF", lastRows)
		}
		lastCols, lastRows = cols, out.Rows

		fmt.Print(out.String())
		sleepCtx(ctx, *interval)
	}

	fmt.Print("\x1b[0m\nVideo stream stopped.\n")
	return nil
}

// frameGeometry resolves the target cell grid. Width defaults to the
// terminal width, height to a 16:9 frame on 2:1 terminal cells, which
// is the aspect the stock camera delivers.
func frameGeometry(flagW, flagH int) (cols, rows int) {
	cols = flagW
	if cols <= 0 {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			cols = w
		} else {
			cols = 80
		}
	}
	rows = flagH
	if rows <= 0 {
		rows = cols * 9 / 16 / 2
		if rows < 1 {
			rows = 1
		}
	}
	return cols, rows
}

func pickPalette(cfg *config.Config) render.Palette {
	switch cfg.Render.Palette {
	case "truecolor":
		return render.PaletteTrueColor
	case "ansi256":
		return render.Palette256
	default:
		return render.DetectPalette()
	}
}

// sleepCtx waits for d unless ctx is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
