// Package tui is the full-screen status dashboard: a fixed info panel
// over a scrolling log of raw telemetry frames.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/printforge/go-k1/pkg/printer"
)

const (
	// infoHeight is the preferred height of the boxed info panel; it
	// shrinks on small terminals so the log keeps at least three rows.
	infoHeight = 15
	// logHistory bounds the kept log lines.
	logHistory = 200
	// valueColumn is where field values start, past the label column.
	valueColumn = 18
)

// Dashboard draws the printer status screen and owns its state.
type Dashboard struct {
	screen    tcell.Screen
	status    printer.Status
	logs      []string
	connected bool
}

// Run opens the terminal screen and blocks until the user quits with
// q or Ctrl+C, the stream dies, or ctx is canceled. The terminal is
// restored on every exit path.
func Run(ctx context.Context, client *printer.Client) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal screen: %w", err)
	}
	return run(ctx, screen, client)
}

func run(ctx context.Context, screen tcell.Screen, client *printer.Client) error {
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal screen: %w", err)
	}
	defer screen.Fini()

	d := &Dashboard{screen: screen, connected: true}

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go screen.ChannelEvents(events, quit)

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	msgs := make(chan []byte, 64)
	errs := make(chan error, 1)
	go func() {
		errs <- client.Stream(streamCtx, func(m []byte) {
			cp := make([]byte, len(m))
			copy(cp, m)
			select {
			case msgs <- cp:
			default:
				// UI behind; drop rather than stall the socket.
			}
		})
	}()

	d.draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if ev == nil {
				return nil
			}
			switch e := ev.(type) {
			case *tcell.EventKey:
				if e.Key() == tcell.KeyCtrlC || (e.Key() == tcell.KeyRune && e.Rune() == 'q') {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
				d.draw()
			}
		case m := <-msgs:
			d.status.Apply(m)
			d.appendLog(string(m))
			d.draw()
		case err := <-errs:
			if err != nil && !errors.Is(err, context.Canceled) {
				d.connected = false
				d.appendLog("stream error: " + err.Error())
				d.draw()
			}
		}
	}
}

func (d *Dashboard) appendLog(line string) {
	d.logs = append(d.logs, line)
	if len(d.logs) > logHistory {
		d.logs = d.logs[1:]
	}
}

func (d *Dashboard) draw() {
	s := d.screen
	s.Clear()
	w, h := s.Size()

	infoH := infoHeight
	logH := h - infoH
	if logH < 3 {
		infoH = max(1, h-3)
		logH = h - infoH
	}
	if infoH < 3 || logH < 3 || w < 4 {
		drawText(s, 0, 0, w, "Terminal too small", tcell.StyleDefault)
		s.Show()
		return
	}

	drawBox(s, 0, 0, w, infoH, " Printer Status ")
	statusLine := "Status: Connected"
	if !d.connected {
		statusLine = "Status: Disconnected"
	}
	drawText(s, 2, 2, w-3, statusLine, tcell.StyleDefault.Bold(true))

	for i, f := range d.status.Fields() {
		y := 3 + i
		if y >= infoH-1 {
			break
		}
		drawText(s, 2, y, valueColumn-3, f.Label+":", tcell.StyleDefault)
		drawText(s, valueColumn, y, w-valueColumn-1, f.Value, tcell.StyleDefault)
	}

	drawBox(s, 0, infoH, w, logH, " Logs ")
	visible := logH - 2
	start := len(d.logs) - visible
	if start < 0 {
		start = 0
	}
	for i, line := range d.logs[start:] {
		drawText(s, 1, infoH+1+i, w-2, line, tcell.StyleDefault.Dim(true))
	}

	s.Show()
}

// drawBox draws a bordered region with a title on the top edge.
func drawBox(s tcell.Screen, x, y, w, h int, title string) {
	style := tcell.StyleDefault
	for i := 1; i < w-1; i++ {
		s.SetContent(x+i, y, tcell.RuneHLine, nil, style)
		s.SetContent(x+i, y+h-1, tcell.RuneHLine, nil, style)
	}
	for j := 1; j < h-1; j++ {
		s.SetContent(x, y+j, tcell.RuneVLine, nil, style)
		s.SetContent(x+w-1, y+j, tcell.RuneVLine, nil, style)
	}
	s.SetContent(x, y, tcell.RuneULCorner, nil, style)
	s.SetContent(x+w-1, y, tcell.RuneURCorner, nil, style)
	s.SetContent(x, y+h-1, tcell.RuneLLCorner, nil, style)
	s.SetContent(x+w-1, y+h-1, tcell.RuneLRCorner, nil, style)
	drawText(s, x+2, y, w-4, title, style.Bold(true))
}

// drawText writes a clipped single-line string.
func drawText(s tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	if maxWidth <= 0 {
		return
	}
	col := x
	for _, r := range text {
		if col-x >= maxWidth {
			break
		}
		s.SetContent(col, y, r, nil, style)
		col++
	}
}
