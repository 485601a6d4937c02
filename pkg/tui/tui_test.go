package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"

	"github.com/printforge/go-k1/pkg/printer"
)

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	if err := sim.Init(); err != nil {
		t.Fatalf("init simulation screen: %v", err)
	}
	sim.SetSize(w, h)
	t.Cleanup(sim.Fini)
	return sim
}

func rowString(sim tcell.SimulationScreen, y int) string {
	cells, w, h := sim.GetContents()
	if y >= h {
		return ""
	}
	var b strings.Builder
	for x := 0; x < w; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			b.WriteRune(' ')
		} else {
			b.WriteRune(c.Runes[0])
		}
	}
	return b.String()
}

func TestDashboardDraw(t *testing.T) {
	sim := newSimScreen(t, 80, 24)
	d := &Dashboard{screen: sim, connected: true}
	d.status.Apply([]byte(`{"printProgress": 42, "nozzleTemp": 205}`))
	d.appendLog(`{"printProgress": 42}`)
	d.draw()

	if got := rowString(sim, 0); !strings.Contains(got, "Printer Status") {
		t.Errorf("top border = %q, want Printer Status title", got)
	}
	if got := rowString(sim, 2); !strings.Contains(got, "Status: Connected") {
		t.Errorf("status line = %q, want Connected", got)
	}
	if got := rowString(sim, 3); !strings.Contains(got, "Progress:") || !strings.Contains(got, "42%") {
		t.Errorf("progress row = %q, want label and percent", got)
	}
	if got := rowString(sim, 6); !strings.Contains(got, "Nozzle Temp:") || !strings.Contains(got, "205.00°C") {
		t.Errorf("nozzle row = %q, want 205.00°C", got)
	}
	if got := rowString(sim, infoHeight); !strings.Contains(got, "Logs") {
		t.Errorf("log border = %q, want Logs title", got)
	}
	if got := rowString(sim, infoHeight+1); !strings.Contains(got, `{"printProgress": 42}`) {
		t.Errorf("log row = %q, want raw frame", got)
	}

	cells, w, _ := sim.GetContents()
	if cells[0].Runes[0] != tcell.RuneULCorner {
		t.Errorf("top-left rune = %q, want box corner", cells[0].Runes[0])
	}
	if cells[w-1].Runes[0] != tcell.RuneURCorner {
		t.Errorf("top-right rune = %q, want box corner", cells[w-1].Runes[0])
	}
}

func TestDashboardUnreportedFieldsShowNA(t *testing.T) {
	sim := newSimScreen(t, 80, 24)
	d := &Dashboard{screen: sim, connected: true}
	d.draw()

	if got := rowString(sim, 4); !strings.Contains(got, "Total Layers:") || !strings.Contains(got, "N/A") {
		t.Errorf("layers row = %q, want N/A", got)
	}
}

func TestDashboardSmallTerminal(t *testing.T) {
	sim := newSimScreen(t, 30, 4)
	d := &Dashboard{screen: sim, connected: true}
	d.draw()

	if got := rowString(sim, 0); !strings.Contains(got, "Terminal too small") {
		t.Errorf("row 0 = %q, want too-small notice", got)
	}
}

func TestDashboardShrinksInfoPanel(t *testing.T) {
	sim := newSimScreen(t, 40, 12)
	d := &Dashboard{screen: sim, connected: true}
	d.draw()

	// The info panel gives up rows so the log keeps its minimum three.
	if got := rowString(sim, 9); !strings.Contains(got, "Logs") {
		t.Errorf("row 9 = %q, want shrunken log border", got)
	}
}

func TestDashboardLogScrollback(t *testing.T) {
	sim := newSimScreen(t, 60, 24)
	d := &Dashboard{screen: sim, connected: true}
	for i := 0; i < logHistory+50; i++ {
		d.appendLog("frame")
	}
	if len(d.logs) != logHistory {
		t.Errorf("log history = %d, want capped at %d", len(d.logs), logHistory)
	}
	d.appendLog("the newest line")
	d.draw()

	// 24 rows, 15 info rows, log box of 9 shows the last 7 lines.
	if got := rowString(sim, 22); !strings.Contains(got, "the newest line") {
		t.Errorf("bottom log row = %q, want newest line", got)
	}
}

func TestRunQuitsOnQ(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"printProgress": 5}`))
		conn.ReadMessage() // block until the client hangs up
	}))
	t.Cleanup(srv.Close)

	client, err := printer.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/websocket")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	sim := tcell.NewSimulationScreen("UTF-8")
	done := make(chan error, 1)
	go func() {
		done <- run(context.Background(), sim, client)
	}()

	// Wait for the first draw before injecting the quit key.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(rowString(sim, 0), "Printer Status") {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v, want nil on quit", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("dashboard did not exit on q")
	}
}
