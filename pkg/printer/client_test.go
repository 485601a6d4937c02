package printer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialTestPrinter stands up a fake firmware socket and connects a client
// to it. handler runs server-side with the upgraded connection.
func dialTestPrinter(t *testing.T, handler func(conn *websocket.Conn)) *Client {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/websocket"
	c, err := Dial(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func shortenWindows(t *testing.T) {
	t.Helper()
	oldChatter, oldResponse, oldList := chatterWindow, responseWindow, listWindow
	chatterWindow = 50 * time.Millisecond
	responseWindow = 200 * time.Millisecond
	listWindow = 500 * time.Millisecond
	t.Cleanup(func() {
		chatterWindow, responseWindow, listWindow = oldChatter, oldResponse, oldList
	})
}

func TestClientListFiles(t *testing.T) {
	shortenWindows(t)
	c := dialTestPrinter(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		if want := `{"method":"get","params":{"reqGcodeFile":1}}`; string(msg) != want {
			t.Errorf("request = %s, want %s", msg, want)
		}
		// Unrelated telemetry first, then the inventory push.
		conn.WriteMessage(websocket.TextMessage, []byte(`{"nozzleTemp":205}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"retGcodeFileInfo":{"fileInfo":"`+sampleFileInfo+`"}}`))
		conn.ReadMessage() // hold the connection open until the client is done
	})

	files, err := c.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("ListFiles() returned %d files, want 3", len(files))
	}
	if files[0].Name != "benchy.gcode" {
		t.Errorf("first file = %q, want benchy.gcode", files[0].Name)
	}
}

func TestClientListFilesTimeout(t *testing.T) {
	shortenWindows(t)
	c := dialTestPrinter(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
		// Never answer; hold the socket open past the client's window.
		time.Sleep(time.Second)
	})

	_, err := c.ListFiles(context.Background())
	if !errors.Is(err, ErrNoFileList) {
		t.Errorf("ListFiles() error = %v, want ErrNoFileList", err)
	}
}

func TestClientPause(t *testing.T) {
	shortenWindows(t)
	got := make(chan string, 1)
	c := dialTestPrinter(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		got <- string(msg)
		conn.WriteMessage(websocket.TextMessage, []byte(`{"pause":1}`))
		conn.ReadMessage()
	})

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if want := `{"method":"set","params":{"pause":1}}`; <-got != want {
		t.Errorf("firmware saw wrong payload, want %s", want)
	}
}

func TestClientExecWithoutAck(t *testing.T) {
	shortenWindows(t)
	c := dialTestPrinter(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
		time.Sleep(time.Second)
	})

	// Some commands are never acknowledged; that is not a failure.
	if err := c.Stop(); err != nil {
		t.Errorf("Stop() error = %v, want nil on silent firmware", err)
	}
}

func TestClientDelete(t *testing.T) {
	shortenWindows(t)
	got := make(chan string, 1)
	c := dialTestPrinter(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		got <- string(msg)
	})

	err := c.Delete(GcodeFile{Path: "/usr/data/printer_data/gcodes", Name: "old.gcode"})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	want := `{"method":"set","params":{"opGcodeFile":"deleteprt:/usr/data/printer_data/gcodes/old.gcode"}}`
	if g := <-got; g != want {
		t.Errorf("firmware saw %s, want %s", g, want)
	}
}

func TestClientStream(t *testing.T) {
	shortenWindows(t)
	frames := []string{
		`{"printProgress":10}`,
		`{"printProgress":11}`,
		`{"printProgress":12}`,
	}
	c := dialTestPrinter(t, func(conn *websocket.Conn) {
		for _, f := range frames {
			conn.WriteMessage(websocket.TextMessage, []byte(f))
		}
		time.Sleep(time.Second)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var got []string
	err := c.Stream(ctx, func(msg []byte) {
		got = append(got, string(msg))
		if len(got) == len(frames) {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Stream() error = %v, want context.Canceled", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("received %d frames, want %d", len(got), len(frames))
	}
	var s Status
	for _, f := range got {
		s.Apply([]byte(f))
	}
	if s.Progress == nil || *s.Progress != 12 {
		t.Errorf("final progress = %v, want 12", s.Progress)
	}
}

func TestExtractFileInfo(t *testing.T) {
	tests := []struct {
		name   string
		msg    string
		want   string
		wantOK bool
	}{
		{
			name:   "inventory frame",
			msg:    `{"retGcodeFileInfo":{"fileInfo":"a:b:1:0.2:1:2;"}}`,
			want:   "a:b:1:0.2:1:2;",
			wantOK: true,
		},
		{name: "telemetry frame", msg: `{"nozzleTemp":200}`, wantOK: false},
		{name: "not json", msg: "hello", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractFileInfo([]byte(tt.msg))
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("extractFileInfo() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDialRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if _, err := Dial(ctx, "ws://127.0.0.1:1/websocket"); err == nil {
		t.Error("Dial() to a closed port returned no error")
	}
}
