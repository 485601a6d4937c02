// Package printer speaks the stock Creality K1 firmware protocol: JSON
// commands over a WebSocket on port 9999, an MJPEG snapshot endpoint on
// port 8080, and a multipart G-code upload endpoint on port 80.
package printer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/printforge/go-k1/internal/log"
)

var (
	// chatterWindow bounds the initial drain of unsolicited telemetry the
	// firmware pushes right after the handshake.
	chatterWindow = 2 * time.Second
	// responseWindow bounds the wait for a command acknowledgement.
	responseWindow = 5 * time.Second
	// listWindow bounds the wait for a file list push.
	listWindow = 10 * time.Second
)

// ErrNoFileList reports that the firmware never answered a file list
// request within the window.
var ErrNoFileList = errors.New("no file list received from printer")

// Client is one control-socket session. A single goroutine owns all
// reads from the connection; inbound frames arrive on an internal
// channel so command timeouts never touch the socket itself (a gorilla
// read error, deadline timeouts included, is permanent). Writes are
// serialized internally.
type Client struct {
	url  string
	conn *websocket.Conn

	writeMu sync.Mutex

	msgs      chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	// readErr records why the read loop exited; valid once msgs is
	// closed.
	readErr error
}

// Dial opens a control session against a ws://host:9999/websocket URL.
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("printer connect failed: %w", err)
	}
	log.Debug("control socket connected", "url", url)
	c := &Client{
		url:    url,
		conn:   conn,
		msgs:   make(chan []byte, 64),
		closed: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close tears the session down.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

// readLoop is the sole reader of the connection. It pumps frames into
// c.msgs until the connection drops or Close is called, then closes
// the channel.
func (c *Client) readLoop() {
	defer close(c.msgs)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		select {
		case c.msgs <- msg:
		case <-c.closed:
			return
		}
	}
}

// Send writes one command without waiting for an acknowledgement.
func (c *Client) Send(cmd Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	return nil
}

// DrainChatter discards the telemetry burst the firmware sends on
// connect, so a following command is not answered with stale frames.
func (c *Client) DrainChatter() {
	timer := time.NewTimer(chatterWindow)
	defer timer.Stop()
	for {
		select {
		case msg, ok := <-c.msgs:
			if !ok {
				return
			}
			log.Debug("drained chatter", "bytes", len(msg))
		case <-timer.C:
			return
		}
	}
}

// Exec drains startup chatter, sends cmd, and waits briefly for one
// acknowledgement frame. A missing acknowledgement is not an error; the
// firmware acks opportunistically.
func (c *Client) Exec(cmd Command) ([]byte, error) {
	c.DrainChatter()
	if err := c.Send(cmd); err != nil {
		return nil, err
	}
	timer := time.NewTimer(responseWindow)
	defer timer.Stop()
	select {
	case msg, ok := <-c.msgs:
		if !ok {
			return nil, fmt.Errorf("read acknowledgement: %w", c.readErr)
		}
		return msg, nil
	case <-timer.C:
		log.Debug("no acknowledgement received", "method", cmd.Method)
		return nil, nil
	}
}

// Pause suspends the running print job.
func (c *Client) Pause() error {
	_, err := c.Exec(Pause())
	return err
}

// Resume continues a paused print job.
func (c *Client) Resume() error {
	_, err := c.Exec(Resume())
	return err
}

// Stop aborts the running print job.
func (c *Client) Stop() error {
	_, err := c.Exec(Stop())
	return err
}

// StartPrint asks the firmware to print the stored file at path.
func (c *Client) StartPrint(path string) error {
	_, err := c.Exec(PrintFile(path))
	return err
}

// Delete fires a delete for one stored file without waiting for an ack.
// The firmware needs a short pause between deletes; callers batching
// removals should pace them (300ms works).
func (c *Client) Delete(f GcodeFile) error {
	return c.Send(DeleteFile(f.Path, f.Name))
}

// ListFiles requests the stored file inventory and blocks until the
// firmware pushes it, skipping unrelated telemetry in between.
func (c *Client) ListFiles(ctx context.Context) ([]GcodeFile, error) {
	if err := c.Send(RequestFileList()); err != nil {
		return nil, err
	}
	timer := time.NewTimer(listWindow)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, ErrNoFileList
		case msg, ok := <-c.msgs:
			if !ok {
				return nil, fmt.Errorf("read file list: %w", c.readErr)
			}
			blob, found := extractFileInfo(msg)
			if !found {
				continue
			}
			return ParseFileInfo(blob), nil
		}
	}
}

// Stream delivers every raw telemetry frame to fn until ctx is canceled
// or the connection drops.
func (c *Client) Stream(ctx context.Context, fn func(msg []byte)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-c.msgs:
			if !ok {
				if c.readErr != nil {
					return fmt.Errorf("telemetry stream: %w", c.readErr)
				}
				return nil
			}
			fn(msg)
		}
	}
}

// extractFileInfo pulls the fileInfo blob out of a retGcodeFileInfo
// frame, reporting false for any other message.
func extractFileInfo(msg []byte) (string, bool) {
	var frame struct {
		Ret *struct {
			FileInfo string `json:"fileInfo"`
		} `json:"retGcodeFileInfo"`
	}
	if err := json.Unmarshal(msg, &frame); err != nil || frame.Ret == nil {
		return "", false
	}
	return frame.Ret.FileInfo, true
}
