package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"

	_ "image/jpeg"
	_ "image/png"

	"github.com/printforge/go-k1/internal/httpc"
)

var (
	// ErrCameraUnreachable reports that the snapshot endpoint could not
	// be fetched (connection refused, timeout, bad HTTP status).
	ErrCameraUnreachable = errors.New("camera unreachable")
	// ErrBadFrame reports a snapshot that fetched fine but did not
	// decode as an image.
	ErrBadFrame = errors.New("snapshot did not decode")
)

// FetchSnapshot grabs one raw JPEG from the camera's snapshot URL.
func FetchSnapshot(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnreachable, err)
	}
	resp, err := httpc.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrCameraUnreachable, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnreachable, err)
	}
	return data, nil
}

// DecodeFrame parses a raw snapshot into an image.
func DecodeFrame(data []byte) (image.Image, error) {
	m, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return m, nil
}

// Snapshot fetches and decodes one camera frame.
func Snapshot(ctx context.Context, url string) (image.Image, error) {
	data, err := FetchSnapshot(ctx, url)
	if err != nil {
		return nil, err
	}
	return DecodeFrame(data)
}
