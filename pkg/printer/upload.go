package printer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/printforge/go-k1/internal/httpc"
	"github.com/printforge/go-k1/internal/log"
)

// uploadBoundary is pinned to the value the stock web UI sends; the
// firmware's upload handler is picky about looking like a browser.
const uploadBoundary = "----WebKitFormBoundaryMSFQsbe7RlEsWyBy"

var (
	// ErrNotGcodeExt reports a file without the .gcode extension.
	ErrNotGcodeExt = errors.New("file does not have a .gcode extension")
	// ErrNotGcode reports a file whose first lines look nothing like
	// G-code.
	ErrNotGcode = errors.New("file does not appear to be valid G-code")
	// ErrUploadRejected reports a firmware-side upload failure.
	ErrUploadRejected = errors.New("printer rejected upload")
)

// gcodePrefixes are the line starts accepted by the content probe.
var gcodePrefixes = []string{"g", "m", ";", "t", "start", "end", "init"}

// ValidateGcode checks the extension and sniffs the first ten lines for
// anything G-code shaped. It is a heuristic, not a parser: good enough
// to catch uploading the wrong file.
func ValidateGcode(path string) error {
	if !strings.HasSuffix(strings.ToLower(path), ".gcode") {
		return ErrNotGcodeExt
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if !looksLikeGcode(f) {
		return ErrNotGcode
	}
	return nil
}

func looksLikeGcode(r io.Reader) bool {
	sc := bufio.NewScanner(r)
	for i := 0; i < 10 && sc.Scan(); i++ {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" {
			continue
		}
		for _, p := range gcodePrefixes {
			if strings.HasPrefix(line, p) {
				return true
			}
		}
	}
	return false
}

// Progress is called as upload bytes go out the door.
type Progress func(uploaded, total int64)

type progressReader struct {
	r     io.Reader
	done  int64
	total int64
	fn    Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.done += int64(n)
	if p.fn != nil && n > 0 {
		p.fn(p.done, p.total)
	}
	return n, err
}

// Upload validates filePath and streams it to the firmware's upload
// endpoint as multipart form data. The multipart framing is built ahead
// of time so the request carries an exact Content-Length; the firmware
// does not accept chunked uploads.
func Upload(ctx context.Context, uploadURL, filePath string, fn Progress) error {
	if err := ValidateGcode(filePath); err != nil {
		return err
	}
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", filePath, err)
	}

	name := filepath.Base(filePath)
	head, contentType, err := multipartHead(name)
	if err != nil {
		return err
	}
	tail := "\r\n--" + uploadBoundary + "--\r\n"

	u, err := url.Parse(uploadURL)
	if err != nil {
		return fmt.Errorf("parse upload url: %w", err)
	}
	origin := u.Scheme + "://" + u.Host

	body := io.MultiReader(
		bytes.NewReader(head),
		&progressReader{r: f, total: info.Size(), fn: fn},
		strings.NewReader(tail),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = int64(len(head)) + info.Size() + int64(len(tail))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/")

	// No overall timeout: large files on slow printer WiFi take a while.
	resp, err := httpc.NewClient(0).Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrUploadRejected, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var reply struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		// The firmware occasionally answers 200 with a non-JSON body;
		// the upload still went through.
		log.Warn("upload response was not JSON", "body", strings.TrimSpace(string(raw)))
		return nil
	}
	if reply.Code != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrUploadRejected, strings.TrimSpace(string(raw)))
	}
	return nil
}

// multipartHead renders everything before the file bytes: the opening
// boundary and the part headers for a single "file" field.
func multipartHead(name string) (head []byte, contentType string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(uploadBoundary); err != nil {
		return nil, "", fmt.Errorf("set boundary: %w", err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", "text/x.gcode")
	if _, err := mw.CreatePart(h); err != nil {
		return nil, "", fmt.Errorf("build multipart head: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, `\"`)
