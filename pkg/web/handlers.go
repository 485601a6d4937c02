package web

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/printforge/go-k1/pkg/hub"
)

//go:embed index.html
var indexHTML string

// handleIndex serves the embedded watch page.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexHTML)
}

// handleStatus returns the latest merged telemetry.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return c.JSON(s.status)
}

// handleSnapshot returns the most recent camera frame.
func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	s.frameMu.RLock()
	frame := s.frame
	s.frameMu.RUnlock()
	if frame == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no camera frame yet")
	}
	// Browsers poll this URL; stale frames must not stick in cache.
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(frame)
}

// handleStatusWS streams merged status updates as JSON.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	viewer := hub.Join(s.statusHub, c)

	// Push the current picture so the page fills before the next
	// telemetry tick. The write pump has not started yet, so writing
	// directly is safe.
	s.statusMu.RLock()
	c.WriteJSON(s.status)
	s.statusMu.RUnlock()

	viewer.Run()
}

// handleCameraWS streams camera frames as binary messages.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	viewer := hub.Join(s.cameraHub, c)

	s.frameMu.RLock()
	frame := s.frame
	s.frameMu.RUnlock()
	if frame != nil {
		c.WriteMessage(websocket.BinaryMessage, frame)
	}

	viewer.Run()
}
