// Package web serves the browser watch mode: a live status and camera
// page backed by the same telemetry the terminal surfaces use.
package web

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/printforge/go-k1/internal/log"
	"github.com/printforge/go-k1/pkg/hub"
	"github.com/printforge/go-k1/pkg/printer"
)

// Server is the watch-mode web server. It holds the latest merged
// status and camera frame; the caller feeds both from the printer.
type Server struct {
	app  *fiber.App
	addr string

	status   printer.Status
	statusMu sync.RWMutex

	frame   []byte
	frameMu sync.RWMutex

	statusHub *hub.Hub
	cameraHub *hub.Hub
}

// NewServer wires routes and hubs for the watch page at addr.
func NewServer(addr string) *Server {
	s := &Server{
		addr:      addr,
		statusHub: hub.New("status", false),
		cameraHub: hub.New("camera", true),
	}

	app := fiber.New(fiber.Config{
		AppName:               "k1 watch",
		DisableStartupMessage: true,
	})

	// CORS for anyone embedding the endpoints elsewhere on the LAN
	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/snapshot", s.handleSnapshot)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start runs the hubs and blocks serving HTTP on the configured addr.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.cameraHub.Run()
	log.Info("watch server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// UpdateStatus merges one raw telemetry frame; clients only hear about
// it when something actually changed.
func (s *Server) UpdateStatus(raw []byte) {
	s.statusMu.Lock()
	changed := s.status.Apply(raw)
	snapshot := s.status
	s.statusMu.Unlock()

	if changed {
		if err := s.statusHub.BroadcastJSON(snapshot); err != nil {
			log.Warn("status broadcast failed", "err", err)
		}
	}
}

// Status returns a copy of the latest merged status.
func (s *Server) Status() printer.Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// PublishFrame stores the latest camera JPEG and pushes it to viewers.
func (s *Server) PublishFrame(jpeg []byte) {
	s.frameMu.Lock()
	s.frame = jpeg
	s.frameMu.Unlock()
	s.cameraHub.Broadcast(jpeg)
}

// Frame returns the latest camera JPEG, nil before the first fetch.
func (s *Server) Frame() []byte {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return s.frame
}
