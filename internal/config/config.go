// Package config provides the typed configuration for go-k1 commands.
// Precedence: built-in defaults < config file < environment < flags.
// The resolved struct is handed to the command dispatcher once at startup;
// nothing reads configuration globally after that.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Stock K1 firmware endpoints. These are fixed by the vendor image and
// are only overridable for ports because some community builds move the
// camera streamer.
const (
	DefaultWSPort     = 9999
	DefaultCameraPort = 8080
	DefaultGcodeDir   = "/usr/data/printer_data/gcodes"
)

// Config is the full configuration surface of the tool.
type Config struct {
	Printer struct {
		IP         string `yaml:"ip"`
		WSPort     int    `yaml:"ws_port"`
		CameraPort int    `yaml:"camera_port"`
		GcodeDir   string `yaml:"gcode_dir"`
	} `yaml:"printer"`

	Render struct {
		Mode    string `yaml:"mode"`    // "block" or "halfblock"
		Palette string `yaml:"palette"` // "auto", "truecolor" or "ansi256"
	} `yaml:"render"`

	Video struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"video"`

	Watch struct {
		Addr string `yaml:"addr"`
	} `yaml:"watch"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Printer.WSPort = DefaultWSPort
	cfg.Printer.CameraPort = DefaultCameraPort
	cfg.Printer.GcodeDir = DefaultGcodeDir
	cfg.Render.Mode = "halfblock"
	cfg.Render.Palette = "auto"
	cfg.Video.Interval = 500 * time.Millisecond
	cfg.Watch.Addr = "127.0.0.1:8090"
	cfg.LogLevel = "info"
	return cfg
}

// DefaultPath returns the default config file location
// (~/.config/k1/config.yaml), or "" if the user config dir is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "k1", "config.yaml")
}

// Load reads the config file at path (DefaultPath() when path is empty)
// on top of the defaults, then applies environment overrides.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// No config file is fine; flags or env must supply the IP.
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if ip := os.Getenv("K1_PRINTER_IP"); ip != "" {
		cfg.Printer.IP = ip
	}
	return cfg, nil
}

// Validate checks the resolved configuration. Called once after flag
// merging; commands can assume a valid config afterwards.
func (cfg *Config) Validate() error {
	if cfg.Printer.IP == "" {
		return fmt.Errorf("printer IP not set (use -printer, K1_PRINTER_IP, or the config file)")
	}
	if cfg.Printer.WSPort <= 0 || cfg.Printer.WSPort > 65535 {
		return fmt.Errorf("invalid ws_port %d", cfg.Printer.WSPort)
	}
	if cfg.Printer.CameraPort <= 0 || cfg.Printer.CameraPort > 65535 {
		return fmt.Errorf("invalid camera_port %d", cfg.Printer.CameraPort)
	}
	switch cfg.Render.Mode {
	case "block", "halfblock":
	default:
		return fmt.Errorf("invalid render mode %q (want block or halfblock)", cfg.Render.Mode)
	}
	switch cfg.Render.Palette {
	case "auto", "truecolor", "ansi256":
	default:
		return fmt.Errorf("invalid palette %q (want auto, truecolor or ansi256)", cfg.Render.Palette)
	}
	if cfg.Video.Interval <= 0 {
		return fmt.Errorf("video interval must be positive")
	}
	return nil
}

// WSURL returns the printer's WebSocket command endpoint.
func (cfg *Config) WSURL() string {
	return fmt.Sprintf("ws://%s:%d/websocket", cfg.Printer.IP, cfg.Printer.WSPort)
}

// SnapshotURL returns the camera snapshot endpoint.
func (cfg *Config) SnapshotURL() string {
	return fmt.Sprintf("http://%s:%d/?action=snapshot", cfg.Printer.IP, cfg.Printer.CameraPort)
}

// UploadURL returns the gcode upload endpoint for the given file name.
func (cfg *Config) UploadURL(name string) string {
	return fmt.Sprintf("http://%s/upload/%s", cfg.Printer.IP, name)
}

// BaseURL returns the printer's plain HTTP origin, used for
// browser-mimicking upload headers.
func (cfg *Config) BaseURL() string {
	return fmt.Sprintf("http://%s", cfg.Printer.IP)
}
