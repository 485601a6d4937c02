package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Printer.WSPort != 9999 {
		t.Errorf("ws_port = %d, want 9999", cfg.Printer.WSPort)
	}
	if cfg.Printer.CameraPort != 8080 {
		t.Errorf("camera_port = %d, want 8080", cfg.Printer.CameraPort)
	}
	if cfg.Printer.GcodeDir != "/usr/data/printer_data/gcodes" {
		t.Errorf("gcode_dir = %q, want the stock firmware path", cfg.Printer.GcodeDir)
	}
	if cfg.Render.Mode != "halfblock" {
		t.Errorf("render mode = %q, want halfblock", cfg.Render.Mode)
	}
	if cfg.Render.Palette != "auto" {
		t.Errorf("palette = %q, want auto", cfg.Render.Palette)
	}
	if cfg.Video.Interval != 500*time.Millisecond {
		t.Errorf("video interval = %v, want 500ms", cfg.Video.Interval)
	}
	if cfg.Printer.IP != "" {
		t.Errorf("printer IP = %q, want unset by default", cfg.Printer.IP)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "printer:\n  ip: 192.168.1.50\n  camera_port: 8081\nrender:\n  mode: block\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Printer.IP != "192.168.1.50" {
		t.Errorf("ip = %q, want 192.168.1.50", cfg.Printer.IP)
	}
	if cfg.Printer.CameraPort != 8081 {
		t.Errorf("camera_port = %d, want file override 8081", cfg.Printer.CameraPort)
	}
	if cfg.Printer.WSPort != 9999 {
		t.Errorf("ws_port = %d, want default kept", cfg.Printer.WSPort)
	}
	if cfg.Render.Mode != "block" {
		t.Errorf("mode = %q, want block", cfg.Render.Mode)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("printer:\n  ip: 10.0.0.1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("K1_PRINTER_IP", "10.0.0.2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Printer.IP != "10.0.0.2" {
		t.Errorf("ip = %q, want env override 10.0.0.2", cfg.Printer.IP)
	}
}

func TestLoadMissingFile(t *testing.T) {
	// A missing default config is fine; a missing explicit one is not.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("K1_PRINTER_IP", "")

	if _, err := Load(""); err != nil {
		t.Errorf("Load(\"\") with no config file: error = %v, want nil", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() with explicit missing file: want error")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("printer: [not\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("Load() malformed = %v, want parse error", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Printer.IP = "192.168.1.50"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing ip", func(c *Config) { c.Printer.IP = "" }, true},
		{"bad ws port", func(c *Config) { c.Printer.WSPort = 0 }, true},
		{"bad camera port", func(c *Config) { c.Printer.CameraPort = 70000 }, true},
		{"bad mode", func(c *Config) { c.Render.Mode = "ascii" }, true},
		{"bad palette", func(c *Config) { c.Render.Palette = "cga" }, true},
		{"bad interval", func(c *Config) { c.Video.Interval = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestURLBuilders(t *testing.T) {
	cfg := Default()
	cfg.Printer.IP = "192.168.1.50"

	if got, want := cfg.WSURL(), "ws://192.168.1.50:9999/websocket"; got != want {
		t.Errorf("WSURL() = %q, want %q", got, want)
	}
	if got, want := cfg.SnapshotURL(), "http://192.168.1.50:8080/?action=snapshot"; got != want {
		t.Errorf("SnapshotURL() = %q, want %q", got, want)
	}
	if got, want := cfg.UploadURL("benchy.gcode"), "http://192.168.1.50/upload/benchy.gcode"; got != want {
		t.Errorf("UploadURL() = %q, want %q", got, want)
	}
}
