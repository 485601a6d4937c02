package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/printforge/go-k1/internal/config"
	"github.com/printforge/go-k1/internal/log"
	"github.com/printforge/go-k1/pkg/printer"
	"github.com/printforge/go-k1/pkg/tui"
	"github.com/printforge/go-k1/pkg/web"
)

// Set by the global -plain flag before dispatch.
var forcePlain bool

// cmdStatus shows live telemetry: the full dashboard on a terminal, a
// plain line stream when piped or asked for with -plain.
func cmdStatus(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	plain := fs.Bool("plain", false, "Print raw status lines instead of the dashboard")
	fs.Parse(args)

	c, err := printer.Dial(ctx, cfg.WSURL())
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.WSURL(), err)
	}
	defer c.Close()

	if *plain || forcePlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println("Connected. Listening for live status updates (Ctrl+C to stop)...")
		err := c.Stream(ctx, func(msg []byte) {
			fmt.Printf("Status: %s\n", msg)
		})
		if err == nil || errors.Is(err, context.Canceled) {
			fmt.Println("Stopped.")
			return nil
		}
		return err
	}

	if err := tui.Run(ctx, c); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// cmdWatch serves the status page and camera relay until interrupted.
func cmdWatch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	addr := fs.String("addr", cfg.Watch.Addr, "Listen address for the watch page")
	fs.Parse(args)

	c, err := dialPrinter(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := web.NewServer(*addr)

	go func() {
		if err := c.Stream(ctx, srv.UpdateStatus); err != nil && ctx.Err() == nil {
			log.Error("telemetry stream ended", "err", err)
		}
	}()
	go pollCamera(ctx, cfg, srv)
	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	fmt.Printf("Watching printer on http://%s\n", *addr)
	if err := srv.Start(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// pollCamera feeds snapshot frames to the web hub at the video cadence.
// Fetch failures are logged and skipped; the camera streamer stalls
// while the printer firmware is busy.
func pollCamera(ctx context.Context, cfg *config.Config, srv *web.Server) {
	ticker := time.NewTicker(cfg.Video.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		frame, err := printer.FetchSnapshot(ctx, cfg.SnapshotURL())
		if err != nil {
			log.Debug("camera poll failed", "err", err)
			continue
		}
		srv.PublishFrame(frame)
	}
}
