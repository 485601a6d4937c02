package main

import (
	"context"
	"flag"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/printforge/go-k1/internal/config"
	"github.com/printforge/go-k1/pkg/printer"
)

// cmdStart verifies the file is on the printer, counts down, then sends
// the print command. The countdown exists so a mispick can be aborted
// before the bed heats up.
func cmdStart(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	countdown := fs.Int("countdown", 1, "Minutes to wait before starting the print")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: k1 start [-countdown minutes] <file>")
	}
	file := fs.Arg(0)
	name := path.Base(file)

	// A bare name refers to the stock gcode directory; anything with a
	// slash is taken as a full path on the printer.
	remote := file
	if !strings.Contains(file, "/") {
		remote = path.Join(cfg.Printer.GcodeDir, file)
	}

	c, err := dialPrinter(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Checking if the file '%s' exists on the printer...\n", name)
	files, err := c.ListFiles(ctx)
	c.Close()
	if err != nil {
		return fmt.Errorf("could not retrieve the file list from the printer: %w", err)
	}
	if _, ok := printer.FindFile(files, name); !ok {
		return fmt.Errorf("the file '%s' does not exist on the printer; upload it and try again", name)
	}

	fmt.Printf("Starting print in %d minute(s)...\n", *countdown)
	if err := runCountdown(ctx, *countdown*60); err != nil {
		fmt.Println("\nAborted.")
		return nil
	}

	fmt.Println("\nCountdown finished. Sending print command...")
	return runCommand(ctx, cfg, printer.PrintFile(remote))
}

// runCountdown ticks down total seconds with a progress bar, returning
// early if ctx is canceled.
func runCountdown(ctx context.Context, total int) error {
	for remaining := total; remaining > 0; remaining-- {
		filled := (total - remaining) * 50 / total
		bar := strings.Repeat("█", filled) + strings.Repeat("░", 50-filled)
		fmt.Printf("\r%s %02d:%02d remaining...", bar, remaining/60, remaining%60)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return nil
}

func cmdPause(ctx context.Context, cfg *config.Config, args []string) error {
	flag.NewFlagSet("pause", flag.ExitOnError).Parse(args)
	return runCommand(ctx, cfg, printer.Pause())
}

func cmdResume(ctx context.Context, cfg *config.Config, args []string) error {
	flag.NewFlagSet("resume", flag.ExitOnError).Parse(args)
	return runCommand(ctx, cfg, printer.Resume())
}

func cmdStop(ctx context.Context, cfg *config.Config, args []string) error {
	flag.NewFlagSet("stop", flag.ExitOnError).Parse(args)
	return runCommand(ctx, cfg, printer.Stop())
}
