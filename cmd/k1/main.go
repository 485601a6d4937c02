// k1 is a command line tool for the Creality K1 family of printers.
// It speaks the stock firmware's WebSocket protocol directly; no root,
// no custom firmware, no cloud account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/printforge/go-k1/internal/config"
	"github.com/printforge/go-k1/internal/log"
	"github.com/printforge/go-k1/pkg/printer"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional and never overrides the real environment.
	_ = godotenv.Load()

	flag.Usage = printUsage
	printerIP := flag.String("printer", "", "Printer IP address (overrides config and K1_PRINTER_IP)")
	configPath := flag.String("config", "", "Config file path (default ~/.config/k1/config.yaml)")
	logLevel := flag.String("log", "", "Log level: debug, info, warn or error")
	plain := flag.Bool("plain", false, "Never take over the screen (status falls back to the line stream)")
	flag.Parse()
	forcePlain = *plain

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}
	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "version":
		fmt.Printf("k1 %s\n", version)
		return
	case "help":
		printUsage()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *printerIP != "" {
		cfg.Printer.IP = *printerIP
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	log.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Debug("interrupt received, shutting down")
		cancel()
	}()

	if err := dispatch(ctx, cfg, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, cfg *config.Config, command string, args []string) error {
	switch command {
	case "start":
		return cmdStart(ctx, cfg, args)
	case "pause":
		return cmdPause(ctx, cfg, args)
	case "resume":
		return cmdResume(ctx, cfg, args)
	case "stop":
		return cmdStop(ctx, cfg, args)
	case "files":
		return cmdFiles(ctx, cfg, args)
	case "delete":
		return cmdDelete(ctx, cfg, args)
	case "upload":
		return cmdUpload(ctx, cfg, args)
	case "status":
		return cmdStatus(ctx, cfg, args)
	case "photo":
		return cmdPhoto(ctx, cfg, args)
	case "video":
		return cmdVideo(ctx, cfg, args)
	case "watch":
		return cmdWatch(ctx, cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
		return nil
	}
}

func printUsage() {
	fmt.Println("k1 - control a Creality K1 printer from the terminal")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  k1 [flags] <command> [command flags] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  start <file>     Start printing a gcode file already on the printer")
	fmt.Println("  pause            Pause the running print")
	fmt.Println("  resume           Resume a paused print")
	fmt.Println("  stop             Stop the running print")
	fmt.Println("  files            List gcode files stored on the printer")
	fmt.Println("  delete           Delete gcode files from the printer")
	fmt.Println("  upload <path>    Upload a local gcode file to the printer")
	fmt.Println("  status           Show live printer status")
	fmt.Println("  photo            Render one camera frame in the terminal")
	fmt.Println("  video            Render the camera feed in the terminal")
	fmt.Println("  watch            Serve status and camera on a local web page")
	fmt.Println("  version          Print the version")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -printer <ip>    Printer IP (or K1_PRINTER_IP, or the config file)")
	fmt.Println("  -config <path>   Config file (default ~/.config/k1/config.yaml)")
	fmt.Println("  -log <level>     Log level: debug, info, warn or error")
	fmt.Println("  -plain           Never take over the screen")
	fmt.Println()
	fmt.Println("Run 'k1 <command> -h' for command flags.")
}

// dialPrinter opens the command socket and prints the connect banner the
// other commands share.
func dialPrinter(ctx context.Context, cfg *config.Config) (*printer.Client, error) {
	c, err := printer.Dial(ctx, cfg.WSURL())
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.WSURL(), err)
	}
	fmt.Println("Connected to printer.")
	return c, nil
}

// runCommand dials, sends one control command, and reports whatever the
// firmware says back. Silence is normal for some firmware builds.
func runCommand(ctx context.Context, cfg *config.Config, cmd printer.Command) error {
	c, err := dialPrinter(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Println("Sending command...")
	reply, err := c.Exec(cmd)
	if err != nil {
		return err
	}
	if reply == nil {
		fmt.Println("No response received.")
		return nil
	}
	fmt.Printf("Response: %s\n", reply)
	return nil
}
