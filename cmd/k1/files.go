package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/printforge/go-k1/internal/config"
	"github.com/printforge/go-k1/pkg/printer"
)

// deletePacing is the gap between consecutive delete commands. The
// firmware drops deletes that arrive back to back.
const deletePacing = 300 * time.Millisecond

func cmdFiles(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("files", flag.ExitOnError)
	filter := fs.String("filter", "", "Only list files whose name contains this keyword")
	sortBy := fs.String("sort", "name", "Sort by name, size or time")
	fs.Parse(args)

	files, err := fetchFileList(ctx, cfg)
	if err != nil {
		return err
	}

	files = printer.FilterFiles(files, *filter)
	printer.SortFiles(files, *sortBy)
	if len(files) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}
	printFileTable(files)
	return nil
}

func cmdDelete(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	filter := fs.String("filter", "", "Only delete files whose name contains this keyword")
	larger := fs.Float64("larger", 0, "Only delete files larger than this size in MB")
	sortBy := fs.String("sort", "name", "Sort the listing by name, size or time")
	force := fs.Bool("force", false, "Delete without asking for confirmation")
	fs.Parse(args)

	if *filter == "" && *larger <= 0 {
		return fmt.Errorf("refusing to delete everything: give -filter or -larger")
	}

	c, err := dialPrinter(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Println("Requested file list, waiting for response...")
	files, err := c.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("no file list received within timeout: %w", err)
	}

	files = printer.FilterFiles(files, *filter)
	if *larger > 0 {
		files = printer.LargerThan(files, *larger)
	}
	printer.SortFiles(files, *sortBy)
	if len(files) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}
	printFileTable(files)

	if !*force {
		fmt.Print("\nDelete these files? [y/N]: ")
		reply, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.ToLower(strings.TrimSpace(reply)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\nDeleting files...")
	for _, f := range files {
		if err := c.Delete(f); err != nil {
			return fmt.Errorf("delete %s: %w", f.Name, err)
		}
		select {
		case <-ctx.Done():
			fmt.Println("Aborted.")
			return nil
		case <-time.After(deletePacing):
		}
	}
	fmt.Println("Done.")
	return nil
}

func cmdUpload(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: k1 upload <path>")
	}
	local := fs.Arg(0)
	name := filepath.Base(local)

	url := cfg.UploadURL(name)
	fmt.Printf("Uploading '%s' to %s...\n", name, url)
	err := printer.Upload(ctx, url, local, uploadBar)
	fmt.Println()
	if err != nil {
		return err
	}
	fmt.Println("Upload successful.")
	return nil
}

func fetchFileList(ctx context.Context, cfg *config.Config) ([]printer.GcodeFile, error) {
	c, err := dialPrinter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	fmt.Println("Requested file list, waiting for response...")
	files, err := c.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("no file list received within timeout: %w", err)
	}
	return files, nil
}

func printFileTable(files []printer.GcodeFile) {
	fmt.Print("\nMatching files:\n\n")
	fmt.Printf("%-20s   %-8s   Name\n", "Time", "Size")
	fmt.Printf("%s   %s   %s\n", strings.Repeat("-", 20), strings.Repeat("-", 8), strings.Repeat("-", 40))
	for _, f := range files {
		fmt.Printf("%s   %6.2f MB   %s\n", f.Modified.Format("2006-01-02 15:04:05"), f.SizeMB(), f.Name)
	}
	fmt.Println()
	fmt.Printf("Total size: %.2f MB\n", printer.TotalSizeMB(files))
}

// uploadBar redraws a 50 cell progress bar in place as bytes go out.
func uploadBar(uploaded, total int64) {
	if total <= 0 {
		return
	}
	filled := int(uploaded * 50 / total)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 50-filled)
	fmt.Printf("\r%s %3d%%", bar, uploaded*100/total)
}
