// loglens tails log files and directories, incrementally parsing appended
// content into structured records. Sources come from the config file; parsed
// records are printed to stdout as they arrive.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/setevik/loglens/internal/config"
	"github.com/setevik/loglens/internal/engine"
	"github.com/setevik/loglens/internal/ledger"
	"github.com/setevik/loglens/internal/parser"
	"github.com/setevik/loglens/internal/sink"
	"github.com/setevik/loglens/internal/source"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "parse":
			runParse(os.Args[2:])
			return
		case "version":
			fmt.Println("loglens", version)
			return
		}
	}

	// Default: run the tailing daemon.
	runDaemon(os.Args[1:])
}

func runDaemon(args []string) {
	fs := flag.NewFlagSet("loglens", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Parse(args)

	if *showVersion {
		fmt.Println("loglens", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Log.Level)

	slog.Info("loglens starting", "version", version, "sources", len(cfg.Sources))

	if err := run(cfg); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	led, err := ledger.Open()
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer led.Close()

	eng, err := engine.New(led, sink.NewConsole(os.Stdout))
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer eng.Close()

	for _, sc := range cfg.Sources {
		src, err := addSource(eng, sc)
		if err != nil {
			slog.Error("failed to add source", "path", sc.Path, "error", err)
			continue
		}

		entries, err := eng.ReadInitialContent(src.ID, cfg.Engine.MaxInitialLines)
		if err != nil {
			slog.Warn("failed to read initial content", "id", src.ID, "error", err)
			continue
		}
		for _, e := range entries {
			fmt.Print(sink.FormatEntry(e))
		}
	}

	if len(eng.Sources()) == 0 {
		return fmt.Errorf("no sources available; check the [[source]] blocks in the config")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- eng.Run(ctx)
	}()

	slog.Info("tailing started")

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

func addSource(eng *engine.Engine, sc config.SourceConfig) (*source.Source, error) {
	if sc.Pattern != "" {
		return eng.AddFolder(sc.Path, sc.Pattern, sc.Name)
	}
	return eng.AddFile(sc.Path, sc.Name)
}

// --- parse subcommand ---

// runParse parses a log file once with the multiline algorithm and prints
// the records, without watching anything.
func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	maxLines := fs.Int("max-lines", 0, "only parse the last N lines (0 = all)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: loglens parse [-max-lines N] <file>")
		os.Exit(2)
	}
	path := fs.Arg(0)

	setupLogging("error") // quiet for CLI output

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	var lines []parser.Line
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var n uint64
	for scanner.Scan() {
		n++
		lines = append(lines, parser.Line{Number: n, Text: scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	if *maxLines > 0 && len(lines) > *maxLines {
		lines = lines[len(lines)-*maxLines:]
	}

	entries := parser.Default().ParseBatch(lines)
	for _, e := range entries {
		fmt.Print(sink.FormatEntry(e))
	}
	fmt.Printf("Total: %d record(s) from %d line(s)\n", len(entries), len(lines))
}

// --- utilities ---

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
