// SPDX-License-Identifier: EPL-2.0

// Command audconv converts audio files and serves the converter over HTTP.
//
// Usage:
//
//	audconv convert -to <format> [-o output] [-bitrate kbps] [-compression n] [-config file] [-plain] <input>
//	audconv serve [-config file]
//	audconv discover [-timeout 3s]
//	audconv formats
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ik5/audconv"
	"github.com/ik5/audconv/internal/config"
	"github.com/ik5/audconv/internal/logging"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "audconv"
	serviceVersion    = "1.0.0"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "audconv: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return errUsage
	}

	switch args[0] {
	case "convert":
		return runConvert(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	case "discover":
		return runDiscover(ctx, args[1:])
	case "formats":
		return runFormats(os.Stdout)
	case "version", "-version", "--version":
		fmt.Printf("%s %s\n", serviceName, serviceVersion)
		return nil
	case "help", "-h", "-help", "--help":
		usage()
		return nil
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
	usage()
	return errUsage
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: audconv <command> [flags]

Commands:
  convert   convert one file
  serve     run the HTTP and WebSocket API
  discover  list audconv services on the local network
  formats   list output formats
  version   print the version
`)
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { closer.Close() }, nil
}

// options maps the engine sections onto library options.
func options(cfg *config.Config, logger *slog.Logger) audconv.Options {
	conv := cfg.Conversion.Converter()
	conv.Logger = logger

	return audconv.Options{
		Logger:       logger,
		FFmpeg:       cfg.EngineB.FFmpeg,
		NativeFFmpeg: cfg.EngineA.FFmpeg,
		FFmpegURL:    cfg.EngineB.DownloadURL,
		CacheDir:     cfg.EngineB.CacheDir,
		ScratchDir:   cfg.EngineB.ScratchDir,
		Converter:    &conv,
	}
}
