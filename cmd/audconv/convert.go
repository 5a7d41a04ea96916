// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/ik5/audconv"
	"github.com/ik5/audconv/convert"
	"github.com/ik5/audconv/formats"
	"github.com/ik5/audconv/internal/ui"
)

func runConvert(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	to := fs.String("to", "", "output format: "+formatList())
	out := fs.String("o", "", "output file (default <input>_converted.<ext> next to the input)")
	bitrate := fs.Int("bitrate", 0, "bitrate in kbps for lossy formats")
	compression := fs.Int("compression", -1, "FLAC compression level 0-12")
	configPath := fs.String("config", "", "path to configuration file")
	plain := fs.Bool("plain", false, "print progress lines instead of the interactive view")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 || *to == "" {
		fs.Usage()
		return errUsage
	}
	input := fs.Arg(0)

	format, err := formats.ParseFormat(*to)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	conv, err := audconv.New(options(cfg, logger))
	if err != nil {
		return err
	}

	quality := convert.Quality{Bitrate: *bitrate}
	if *compression >= 0 {
		quality.CompressionLevel = compression
	}

	do := func(ctx context.Context, sink convert.ProgressSink) (*convert.Result, error) {
		return audconv.ConvertFileWith(ctx, conv, input, format, quality, sink)
	}

	var res *convert.Result
	if *plain || !isatty.IsTerminal(os.Stdout.Fd()) {
		res, err = do(ctx, ui.PlainSink(os.Stdout))
	} else {
		res, err = ui.Run(ctx, ui.Job{
			Input:   filepath.Base(input),
			Format:  format.String(),
			Backend: conv.Backend(format).String(),
		}, do)
	}
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		return err
	}

	dest := *out
	if dest == "" {
		dest = filepath.Join(filepath.Dir(input), res.Filename)
	}
	if err := os.WriteFile(dest, res.Data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	logger.Info("conversion finished",
		"id", res.ID,
		"output", dest,
		"bytes", len(res.Data),
		"backend", res.Backend,
		"normalized", res.Normalized,
	)
	return nil
}
