// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"context"
	"sync"

	"github.com/ik5/audconv/engine"
)

// Transcoder adapts the engine to engine.Transcoder.
func (e *Engine) Transcoder() engine.Transcoder {
	return transcoder{e: e}
}

type transcoder struct {
	e *Engine
}

func (t transcoder) Init(ctx context.Context, job engine.Job) (engine.Conversion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !job.Format.Valid() {
		return nil, engine.ErrUnsupportedFormat
	}

	return &conversion{e: t.e, job: job}, nil
}

type conversion struct {
	e   *Engine
	job engine.Job

	mu   sync.Mutex
	data []byte
	mime string
}

func (c *conversion) Execute(ctx context.Context, fn engine.ProgressFunc) error {
	data, mime, err := c.e.convert(ctx, c.job.Input, c.job.Format, ConvertOptions{
		CompressionLevel: c.job.Options.CompressionLevel,
		Quality:          c.job.Options.Quality,
	}, fn)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.data, c.mime = data, mime
	c.mu.Unlock()

	return nil
}

func (c *conversion) Output() ([]byte, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.data) == 0 {
		return nil, "", engine.ErrNoOutput
	}
	return c.data, c.mime, nil
}

func (c *conversion) Close() error {
	c.mu.Lock()
	c.data = nil
	c.mu.Unlock()

	return nil
}
