// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"context"
	"sync"

	"github.com/ik5/audconv/engine"
)

// FakeTranscoder is a scripted engine.Transcoder. Each Init records the job
// and returns a conversion that replays Ratios, then fails with ExecErr or
// leaves Output.
type FakeTranscoder struct {
	Output  []byte
	MIME    string
	Ratios  []float64
	Tags    engine.Tags
	InitErr error
	ExecErr error
	// Block makes Execute wait for ctx to end.
	Block bool

	mu     sync.Mutex
	jobs   []engine.Job
	closed int
}

func (f *FakeTranscoder) Init(ctx context.Context, job engine.Job) (engine.Conversion, error) {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()

	if f.InitErr != nil {
		return nil, f.InitErr
	}
	return &fakeConversion{f: f}, nil
}

// Jobs returns the jobs passed to Init so far.
func (f *FakeTranscoder) Jobs() []engine.Job {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]engine.Job(nil), f.jobs...)
}

// Closed counts Close calls on the conversions handed out.
func (f *FakeTranscoder) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

type fakeConversion struct {
	f    *FakeTranscoder
	done bool
}

func (c *fakeConversion) Execute(ctx context.Context, fn engine.ProgressFunc) error {
	for _, r := range c.f.Ratios {
		if fn != nil {
			fn(r)
		}
	}
	if c.f.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	if c.f.ExecErr != nil {
		return c.f.ExecErr
	}
	c.done = true
	return nil
}

func (c *fakeConversion) Output() ([]byte, string, error) {
	if !c.done || len(c.f.Output) == 0 {
		return nil, "", engine.ErrNoOutput
	}
	return c.f.Output, c.f.MIME, nil
}

func (c *fakeConversion) Tags() engine.Tags { return c.f.Tags }

func (c *fakeConversion) Close() error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()

	c.f.closed++
	return nil
}
