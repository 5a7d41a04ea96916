// SPDX-License-Identifier: EPL-2.0

package cli_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ik5/audconv/engine"
	"github.com/ik5/audconv/engine/cli"
	"github.com/ik5/audconv/formats"
	"github.com/ik5/audconv/internal/audiotest"
)

// memFS keeps every session in one map keyed by session path.
type memFS struct {
	mu       sync.Mutex
	files    map[string][]byte
	sessions int
	closed   int
}

func newMemFS() *memFS { return &memFS{files: map[string][]byte{}} }

func (m *memFS) NewSession() (cli.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions++
	return &memSession{fs: m, prefix: fmt.Sprintf("mem%d/", m.sessions)}, nil
}

func (m *memFS) put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = data
}

func (m *memFS) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for k := range m.files {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

type memSession struct {
	fs     *memFS
	prefix string
}

func (s *memSession) Path(name string) string { return s.prefix + name }

func (s *memSession) WriteFile(name string, data []byte) error {
	s.fs.put(s.Path(name), data)
	return nil
}

func (s *memSession) ReadFile(name string) ([]byte, error) {
	s.fs.mu.Lock()
	defer s.fs.mu.Unlock()

	data, ok := s.fs.files[s.Path(name)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return data, nil
}

func (s *memSession) Remove(name string) error {
	s.fs.mu.Lock()
	defer s.fs.mu.Unlock()

	if _, ok := s.fs.files[s.Path(name)]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(s.fs.files, s.Path(name))
	return nil
}

func (s *memSession) Close() error {
	s.fs.mu.Lock()
	defer s.fs.mu.Unlock()

	s.fs.closed++
	return nil
}

// fakeRunner answers -version and simulates a conversion by writing the
// last argument into the memFS. With failAfterWrite the output is written
// before fail is returned.
type fakeRunner struct {
	fs             *memFS
	output         []byte
	progress       []string
	fail           error
	failAfterWrite bool
	versions       atomic.Int32

	mu   sync.Mutex
	args []string
}

func (r *fakeRunner) Run(_ context.Context, _ string, args []string, stdout, stderr func(string)) error {
	if slices.Contains(args, "-version") {
		r.versions.Add(1)
		stdout("ffmpeg version 6.1-test Copyright (c) 2000-2023")
		return nil
	}

	r.mu.Lock()
	r.args = args
	r.mu.Unlock()

	if stderr != nil {
		stderr("Input #0, wav, from 'input.wav':")
		stderr("  Duration: 00:00:02.00, start: 0.000000, bitrate: 1411 kb/s")
	}
	if r.fail != nil && !r.failAfterWrite {
		return r.fail
	}
	if stdout != nil {
		lines := r.progress
		if lines == nil {
			lines = []string{
				"out_time_us=500000", "progress=continue",
				"out_time_us=1000000", "progress=continue",
				"progress=end",
			}
		}
		for _, line := range lines {
			stdout(line)
		}
	}

	r.fs.put(args[len(args)-1], r.output)
	return r.fail
}

func (r *fakeRunner) lastArgs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.args
}

func newEngine(t *testing.T, runner *fakeRunner) *cli.Engine {
	t.Helper()

	bin := audiotest.FakeBinary(t, "ffmpeg", "exit 0")
	return cli.New(cli.Config{
		Loader: cli.Loader{Binary: bin},
		VFS:    runner.fs,
		Runner: runner,
	})
}

var wavFile = engine.File{Name: "song.wav", MIMEType: "audio/wav", Data: []byte("RIFF....WAVE")}

func TestConvert(t *testing.T) {
	t.Parallel()

	mem := newMemFS()
	runner := &fakeRunner{fs: mem, output: []byte("fLaC-data")}
	eng := newEngine(t, runner)

	var percents []int
	data, mime, err := eng.Convert(context.Background(), wavFile, formats.FLAC, cli.ConvertOptions{
		OnProgress: func(p int) { percents = append(percents, p) },
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if string(data) != "fLaC-data" || mime != "audio/flac" {
		t.Errorf("Convert() = %q, %q", data, mime)
	}
	if want := []int{25, 50, 100}; !slices.Equal(percents, want) {
		t.Errorf("progress = %v, want %v", percents, want)
	}

	args := runner.lastArgs()
	tail := args[slices.Index(args, "-i"):]
	want := []string{"-i", "mem1/input.wav", "-c:a", "flac", "-compression_level", "5", "mem1/output.flac"}
	if !slices.Equal(tail, want) {
		t.Errorf("args = %v, want suffix %v", args, want)
	}

	if names := mem.names(); len(names) != 0 {
		t.Errorf("scratch files left behind: %v", names)
	}
	if mem.closed != 1 {
		t.Errorf("sessions closed = %d, want 1", mem.closed)
	}
}

func TestConvert_CleansUpOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		afterOutput bool
	}{
		{"fails before writing", false},
		{"fails after writing output", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mem := newMemFS()
			runErr := &cli.RunError{ExitCode: 1, Output: "Unknown encoder", Err: errors.New("exit status 1")}
			eng := newEngine(t, &fakeRunner{
				fs:             mem,
				output:         []byte("OggS-partial"),
				fail:           runErr,
				failAfterWrite: tt.afterOutput,
			})

			var logs []string
			_, _, err := eng.Convert(context.Background(), wavFile, formats.OGG, cli.ConvertOptions{
				OnLog: func(line string) { logs = append(logs, line) },
			})
			if err != runErr {
				t.Fatalf("Convert() error = %v, want the runner error unmodified", err)
			}

			var re *cli.RunError
			if !errors.As(err, &re) || re.ExitCode != 1 {
				t.Errorf("errors.As(RunError) = %v", re)
			}
			if len(logs) != 2 {
				t.Errorf("OnLog received %d lines, want 2", len(logs))
			}
			if names := mem.names(); len(names) != 0 {
				t.Errorf("scratch files left behind: %v", names)
			}
		})
	}
}

func TestConvert_ProgressPassesThroughUnordered(t *testing.T) {
	t.Parallel()

	mem := newMemFS()
	eng := newEngine(t, &fakeRunner{
		fs:       mem,
		output:   []byte("fLaC-data"),
		progress: []string{"out_time_us=1500000", "out_time_us=500000", "out_time_us=3000000", "progress=end"},
	})

	var percents []int
	_, _, err := eng.Convert(context.Background(), wavFile, formats.FLAC, cli.ConvertOptions{
		OnProgress: func(p int) { percents = append(percents, p) },
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if want := []int{75, 25, 100, 100}; !slices.Equal(percents, want) {
		t.Errorf("progress = %v, want %v", percents, want)
	}
}

func TestConvert_MissingOutput(t *testing.T) {
	t.Parallel()

	mem := newMemFS()
	runner := &fakeRunner{fs: mem}
	eng := cli.New(cli.Config{
		Loader: cli.Loader{Binary: audiotest.FakeBinary(t, "ffmpeg", "exit 0")},
		VFS:    mem,
		Runner: runnerFunc(func(ctx context.Context, bin string, args []string, stdout, stderr func(string)) error {
			if slices.Contains(args, "-version") {
				return runner.Run(ctx, bin, args, stdout, stderr)
			}
			return nil
		}),
	})

	_, _, err := eng.Convert(context.Background(), wavFile, formats.OGG, cli.ConvertOptions{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Convert() error = %v, want fs.ErrNotExist", err)
	}
	if names := mem.names(); len(names) != 0 {
		t.Errorf("scratch files left behind: %v", names)
	}
}

type runnerFunc func(ctx context.Context, bin string, args []string, stdout, stderr func(string)) error

func (f runnerFunc) Run(ctx context.Context, bin string, args []string, stdout, stderr func(string)) error {
	return f(ctx, bin, args, stdout, stderr)
}

func TestLoad_Once(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fs: newMemFS(), output: []byte("x")}
	eng := newEngine(t, runner)

	if eng.Loaded() {
		t.Fatal("Loaded() = true before Load")
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := eng.Load(context.Background()); err != nil {
				t.Errorf("Load() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if _, _, err := eng.Convert(context.Background(), wavFile, formats.OGG, cli.ConvertOptions{}); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if n := runner.versions.Load(); n != 1 {
		t.Errorf("binary verified %d times, want 1", n)
	}
	if !strings.HasPrefix(eng.Version(), "ffmpeg version 6.1") {
		t.Errorf("Version() = %q", eng.Version())
	}
}

func TestLoad_FailureIsReturned(t *testing.T) {
	t.Parallel()

	eng := cli.New(cli.Config{
		Loader: cli.Loader{Binary: filepath.Join(t.TempDir(), "missing")},
		VFS:    newMemFS(),
	})

	if err := eng.Load(context.Background()); !errors.Is(err, cli.ErrNoBinary) {
		t.Errorf("Load() error = %v, want ErrNoBinary", err)
	}
	if eng.Loaded() {
		t.Error("Loaded() = true after a failed load")
	}

	_, _, err := eng.Convert(context.Background(), wavFile, formats.FLAC, cli.ConvertOptions{})
	if !errors.Is(err, cli.ErrNoBinary) {
		t.Errorf("Convert() error = %v, want ErrNoBinary", err)
	}
}

func TestLoad_RejectsWrongBinary(t *testing.T) {
	t.Parallel()

	eng := cli.New(cli.Config{
		Loader: cli.Loader{Binary: audiotest.FakeBinary(t, "ffmpeg", "echo hello")},
	})

	if err := eng.Load(context.Background()); !errors.Is(err, cli.ErrVerify) {
		t.Errorf("Load() error = %v, want ErrVerify", err)
	}
}

func TestArgs(t *testing.T) {
	t.Parallel()

	level := 8
	quality := 6.5

	tests := []struct {
		format formats.Format
		opts   cli.ConvertOptions
		want   string
	}{
		{formats.FLAC, cli.ConvertOptions{}, "-i in.mp3 -c:a flac -compression_level 5 out.flac"},
		{formats.FLAC, cli.ConvertOptions{CompressionLevel: &level}, "-i in.mp3 -c:a flac -compression_level 8 out.flac"},
		{formats.OGG, cli.ConvertOptions{}, "-i in.mp3 -c:a libvorbis -q:a 4 out.flac"},
		{formats.OGG, cli.ConvertOptions{Quality: &quality}, "-i in.mp3 -c:a libvorbis -q:a 6.5 out.flac"},
		{formats.MP3, cli.ConvertOptions{}, "-i in.mp3 out.flac"},
	}

	for _, tt := range tests {
		got := strings.Join(cli.Args("in.mp3", "out.flac", tt.format, tt.opts), " ")
		if got != tt.want {
			t.Errorf("Args(%s) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestInputExtensionAndMIMEType(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]string{
		"song.wav":    ".wav",
		"a.b.MP3":     ".MP3",
		"noext":       "",
		"":            "",
		"dir/x.flac":  ".flac",
		"trailing.":   ".",
		"archive.tar": ".tar",
	} {
		if got := cli.InputExtension(name); got != want {
			t.Errorf("InputExtension(%q) = %q, want %q", name, got, want)
		}
	}

	if cli.MIMEType(formats.FLAC) != "audio/flac" || cli.MIMEType(formats.OGG) != "audio/ogg" {
		t.Error("unexpected MIME mapping")
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want time.Duration
		ok   bool
	}{
		{"  Duration: 00:01:02.50, start: 0.000000, bitrate: 128 kb/s", 62*time.Second + 500*time.Millisecond, true},
		{"Duration: 01:00:00.00", time.Hour, true},
		{"  Duration: N/A, bitrate: N/A", 0, false},
		{"Stream #0:0: Audio: pcm_s16le", 0, false},
	}

	for _, tt := range tests {
		got, ok := cli.ParseDuration(tt.line)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDuration(%q) = %v, %v; want %v, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTranscoder(t *testing.T) {
	t.Parallel()

	mem := newMemFS()
	eng := newEngine(t, &fakeRunner{fs: mem, output: []byte("OggS-data")})

	conv, err := eng.Transcoder().Init(context.Background(), engine.Job{Input: wavFile, Format: formats.OGG})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer conv.Close()

	if _, _, err := conv.Output(); !errors.Is(err, engine.ErrNoOutput) {
		t.Errorf("Output() before Execute error = %v", err)
	}

	var last float64
	if err := conv.Execute(context.Background(), func(r float64) { last = r }); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if last != 1 {
		t.Errorf("last progress = %v, want 1", last)
	}

	data, mime, err := conv.Output()
	if err != nil || string(data) != "OggS-data" || mime != "audio/ogg" {
		t.Errorf("Output() = %q, %q, %v", data, mime, err)
	}
}

func TestDirFS(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := cli.DirFS{Root: root}.NewSession()
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	if err := s.WriteFile("input.wav", []byte("abc")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if !strings.HasPrefix(s.Path("input.wav"), root) {
		t.Errorf("Path() = %q, want under %q", s.Path("input.wav"), root)
	}
	if got, err := s.ReadFile("input.wav"); err != nil || string(got) != "abc" {
		t.Errorf("ReadFile() = %q, %v", got, err)
	}
	if err := s.Remove("output.ogg"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Remove(missing) error = %v, want fs.ErrNotExist", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil || len(entries) != 0 {
		t.Errorf("root after Close: %v, %v", entries, err)
	}
}

func TestExecRunner(t *testing.T) {
	t.Parallel()

	bin := audiotest.FakeBinary(t, "ffmpeg", `echo "ffmpeg version test"
echo "  Duration: 00:00:01.00" >&2
echo "boom" >&2
exit 3`)

	var out, errLines []string
	err := cli.ExecRunner{}.Run(context.Background(), bin, nil,
		func(l string) { out = append(out, l) },
		func(l string) { errLines = append(errLines, l) })

	var re *cli.RunError
	if !errors.As(err, &re) {
		t.Fatalf("Run() error = %v, want *RunError", err)
	}
	if re.ExitCode != 3 || !strings.Contains(re.Output, "boom") {
		t.Errorf("RunError = %+v", re)
	}
	if len(out) != 1 || len(errLines) != 2 {
		t.Errorf("stdout %v, stderr %v", out, errLines)
	}
}
