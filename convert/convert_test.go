// SPDX-License-Identifier: EPL-2.0

package convert_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ik5/audconv/convert"
	"github.com/ik5/audconv/engine"
	"github.com/ik5/audconv/engine/native"
	"github.com/ik5/audconv/formats"
	"github.com/ik5/audconv/formats/wav"
	"github.com/ik5/audconv/internal/audiotest"
)

type recorder struct {
	mu       sync.Mutex
	started  int
	outcomes []convert.Outcome
}

func (r *recorder) Started(formats.Format, formats.Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recorder) Finished(o convert.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func newConverter(t *testing.T, a, b engine.Transcoder, rec convert.Recorder) *convert.Converter {
	t.Helper()

	cfg := convert.DefaultConfig()
	cfg.Metrics = rec

	engines := map[formats.Backend]engine.Transcoder{}
	if a != nil {
		engines[formats.EngineA] = a
	}
	if b != nil {
		engines[formats.EngineB] = b
	}

	c, err := convert.New(cfg, engines)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func mp3Request(format formats.Format) convert.Request {
	return convert.Request{
		File:   engine.File{Name: "song.mp3", MIMEType: "audio/mpeg", Data: []byte("ID3-fake")},
		Format: format,
	}
}

func collect(events *[]convert.Progress) convert.ProgressSink {
	return func(p convert.Progress) { *events = append(*events, p) }
}

func percents(events []convert.Progress) []int {
	out := make([]int, len(events))
	for i, e := range events {
		out[i] = e.Progress
	}
	return out
}

func TestConvert_EngineA(t *testing.T) {
	t.Parallel()

	a := &audiotest.FakeTranscoder{Output: []byte("WAVDATA"), MIME: "audio/wav", Ratios: []float64{0, 0.307, 0.5, 1}, Tags: engine.Tags{Title: "Song"}}
	b := &audiotest.FakeTranscoder{}
	rec := &recorder{}
	c := newConverter(t, a, b, rec)

	var events []convert.Progress
	res, err := c.Convert(context.Background(), mp3Request(formats.WAV), collect(&events))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if string(res.Data) != "WAVDATA" || res.MIMEType != "audio/wav" || res.Filename != "song_converted.wav" {
		t.Errorf("Result = %+v", res)
	}
	if res.Backend != formats.EngineA || res.Normalized || res.ID == "" || res.Tags.Title != "Song" {
		t.Errorf("Result = %+v", res)
	}

	if got, want := percents(events), []int{0, 20, 30, 0, 31, 50, 100, 100}; !slices.Equal(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
	if events[0].Message != convert.MessagePreparing || events[len(events)-1].Message != convert.MessageComplete {
		t.Errorf("messages = %q ... %q", events[0].Message, events[len(events)-1].Message)
	}

	if len(b.Jobs()) != 0 {
		t.Error("engine B should not be used for wav")
	}
	if a.Closed() != 1 {
		t.Errorf("conversions closed = %d, want 1", a.Closed())
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].State != convert.Succeeded || rec.outcomes[0].OutputBytes != 7 {
		t.Errorf("outcomes = %+v", rec.outcomes)
	}
}

func TestConvert_QualityDefaults(t *testing.T) {
	t.Parallel()

	level := 9
	tests := []struct {
		format  formats.Format
		quality convert.Quality
		backend formats.Backend
		check   func(t *testing.T, o engine.Options)
	}{
		{formats.MP3, convert.Quality{}, formats.EngineA, func(t *testing.T, o engine.Options) {
			if o.Bitrate != 320000 {
				t.Errorf("mp3 bitrate = %d", o.Bitrate)
			}
		}},
		{formats.MP3, convert.Quality{Bitrate: 128}, formats.EngineA, func(t *testing.T, o engine.Options) {
			if o.Bitrate != 128000 {
				t.Errorf("mp3 bitrate = %d", o.Bitrate)
			}
		}},
		{formats.M4A, convert.Quality{}, formats.EngineA, func(t *testing.T, o engine.Options) {
			if o.Bitrate != 192000 {
				t.Errorf("m4a bitrate = %d", o.Bitrate)
			}
		}},
		{formats.FLAC, convert.Quality{Bitrate: 128}, formats.EngineB, func(t *testing.T, o engine.Options) {
			if o.Bitrate != 0 || o.CompressionLevel == nil || *o.CompressionLevel != 5 {
				t.Errorf("flac options = %+v", o)
			}
		}},
		{formats.FLAC, convert.Quality{CompressionLevel: &level}, formats.EngineB, func(t *testing.T, o engine.Options) {
			if *o.CompressionLevel != 9 {
				t.Errorf("flac level = %d", *o.CompressionLevel)
			}
		}},
		{formats.OGG, convert.Quality{}, formats.EngineB, func(t *testing.T, o engine.Options) {
			if o.Quality == nil || *o.Quality != 4 {
				t.Errorf("ogg options = %+v", o)
			}
		}},
	}

	for _, tt := range tests {
		a := &audiotest.FakeTranscoder{Output: []byte("x")}
		b := &audiotest.FakeTranscoder{Output: []byte("x")}
		c := newConverter(t, a, b, nil)

		req := mp3Request(tt.format)
		req.Quality = tt.quality
		if _, err := c.Convert(context.Background(), req, nil); err != nil {
			t.Fatalf("Convert(%s) error = %v", tt.format, err)
		}

		used := a
		if tt.backend == formats.EngineB {
			used = b
		}
		jobs := used.Jobs()
		if len(jobs) != 1 {
			t.Fatalf("%s: %d jobs on %s", tt.format, len(jobs), tt.backend)
		}
		tt.check(t, jobs[0].Options)
	}
}

func TestConvert_Normalizes(t *testing.T) {
	t.Parallel()

	a := &audiotest.FakeTranscoder{Output: []byte("RIFF-normalized"), Tags: engine.Tags{Artist: "Band"}}
	b := &audiotest.FakeTranscoder{Output: []byte("OggS")}
	c := newConverter(t, a, b, nil)

	req := convert.Request{
		File:   engine.File{Name: "track.WMA", MIMEType: "audio/x-ms-wma", Data: []byte("wma")},
		Format: formats.OGG,
	}

	var events []convert.Progress
	res, err := c.Convert(context.Background(), req, collect(&events))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if !res.Normalized || res.Tags.Artist != "Band" || res.Filename != "track_converted.ogg" || res.MIMEType != "audio/ogg" {
		t.Errorf("Result = %+v", res)
	}

	norm := a.Jobs()
	if len(norm) != 1 {
		t.Fatalf("normalization jobs = %d", len(norm))
	}
	o := norm[0].Options
	if norm[0].Format != formats.WAV || !o.ForceTranscode || o.Codec != "pcm-s16" || o.SampleRate != 44100 || o.Channels != 2 {
		t.Errorf("normalization job = %+v", norm[0])
	}

	jobs := b.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("engine B jobs = %d", len(jobs))
	}
	in := jobs[0].Input
	if in.Name != "track.wav" || in.MIMEType != "audio/wav" || string(in.Data) != "RIFF-normalized" {
		t.Errorf("engine B input = %+v", in)
	}

	if events[1].State != convert.Normalizing || events[1].Progress != 10 || events[1].Message != convert.MessageLoading {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestConvert_Validation(t *testing.T) {
	t.Parallel()

	level := 13
	tests := []struct {
		name string
		req  convert.Request
		want error
	}{
		{"unknown format", convert.Request{File: engine.File{Data: []byte("x")}, Format: "opus"}, formats.ErrUnknownFormat},
		{"empty", convert.Request{File: engine.File{Name: "a.mp3"}, Format: formats.WAV}, convert.ErrEmptyInput},
		{"not audio", convert.Request{File: engine.File{MIMEType: "image/png", Data: []byte("x")}, Format: formats.WAV}, convert.ErrUnsupportedType},
		{"bitrate", convert.Request{File: engine.File{Data: []byte("x")}, Format: formats.MP3, Quality: convert.Quality{Bitrate: -1}}, convert.ErrQuality},
		{"mp3 bitrate off table", convert.Request{File: engine.File{Data: []byte("x")}, Format: formats.MP3, Quality: convert.Quality{Bitrate: 100}}, convert.ErrQuality},
		{"compression", convert.Request{File: engine.File{Data: []byte("x")}, Format: formats.FLAC, Quality: convert.Quality{CompressionLevel: &level}}, convert.ErrQuality},
	}

	for _, tt := range tests {
		a := &audiotest.FakeTranscoder{Output: []byte("x")}
		c := newConverter(t, a, a, nil)

		res, err := c.Convert(context.Background(), tt.req, nil)
		if res != nil || !errors.Is(err, convert.ErrValidation) || !errors.Is(err, tt.want) {
			t.Errorf("%s: Convert() = %v, %v", tt.name, res, err)
		}
		var ce *convert.ConversionError
		if errors.As(err, &ce) {
			t.Errorf("%s: validation error wrapped as conversion error", tt.name)
		}
		if len(a.Jobs()) != 0 {
			t.Errorf("%s: engine was called", tt.name)
		}
	}
}

func TestConvert_InputTooLarge(t *testing.T) {
	t.Parallel()

	cfg := convert.DefaultConfig()
	cfg.MaxInputSize = 4
	c, err := convert.New(cfg, map[formats.Backend]engine.Transcoder{formats.EngineA: &audiotest.FakeTranscoder{}})
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Convert(context.Background(), convert.Request{File: engine.File{Data: []byte("12345")}, Format: formats.WAV}, nil)
	if !errors.Is(err, convert.ErrInputTooLarge) {
		t.Errorf("Convert() error = %v, want ErrInputTooLarge", err)
	}
}

func TestConvert_EngineAFailureIsWrapped(t *testing.T) {
	t.Parallel()

	cause := errors.New("decoder exploded")

	tests := []struct {
		name   string
		engine *audiotest.FakeTranscoder
		stage  convert.State
		msg    string
	}{
		{"init", &audiotest.FakeTranscoder{InitErr: cause}, convert.Configuring, "Audio conversion failed: decoder exploded"},
		{"execute", &audiotest.FakeTranscoder{ExecErr: cause}, convert.Executing, "Audio conversion failed: decoder exploded"},
		{"no message", &audiotest.FakeTranscoder{ExecErr: errors.New("")}, convert.Executing, "Audio conversion failed: Unknown error"},
	}

	for _, tt := range tests {
		rec := &recorder{}
		c := newConverter(t, tt.engine, nil, rec)

		var events []convert.Progress
		res, err := c.Convert(context.Background(), mp3Request(formats.MP3), collect(&events))
		if res != nil {
			t.Errorf("%s: partial result returned", tt.name)
		}

		var ce *convert.ConversionError
		if !errors.As(err, &ce) {
			t.Fatalf("%s: Convert() error = %v, want *ConversionError", tt.name, err)
		}
		if ce.Stage != tt.stage || err.Error() != tt.msg {
			t.Errorf("%s: stage %s, message %q", tt.name, ce.Stage, err.Error())
		}
		if tt.name != "no message" && !errors.Is(err, cause) {
			t.Errorf("%s: cause not unwrapped", tt.name)
		}
		if slices.Contains(percents(events), 100) {
			t.Errorf("%s: completion reported on failure", tt.name)
		}
		if o := rec.outcomes[0]; o.State != convert.Failed || o.FailedIn != tt.stage {
			t.Errorf("%s: outcome = %+v", tt.name, o)
		}
	}
}

func TestConvert_EngineBFailureIsUnmodified(t *testing.T) {
	t.Parallel()

	cause := errors.New("ffmpeg exited with code 1")
	c := newConverter(t, &audiotest.FakeTranscoder{}, &audiotest.FakeTranscoder{ExecErr: cause}, nil)

	_, err := c.Convert(context.Background(), mp3Request(formats.FLAC), nil)
	if err != cause {
		t.Errorf("Convert() error = %v, want the engine error unmodified", err)
	}
}

func TestConvert_MissingOutput(t *testing.T) {
	t.Parallel()

	c := newConverter(t, &audiotest.FakeTranscoder{Ratios: []float64{1}}, nil, nil)

	var events []convert.Progress
	res, err := c.Convert(context.Background(), mp3Request(formats.AAC), collect(&events))
	if res != nil || !errors.Is(err, convert.ErrMissingOutput) {
		t.Fatalf("Convert() = %v, %v; want ErrMissingOutput", res, err)
	}

	var ce *convert.ConversionError
	if !errors.As(err, &ce) || ce.Stage != convert.Finalizing {
		t.Errorf("error = %#v", err)
	}
	if last := events[len(events)-1]; last.Progress == 100 && last.Message == convert.MessageComplete {
		t.Error("completion reported without output")
	}
}

func TestConvert_NoEngine(t *testing.T) {
	t.Parallel()

	c := newConverter(t, &audiotest.FakeTranscoder{Output: []byte("x")}, nil, nil)

	_, err := c.Convert(context.Background(), mp3Request(formats.OGG), nil)
	if !errors.Is(err, convert.ErrNoEngine) {
		t.Errorf("Convert() error = %v, want ErrNoEngine", err)
	}
}

func TestConvert_Cancelled(t *testing.T) {
	t.Parallel()

	c := newConverter(t, &audiotest.FakeTranscoder{Block: true}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Convert(ctx, mp3Request(formats.WAV), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Convert() error = %v, want context.DeadlineExceeded", err)
	}
}

// lateEngine keeps reporting progress after Execute returned.
type lateEngine struct {
	fn chan engine.ProgressFunc
}

func (l *lateEngine) Init(context.Context, engine.Job) (engine.Conversion, error) { return l, nil }

func (l *lateEngine) Execute(_ context.Context, fn engine.ProgressFunc) error {
	l.fn <- fn
	return nil
}

func (l *lateEngine) Output() ([]byte, string, error) { return []byte("x"), "audio/wav", nil }
func (l *lateEngine) Close() error                    { return nil }

func TestConvert_NoProgressAfterReturn(t *testing.T) {
	t.Parallel()

	eng := &lateEngine{fn: make(chan engine.ProgressFunc, 1)}
	c := newConverter(t, eng, nil, nil)

	var events []convert.Progress
	if _, err := c.Convert(context.Background(), mp3Request(formats.WAV), collect(&events)); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	n := len(events)

	(<-eng.fn)(0.5)

	if len(events) != n {
		t.Errorf("progress delivered after Convert returned: %+v", events[n:])
	}
}

func TestConvert_NormalizesThroughNativeEngine(t *testing.T) {
	t.Parallel()

	a := native.New(native.Config{}).Transcoder()
	c := newConverter(t, a, nil, nil)

	req := convert.Request{
		File:   engine.File{Name: "voice.wma", MIMEType: "audio/x-ms-wma", Data: audiotest.WAV(22050, 1, 2205, audiotest.Sine(22050, 440))},
		Format: formats.WAV,
	}

	res, err := c.Convert(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	h, err := wav.ParseHeader(res.Data)
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}
	if !res.Normalized || h.SampleRate != 44100 || h.NumChannels != 2 {
		t.Errorf("normalized %v, header %+v", res.Normalized, h)
	}
	if !strings.HasSuffix(res.Filename, "_converted.wav") {
		t.Errorf("Filename = %q", res.Filename)
	}
}

func TestPercent(t *testing.T) {
	t.Parallel()

	tests := map[float64]int{
		0:     0,
		0.5:   50,
		1:     100,
		0.307: 31,
		0.125: 13,
		0.004: 0,
		-0.2:  0,
		1.7:   100,
	}

	for ratio, want := range tests {
		if got := convert.Percent(ratio); got != want {
			t.Errorf("Percent(%v) = %d, want %d", ratio, got, want)
		}
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	names := []string{"idle", "preparing", "normalizing", "configuring", "executing", "finalizing", "succeeded", "failed"}
	for i, want := range names {
		if got := convert.State(i).String(); got != want {
			t.Errorf("State(%d) = %q, want %q", i, got, want)
		}
	}
	if convert.State(42).String() != "unknown" {
		t.Error("out of range state should be unknown")
	}
	if !convert.Failed.Terminal() || convert.Executing.Terminal() {
		t.Error("Terminal() mismatch")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := convert.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}

	cfg.CompressionLevel = 20
	if _, err := convert.New(cfg, nil); !errors.Is(err, convert.ErrQuality) {
		t.Errorf("New() error = %v, want ErrQuality", err)
	}

	cfg = convert.DefaultConfig()
	cfg.MP3Bitrate = 100
	if err := cfg.Validate(); !errors.Is(err, convert.ErrQuality) {
		t.Errorf("Validate(mp3 100 kbps) error = %v, want ErrQuality", err)
	}
}
