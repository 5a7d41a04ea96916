// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/internal/audiotest"
)

type mockDecoder struct {
	name string
}

func (d *mockDecoder) Decode(r io.Reader) (audio.Source, error) {
	return audiotest.NewSilentSource(44100, 2, 100), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := audio.NewRegistry()
	decoder := &mockDecoder{name: "wav"}

	registry.Register("wav", decoder)

	got, ok := registry.Get("wav")
	if !ok {
		t.Fatal("Registry.Get() failed to retrieve registered decoder")
	}
	if got != decoder {
		t.Error("Registry.Get() returned different decoder instance")
	}
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	t.Parallel()

	registry := audio.NewRegistry()
	decoder := &mockDecoder{name: "flac"}
	registry.Register("FLAC", decoder)

	if got, ok := registry.Get("flac"); !ok || got != decoder {
		t.Errorf("Registry.Get(%q) = %v, %v", "flac", got, ok)
	}
	if _, ok := registry.Get("mp3"); ok {
		t.Error("Registry.Get() returned ok=true for unregistered format")
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	registry := audio.NewRegistry()
	for _, name := range []string{"ogg", "wav", "mp3"} {
		registry.Register(name, &mockDecoder{name: name})
	}

	want := []string{"mp3", "ogg", "wav"}
	if got := registry.Formats(); !reflect.DeepEqual(got, want) {
		t.Errorf("Registry.Formats() = %v, want %v", got, want)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := audio.NewRegistry()
	decoder := &mockDecoder{name: "test"}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Register("format", decoder)
		}()
		go func() {
			defer wg.Done()
			_, _ = registry.Get("format")
		}()
	}
	wg.Wait()

	if got, ok := registry.Get("format"); !ok || got != decoder {
		t.Error("Registry returned wrong decoder after concurrent operations")
	}
}

func TestErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	all := []error{
		audio.ErrInvalidDstSize,
		audio.ErrInvalidSampleRate,
		audio.ErrNoChannels,
		audio.ErrChannelLengthMismatch,
		audio.ErrEmptyBuffer,
		audio.ErrInvalidChannelCount,
	}

	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v matches %v", a, b)
			}
		}
	}
}
