// SPDX-License-Identifier: EPL-2.0

package discovery

import (
	"context"
	"slices"
	"testing"
)

func TestNewAdvertiser(t *testing.T) {
	t.Parallel()

	a := NewAdvertiser(Config{Instance: "test", Port: 8080})
	if a == nil {
		t.Fatal("expected advertiser to be created")
	}
	if a.config.service() != DefaultService {
		t.Errorf("service = %q, want %q", a.config.service(), DefaultService)
	}

	// Stop before Advertise is a no-op.
	a.Stop()
	a.Stop()
}

func TestAdvertise_InvalidPort(t *testing.T) {
	t.Parallel()

	a := NewAdvertiser(Config{Instance: "test", Port: 0})
	if err := a.Advertise(context.Background()); err == nil {
		t.Error("Advertise() should reject port 0")
	}
}

func TestTXT(t *testing.T) {
	t.Parallel()

	got := Config{Formats: []string{"mp3", "flac"}}.TXT()
	want := []string{"path=/api/v1", "ws=/ws/convert", "format=mp3", "format=flac"}
	if !slices.Equal(got, want) {
		t.Errorf("TXT() = %v, want %v", got, want)
	}
}

func TestInstanceAddr(t *testing.T) {
	t.Parallel()

	if got := (Instance{Host: "192.168.1.10", Port: 8080}).Addr(); got != "192.168.1.10:8080" {
		t.Errorf("Addr() = %q", got)
	}
	if got := (Instance{Host: "fe80::1", Port: 80}).Addr(); got != "[fe80::1]:80" {
		t.Errorf("Addr() = %q", got)
	}
}
