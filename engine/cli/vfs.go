// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// VFS hands out scratch sessions. Every Convert call gets its own session so
// concurrent conversions never see each other's files.
type VFS interface {
	NewSession() (Session, error)
}

// Session is a flat scratch namespace shared with the ffmpeg process.
type Session interface {
	// Path is the name as ffmpeg must see it on its command line.
	Path(name string) string
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)
	// Remove fails with an error matching fs.ErrNotExist for unknown names.
	Remove(name string) error
	Close() error
}

// DirFS keeps sessions as temporary directories under Root. An empty Root
// means os.TempDir.
type DirFS struct {
	Root string
}

func (d DirFS) NewSession() (Session, error) {
	dir, err := os.MkdirTemp(d.Root, "audconv-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	return dirSession(dir), nil
}

type dirSession string

func (s dirSession) Path(name string) string {
	return filepath.Join(string(s), filepath.Base(name))
}

func (s dirSession) WriteFile(name string, data []byte) error {
	return os.WriteFile(s.Path(name), data, 0o600)
}

func (s dirSession) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(s.Path(name))
}

func (s dirSession) Remove(name string) error {
	return os.Remove(s.Path(name))
}

func (s dirSession) Close() error {
	return os.RemoveAll(string(s))
}
