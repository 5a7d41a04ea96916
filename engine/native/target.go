// SPDX-License-Identifier: EPL-2.0

package native

import "sync"

// BufferTarget is a memory sink for one conversion. Buffer stays nil until
// an encode completes.
type BufferTarget struct {
	mu   sync.Mutex
	buf  []byte
	mime string
}

func NewBufferTarget() *BufferTarget {
	return &BufferTarget{}
}

func (t *BufferTarget) Buffer() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.buf
}

func (t *BufferTarget) MIMEType() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.mime
}

func (t *BufferTarget) set(b []byte, mime string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = b
	t.mime = mime
}
