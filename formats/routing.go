// SPDX-License-Identifier: EPL-2.0

package formats

import "sync"

// Backend tags the transcoding engine that performs an encode.
type Backend int

const (
	// EngineA is the in-process container transcoding engine.
	EngineA Backend = iota
	// EngineB is the lazily loaded multimedia CLI engine.
	EngineB
)

func (b Backend) String() string {
	switch b {
	case EngineA:
		return "native"
	case EngineB:
		return "cli"
	}
	return "unknown"
}

// Routing maps output formats to backends. Formats without an entry go to
// EngineA.
type Routing struct {
	routes map[Format]Backend

	mtx *sync.RWMutex
}

func NewRouting() *Routing {
	return &Routing{
		routes: make(map[Format]Backend),
		mtx:    &sync.RWMutex{},
	}
}

// DefaultRouting sends FLAC and Ogg to the CLI engine.
func DefaultRouting() *Routing {
	r := NewRouting()
	r.Route(FLAC, EngineB)
	r.Route(OGG, EngineB)

	return r
}

func (r *Routing) Route(f Format, b Backend) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.routes[f] = b
}

func (r *Routing) Select(f Format) Backend {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if b, ok := r.routes[f]; ok {
		return b
	}
	return EngineA
}

var defaultRouting = DefaultRouting()

// SelectBackend looks f up in the default routing table.
func SelectBackend(f Format) Backend {
	return defaultRouting.Select(f)
}
