// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	// ErrNoOutput is returned by Conversion.Output when the engine finished
	// without producing bytes.
	ErrNoOutput = errors.New("engine produced no output")

	ErrNotExecuted = errors.New("conversion has not been executed")

	// ErrUnsupportedFormat is returned by Init for formats an engine cannot write.
	ErrUnsupportedFormat = errors.New("output format not supported by engine")
)
