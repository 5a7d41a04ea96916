// SPDX-License-Identifier: EPL-2.0

// Package metrics exposes conversion and HTTP metrics to Prometheus. Metrics
// implements convert.Recorder.
package metrics
