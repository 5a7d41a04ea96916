// SPDX-License-Identifier: EPL-2.0

// Package server exposes the converter over HTTP.
//
// Routes:
//
//	GET  /health             liveness and active conversion count
//	GET  /api/v1/formats     output formats and the backend serving each
//	POST /api/v1/convert     multipart "file" field, ?format=&bitrate=&compression=
//	GET  /ws/convert         WebSocket conversion with progress frames
//	GET  /metrics            Prometheus metrics, when enabled
//
// A WebSocket client sends a JSON WSRequest text frame and then the file as
// one binary frame. The server answers with progress messages, then either an
// error message or a result message followed by the converted file as a
// binary frame.
package server
