// SPDX-License-Identifier: EPL-2.0

// Package formats describes the output formats and decides how an input is
// routed through the conversion pipeline.
//
// Two questions are answered here, both from metadata alone:
//
//   - NeedsPreNormalization: must the input be decoded and re-encoded to a
//     16-bit WAV before conversion? Only a deny list of MIME types and
//     filename suffixes triggers it. Unknown inputs are passed through and
//     left for the engine to accept or reject.
//   - SelectBackend: which engine encodes a given output format? The answer
//     comes from a Routing table so deployments can move formats between
//     engines without touching the orchestrator.
//
// The sub-packages hold the per-container decoders and encoders.
package formats
