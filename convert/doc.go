// SPDX-License-Identifier: EPL-2.0

// Package convert orchestrates one audio conversion end to end.
//
// A Converter validates the request, picks the backend for the output
// format, runs an optional normalization pass that turns inputs the backends
// cannot read into 16-bit PCM WAV, drives the selected engine and hands back
// the finished file. Progress is reported through a ProgressSink as integer
// percentages:
//
//	0    Preparing conversion...
//	10   Loading audio file...        (normalization only)
//	20   Initializing converter...
//	30   Converting...
//	n    Converting audio...          (engine progress, 0..100)
//	100  Conversion complete!
//
// Engine percentages restart at the engine's own scale and may fall below
// the earlier step values; callers that draw a bar should keep the maximum.
//
// Every failure of the in-process engine or of the pipeline itself is a
// *ConversionError whose message starts with "Audio conversion failed: ".
// Failures of the command line engine are returned as that engine produced
// them.
package convert
