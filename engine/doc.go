// SPDX-License-Identifier: EPL-2.0

// Package engine defines the contract between the conversion orchestrator
// and its backends.
//
// A Transcoder turns a Job into a Conversion; the Conversion is executed
// once, its Output collected and then closed:
//
//	conv, err := t.Init(ctx, engine.Job{Input: file, Format: formats.MP3})
//	if err != nil {
//	    return err
//	}
//	defer conv.Close()
//
//	if err := conv.Execute(ctx, func(r float64) { ... }); err != nil {
//	    return err
//	}
//	data, mime, err := conv.Output()
//
// The native sub-package implements the in-process engine, the cli
// sub-package the ffmpeg command line engine.
package engine
