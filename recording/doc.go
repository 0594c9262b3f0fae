// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package recording provides an in-memory drawstate.Device that captures
// every device call as a typed command.
//
// Commands are plain structs (SetConstantBuffersCommand, DrawCommand, ...)
// identified by a CommandType, so tests and tools can inspect exactly which
// binding calls a draw produced and with which sub-ranges. The device also
// mirrors the bindings it holds, which lets callers compare the device state
// with what they requested.
//
// # Example
//
//	dev := recording.NewDevice(drawstate.DefaultCapabilities())
//	cache := drawstate.NewPipelineStateCache(dev)
//	ctx := drawstate.NewRenderContext(dev)
//	merger := drawstate.NewDrawCallMerger(cache)
//
//	_ = merger.Submit(ctx, b, &desc, drawstate.NewDraw(3, 0))
//	for _, c := range dev.CommandsOf(recording.CmdSetConstantBuffers) {
//	    fmt.Printf("%+v\n", c)
//	}
//
// Recorded commands can be replayed onto any drawstate.CommandContext with
// Playback.
package recording
