// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package drawstate caches pipeline state objects and reduces draw-call
// resource binding to the minimal set of device calls.
//
// # Overview
//
// An application describes each draw as a ResourceBindingSet (vertex buffers,
// per-stage constant buffers, shader resources and samplers, render targets,
// viewports, scissor rectangles and a few scalars) plus a
// PipelineStateDescriptor (shaders, rasterizer, depth-stencil and blend
// state). A DrawCallMerger compares the request with what a RenderContext
// knows the device holds and binds only what changed.
//
// # Quick Start
//
//	cache := drawstate.NewPipelineStateCache(dev)
//	merger := drawstate.NewDrawCallMerger(cache)
//	ctx := drawstate.NewRenderContext(dev)
//
//	b := ctx.NewBindingSet()
//	b.SetVertexBuffer(0, drawstate.VertexBufferBinding{Buffer: vb, Stride: 32})
//	b.SetConstantBuffer(drawstate.StageVertex, 0, camera)
//	b.SetRenderTarget(0, backbuffer)
//
//	desc := drawstate.DefaultPipelineStateDescriptor(vs, fs)
//	if err := merger.Submit(ctx, b, &desc, drawstate.NewDraw(36, 0)); err != nil {
//	    // handle error
//	}
//
// # Slot Arrays
//
// Every slot category is a SlotArray that records the contiguous range
// written since the last applied draw. Writing a slot marks it dirty even if
// the value did not change; the merger narrows the range by comparing values
// with the device snapshot, so redundant writes cost no device call.
//
// # Pipeline States
//
// PipelineStateCache interns descriptors by structural equality. On a miss,
// the rasterizer, depth-stencil and blend sub-states are matched against every
// native object created so far, and only new sub-states are created.
//
// # Debug Validation
//
// Building with the drawstate_debug tag enables checks for bindings the
// device cannot honor: vertex-stage samplers without device support, one
// shader resource view in two slots of a stage, and indexed draws without an
// index buffer. Release builds compile the checks out.
//
// # Concurrency
//
// PipelineStateCache is safe for concurrent use. RenderContext and
// ResourceBindingSet are not; use one context per goroutine.
package drawstate
