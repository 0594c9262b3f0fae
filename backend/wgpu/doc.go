// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu drives a gogpu/wgpu render pass from drawstate bindings.
//
// Encoder implements drawstate.Device on top of a hal.RenderPassEncoder.
// Direct3D-style state objects and slot bindings have no one-to-one WebGPU
// counterpart, so the encoder folds them into the two objects a render pass
// understands:
//
//   - Render pipelines, keyed by PipelineKey (shaders, input layout,
//     topology, state objects, sample mask and attachment layout).
//   - Bind groups, one per shader stage. Group 0 holds vertex-stage
//     resources and group 1 fragment-stage resources.
//
// Both are created on demand through a Resolver at draw time and kept in
// LRU caches. Evicted objects are handed back to the Resolver for
// destruction.
//
// # Usage
//
//	enc, err := wgpu.NewEncoderFromProvider(provider, pass, resolver)
//	if err != nil {
//	    return err
//	}
//	defer enc.Close()
//
//	cache := drawstate.NewPipelineStateCache(enc)
//	merger := drawstate.NewDrawCallMerger(cache)
//	ctx := drawstate.NewRenderContext(enc)
//
// # Limitations
//
// WebGPU binds one viewport and one scissor rectangle per pass; only the
// first of each is applied. A render pass has fixed attachments, so
// SetRenderTargets only feeds the attachment layout of the pipeline key.
// A zero buffer ID cannot unbind a vertex or index buffer slot and is
// ignored.
package wgpu
