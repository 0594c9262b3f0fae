// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import "github.com/gogpu/gputypes"

// StateFactory creates and destroys the immutable native state objects that
// make up a pipeline state. PipelineStateCache is its only caller.
//
// Implementations must be safe for concurrent use if the cache is shared
// between goroutines; the cache serializes creation under its write lock.
type StateFactory interface {
	CreateRasterState(desc *RasterStateDescriptor) (RasterStateID, error)
	CreateDepthStencilState(desc *DepthStencilDescriptor) (DepthStencilStateID, error)
	CreateBlendState(desc *BlendDescriptor) (BlendStateID, error)

	DestroyRasterState(id RasterStateID)
	DestroyDepthStencilState(id DepthStencilStateID)
	DestroyBlendState(id BlendStateID)
}

// CommandContext is the binding and draw surface of a device.
//
// Binding calls receive a start slot and the sub-slice of values that changed.
// The slices are only valid for the duration of the call.
type CommandContext interface {
	SetVertexBuffers(startSlot int, buffers []VertexBufferBinding)
	SetInputLayout(layout InputLayoutID)
	SetIndexBuffer(binding IndexBufferBinding)

	SetConstantBuffers(stage gputypes.ShaderStage, startSlot int, buffers []BufferID)
	SetShaderResources(stage gputypes.ShaderStage, startSlot int, views []ShaderResourceViewID)
	SetSamplers(stage gputypes.ShaderStage, startSlot int, samplers []SamplerID)

	// SetRenderTargets binds color targets 0..len(targets)-1 and the
	// depth/stencil view in one call.
	SetRenderTargets(targets []RenderTargetViewID, depthStencil DepthStencilViewID)
	SetViewports(viewports []Viewport)
	SetScissorRects(rects []ScissorRect)
	SetTopology(topology gputypes.PrimitiveTopology)

	SetVertexShader(shader ShaderID)
	SetFragmentShader(shader ShaderID)
	SetRasterState(state RasterStateID)
	SetDepthStencilState(state DepthStencilStateID, stencilRef uint32)
	SetBlendState(state BlendStateID, factor gputypes.Color, sampleMask uint32)

	Draw(vertexCount, startVertex uint32) error
	DrawIndexed(indexCount, startIndex uint32, baseVertex int32) error
	DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) error
	DrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) error
}

// Device is a complete native device: state object factory plus command context.
type Device interface {
	StateFactory
	CommandContext
}
