// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import "github.com/gogpu/gputypes"

// DefaultSampleMask enables every sample.
const DefaultSampleMask uint32 = 0xFFFFFFFF

// stageBindings holds the per-stage resource slots.
type stageBindings struct {
	constantBuffers *SlotArray[BufferID]
	shaderResources *SlotArray[ShaderResourceViewID]
	samplers        *SlotArray[SamplerID]
}

func newStageBindings(caps Capabilities) stageBindings {
	return stageBindings{
		constantBuffers: NewSlotArray[BufferID](caps.MaxConstantBuffers, InvalidID),
		shaderResources: NewSlotArray[ShaderResourceViewID](caps.MaxShaderResources, InvalidID),
		samplers:        NewSlotArray[SamplerID](caps.MaxSamplers, InvalidID),
	}
}

// ResourceBindingSet is the complete resource binding state requested for a
// draw: every slot category plus the scalar per-draw state.
//
// A set may be built fresh for each draw or kept and mutated between draws.
// Only slots written since the last applied draw are considered for rebinding.
//
// ResourceBindingSet is not safe for concurrent use.
type ResourceBindingSet struct {
	caps Capabilities

	vertexBuffers *SlotArray[VertexBufferBinding]
	inputLayout   *SlotArray[InputLayoutID]
	indexBuffer   *SlotArray[IndexBufferBinding]
	stages        [numStages]stageBindings
	renderTargets *SlotArray[RenderTargetViewID]
	depthStencil  *SlotArray[DepthStencilViewID]
	viewports     *SlotArray[Viewport]
	scissorRects  *SlotArray[ScissorRect]

	topology    gputypes.PrimitiveTopology
	blendFactor gputypes.Color
	sampleMask  uint32
	stencilRef  uint32
}

// NewResourceBindingSet creates an empty binding set sized by caps.
func NewResourceBindingSet(caps Capabilities) *ResourceBindingSet {
	caps = caps.Normalized()
	b := &ResourceBindingSet{
		caps:          caps,
		vertexBuffers: NewSlotArray[VertexBufferBinding](caps.MaxVertexBuffers, VertexBufferBinding{}),
		inputLayout:   NewSlotArray[InputLayoutID](1, InvalidID),
		indexBuffer:   NewSlotArray[IndexBufferBinding](1, IndexBufferBinding{}),
		renderTargets: NewSlotArray[RenderTargetViewID](caps.MaxRenderTargets, InvalidID),
		depthStencil:  NewSlotArray[DepthStencilViewID](1, InvalidID),
		viewports:     NewSlotArray[Viewport](caps.MaxViewports, Viewport{}),
		scissorRects:  NewSlotArray[ScissorRect](caps.MaxScissorRects, ScissorRect{}),
		topology:      gputypes.PrimitiveTopologyTriangleList,
		sampleMask:    DefaultSampleMask,
	}
	for s := range b.stages {
		b.stages[s] = newStageBindings(caps)
	}
	return b
}

// Capabilities returns the capabilities the set was sized with.
func (b *ResourceBindingSet) Capabilities() Capabilities {
	return b.caps
}

// SetVertexBuffer binds a vertex buffer to slot.
func (b *ResourceBindingSet) SetVertexBuffer(slot int, binding VertexBufferBinding) {
	b.vertexBuffers.Set(slot, binding)
}

// SetInputLayout sets the input layout paired with the vertex buffers.
func (b *ResourceBindingSet) SetInputLayout(layout InputLayoutID) {
	b.inputLayout.Set(0, layout)
}

// SetIndexBuffer binds the index buffer.
func (b *ResourceBindingSet) SetIndexBuffer(binding IndexBufferBinding) {
	b.indexBuffer.Set(0, binding)
}

// SetConstantBuffer binds a constant buffer to slot of stage.
func (b *ResourceBindingSet) SetConstantBuffer(stage Stage, slot int, buffer BufferID) {
	b.stages[stage].constantBuffers.Set(slot, buffer)
}

// SetShaderResource binds a shader resource view to slot of stage.
func (b *ResourceBindingSet) SetShaderResource(stage Stage, slot int, view ShaderResourceViewID) {
	b.stages[stage].shaderResources.Set(slot, view)
}

// SetSampler binds a sampler to slot of stage.
func (b *ResourceBindingSet) SetSampler(stage Stage, slot int, sampler SamplerID) {
	b.stages[stage].samplers.Set(slot, sampler)
}

// UnbindShaderResources resets every shader resource slot of stage to null.
func (b *ResourceBindingSet) UnbindShaderResources(stage Stage) {
	b.stages[stage].shaderResources.Clear()
}

// SetRenderTarget binds a color target to slot.
func (b *ResourceBindingSet) SetRenderTarget(slot int, view RenderTargetViewID) {
	b.renderTargets.Set(slot, view)
}

// SetDepthStencilView binds the depth/stencil view.
func (b *ResourceBindingSet) SetDepthStencilView(view DepthStencilViewID) {
	b.depthStencil.Set(0, view)
}

// UnbindRenderTargets resets every color target and the depth/stencil view.
func (b *ResourceBindingSet) UnbindRenderTargets() {
	b.renderTargets.Clear()
	b.depthStencil.Clear()
}

// SetViewport sets viewport i.
func (b *ResourceBindingSet) SetViewport(i int, v Viewport) {
	b.viewports.Set(i, v)
}

// SetScissorRect sets scissor rectangle i.
func (b *ResourceBindingSet) SetScissorRect(i int, r ScissorRect) {
	b.scissorRects.Set(i, r)
}

// SetTopology sets the primitive topology.
func (b *ResourceBindingSet) SetTopology(t gputypes.PrimitiveTopology) {
	b.topology = t
}

// SetBlendFactor sets the constant blend color.
func (b *ResourceBindingSet) SetBlendFactor(c gputypes.Color) {
	b.blendFactor = c
}

// SetSampleMask sets the multisample coverage mask.
func (b *ResourceBindingSet) SetSampleMask(mask uint32) {
	b.sampleMask = mask
}

// SetStencilRef sets the stencil reference value.
func (b *ResourceBindingSet) SetStencilRef(ref uint32) {
	b.stencilRef = ref
}

// VertexBuffers returns the vertex buffer slots.
func (b *ResourceBindingSet) VertexBuffers() *SlotArray[VertexBufferBinding] { return b.vertexBuffers }

// InputLayout returns the currently requested input layout.
func (b *ResourceBindingSet) InputLayout() InputLayoutID { return b.inputLayout.Get(0) }

// IndexBuffer returns the currently requested index buffer.
func (b *ResourceBindingSet) IndexBuffer() IndexBufferBinding { return b.indexBuffer.Get(0) }

// ConstantBuffers returns the constant buffer slots of stage.
func (b *ResourceBindingSet) ConstantBuffers(stage Stage) *SlotArray[BufferID] {
	return b.stages[stage].constantBuffers
}

// ShaderResources returns the shader resource slots of stage.
func (b *ResourceBindingSet) ShaderResources(stage Stage) *SlotArray[ShaderResourceViewID] {
	return b.stages[stage].shaderResources
}

// Samplers returns the sampler slots of stage.
func (b *ResourceBindingSet) Samplers(stage Stage) *SlotArray[SamplerID] {
	return b.stages[stage].samplers
}

// RenderTargets returns the color target slots.
func (b *ResourceBindingSet) RenderTargets() *SlotArray[RenderTargetViewID] { return b.renderTargets }

// DepthStencilView returns the currently requested depth/stencil view.
func (b *ResourceBindingSet) DepthStencilView() DepthStencilViewID { return b.depthStencil.Get(0) }

// Viewports returns the viewport slots.
func (b *ResourceBindingSet) Viewports() *SlotArray[Viewport] { return b.viewports }

// ScissorRects returns the scissor rectangle slots.
func (b *ResourceBindingSet) ScissorRects() *SlotArray[ScissorRect] { return b.scissorRects }

// Topology returns the primitive topology.
func (b *ResourceBindingSet) Topology() gputypes.PrimitiveTopology { return b.topology }

// BlendFactor returns the constant blend color.
func (b *ResourceBindingSet) BlendFactor() gputypes.Color { return b.blendFactor }

// SampleMask returns the multisample coverage mask.
func (b *ResourceBindingSet) SampleMask() uint32 { return b.sampleMask }

// StencilRef returns the stencil reference value.
func (b *ResourceBindingSet) StencilRef() uint32 { return b.stencilRef }

// IsDirty reports whether any slot array was written since the last ClearDirty.
func (b *ResourceBindingSet) IsDirty() bool {
	dirty := false
	b.eachArray(func(a dirtyTracker) {
		dirty = dirty || a.IsDirty()
	})
	return dirty
}

// ClearDirty resets the dirty range of every slot array.
func (b *ResourceBindingSet) ClearDirty() {
	b.eachArray(func(a dirtyTracker) { a.ClearDirty() })
}

// markAllDirty marks every slot of every array dirty.
func (b *ResourceBindingSet) markAllDirty() {
	b.eachArray(func(a dirtyTracker) { a.MarkAllDirty() })
}

// dirtyTracker is the type-independent part of SlotArray.
type dirtyTracker interface {
	IsDirty() bool
	ClearDirty()
	MarkAllDirty()
	DirtyRange() Range
}

func (b *ResourceBindingSet) eachArray(fn func(dirtyTracker)) {
	fn(b.vertexBuffers)
	fn(b.inputLayout)
	fn(b.indexBuffer)
	for s := range b.stages {
		fn(b.stages[s].constantBuffers)
		fn(b.stages[s].shaderResources)
		fn(b.stages[s].samplers)
	}
	fn(b.renderTargets)
	fn(b.depthStencil)
	fn(b.viewports)
	fn(b.scissorRects)
}
