// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import (
	"fmt"
)

// DrawCallMerger diffs requested binding state against a render context's
// snapshot and applies the minimal set of device calls.
//
// A merger holds no per-context state and may be shared by contexts on
// different goroutines; each context must still be used by one goroutine.
type DrawCallMerger struct {
	cache *PipelineStateCache
}

// NewDrawCallMerger creates a merger resolving pipeline states through cache.
func NewDrawCallMerger(cache *PipelineStateCache) *DrawCallMerger {
	return &DrawCallMerger{cache: cache}
}

// Cache returns the pipeline state cache of the merger.
func (m *DrawCallMerger) Cache() *PipelineStateCache { return m.cache }

// slotDiff returns the range of in that must be rebound: every slot the
// snapshot marks unknown, plus the written slots whose value differs from
// the device.
func slotDiff[T comparable](in, bound *SlotArray[T]) Range {
	return bound.DirtyRange().Union(in.diffRange(bound, in.DirtyRange()))
}

// Merge computes the changes needed to bring the device held by ctx to the
// state requested by b and desc. Merge makes no device binding calls and
// modifies neither b nor the snapshot; native state objects may be created
// through the cache.
//
// Returns ErrMissingRequiredShader if desc has no vertex shader,
// ErrBindingSetMismatch if b is nil or was sized for different capabilities,
// cache errors unchanged, and in debug builds ErrCapabilityUnsupported or
// ErrResourceAlreadyBound.
func (m *DrawCallMerger) Merge(ctx *RenderContext, b *ResourceBindingSet, desc *PipelineStateDescriptor) (*Changes, error) {
	if desc == nil || desc.VertexShader == InvalidID {
		return nil, ErrMissingRequiredShader
	}
	if b == nil || !ctx.compatible(b) {
		return nil, ErrBindingSetMismatch
	}
	if debugValidation {
		if err := validateBindings(ctx, b); err != nil {
			return nil, err
		}
	}

	state, err := m.cache.GetOrCreate(desc)
	if err != nil {
		return nil, err
	}

	snap := &ctx.snap
	bound := snap.bound
	ch := &Changes{
		State:      state,
		bindings:   b,
		generation: ctx.generation,
	}
	var skipped uint64

	// track records a slot category: r is the rebind range, written reports
	// whether the caller touched the category at all.
	track := func(flag ChangeFlags, r Range, written bool) Range {
		if !r.Empty() {
			ch.Flags |= flag
		} else if written {
			skipped++
		}
		return r
	}

	ch.VertexBuffers = track(ChangeVertexBuffers,
		slotDiff(b.vertexBuffers, bound.vertexBuffers), b.vertexBuffers.IsDirty())
	track(ChangeInputLayout, slotDiff(b.inputLayout, bound.inputLayout), b.inputLayout.IsDirty())
	track(ChangeIndexBuffer, slotDiff(b.indexBuffer, bound.indexBuffer), b.indexBuffer.IsDirty())

	for s := Stage(0); s < numStages; s++ {
		in, dev := &b.stages[s], &bound.stages[s]
		ch.Stages[s] = StageRanges{
			ConstantBuffers: track(constantBufferFlag(s),
				slotDiff(in.constantBuffers, dev.constantBuffers), in.constantBuffers.IsDirty()),
			ShaderResources: track(shaderResourceFlag(s),
				slotDiff(in.shaderResources, dev.shaderResources), in.shaderResources.IsDirty()),
			Samplers: track(samplerFlag(s),
				slotDiff(in.samplers, dev.samplers), in.samplers.IsDirty()),
		}
	}

	// Color targets and the depth/stencil view are bound together.
	rt := slotDiff(b.renderTargets, bound.renderTargets)
	dsv := slotDiff(b.depthStencil, bound.depthStencil)
	ch.RenderTargets = rt
	track(ChangeRenderTargets, rt.Union(dsv), b.renderTargets.IsDirty() || b.depthStencil.IsDirty())

	ch.Viewports = track(ChangeViewports,
		slotDiff(b.viewports, bound.viewports), b.viewports.IsDirty())
	ch.ScissorRects = track(ChangeScissorRects,
		slotDiff(b.scissorRects, bound.scissorRects), b.scissorRects.IsDirty())

	if snap.scalarsUnknown || b.topology != bound.topology {
		ch.Flags |= ChangeTopology
	}
	if snap.scalarsUnknown || b.blendFactor != bound.blendFactor {
		ch.Flags |= ChangeBlendFactor
	}
	if snap.scalarsUnknown || b.sampleMask != bound.sampleMask {
		ch.Flags |= ChangeSampleMask
	}
	if snap.scalarsUnknown || b.stencilRef != bound.stencilRef {
		ch.Flags |= ChangeStencilRef
	}

	if snap.shadersUnknown || state.VertexShader() != snap.vertexShader {
		ch.Flags |= ChangeVertexShader
	}
	if snap.shadersUnknown || state.FragmentShader() != snap.fragmentShader {
		ch.Flags |= ChangeFragmentShader
	}

	prev := snap.state
	if prev == nil || snap.cache != m.cache || !m.cache.valid(prev) {
		ch.Flags |= ChangeRasterState | ChangeDepthStencilState | ChangeBlendState
	} else {
		if prev.raster != state.raster {
			ch.Flags |= ChangeRasterState
		}
		if prev.depthStencil != state.depthStencil {
			ch.Flags |= ChangeDepthStencilState
		}
		if prev.blend != state.blend {
			ch.Flags |= ChangeBlendState
		}
	}

	ctx.stats.Merges++
	ctx.stats.SkippedCategories += skipped
	return ch, nil
}

// Apply issues one device call per changed category, each carrying only the
// changed sub-range, then clears the dirty flags of the merged binding set
// and records the new device state in the snapshot.
//
// Returns ErrStaleChanges if ctx changed since ch was merged, including when
// ch was already applied.
func (m *DrawCallMerger) Apply(ctx *RenderContext, ch *Changes) error {
	if ch == nil || ch.generation != ctx.generation || ch.bindings == nil {
		return ErrStaleChanges
	}
	b, dev, snap := ch.bindings, ctx.device, &ctx.snap
	bound := snap.bound
	calls := uint64(0)
	f := ch.Flags

	if f.Has(ChangeInputLayout) {
		dev.SetInputLayout(b.InputLayout())
		calls++
	}
	if f.Has(ChangeVertexBuffers) {
		r := ch.VertexBuffers
		dev.SetVertexBuffers(r.Start, b.vertexBuffers.Slice(r))
		calls++
	}
	if f.Has(ChangeIndexBuffer) {
		dev.SetIndexBuffer(b.IndexBuffer())
		calls++
	}
	if f.Has(ChangeTopology) {
		dev.SetTopology(b.topology)
		calls++
	}

	if f.Has(ChangeVertexShader) {
		dev.SetVertexShader(ch.State.VertexShader())
		calls++
	}
	if f.Has(ChangeFragmentShader) {
		dev.SetFragmentShader(ch.State.FragmentShader())
		calls++
	}

	for s := Stage(0); s < numStages; s++ {
		in, sr, gs := &b.stages[s], ch.Stages[s], s.ShaderStage()
		if f.Has(constantBufferFlag(s)) {
			dev.SetConstantBuffers(gs, sr.ConstantBuffers.Start, in.constantBuffers.Slice(sr.ConstantBuffers))
			calls++
		}
		if f.Has(shaderResourceFlag(s)) {
			dev.SetShaderResources(gs, sr.ShaderResources.Start, in.shaderResources.Slice(sr.ShaderResources))
			calls++
		}
		if f.Has(samplerFlag(s)) {
			dev.SetSamplers(gs, sr.Samplers.Start, in.samplers.Slice(sr.Samplers))
			calls++
		}
	}

	if f.Has(ChangeRasterState) {
		dev.SetRasterState(ch.State.raster)
		calls++
	}
	if f.Any(ChangeDepthStencilState | ChangeStencilRef) {
		dev.SetDepthStencilState(ch.State.depthStencil, b.stencilRef)
		calls++
	}
	if f.Any(ChangeBlendState | ChangeBlendFactor | ChangeSampleMask) {
		dev.SetBlendState(ch.State.blend, b.blendFactor, b.sampleMask)
		calls++
	}

	// Prefix categories are sent whole. Slots b did not write keep the value
	// the device holds.
	var targets []RenderTargetViewID
	var viewports []Viewport
	var scissors []ScissorRect
	var rtCount, vpCount, scCount int
	dsv := bound.DepthStencilView()
	if f.Has(ChangeRenderTargets) {
		targets = b.renderTargets.overlay(bound.renderTargets)
		if b.depthStencil.IsDirty() {
			dsv = b.DepthStencilView()
		}
		rtCount = lastNonDefault(targets, b.renderTargets.def)
		dev.SetRenderTargets(targets[:rtCount], dsv)
		calls++
	}
	if f.Has(ChangeViewports) {
		viewports = b.viewports.overlay(bound.viewports)
		vpCount = max(ch.Viewports.End(), lastNonDefault(viewports, b.viewports.def))
		dev.SetViewports(viewports[:vpCount])
		calls++
	}
	if f.Has(ChangeScissorRects) {
		scissors = b.scissorRects.overlay(bound.scissorRects)
		scCount = max(ch.ScissorRects.End(), lastNonDefault(scissors, b.scissorRects.def))
		dev.SetScissorRects(scissors[:scCount])
		calls++
	}

	// Record the device state. Only written or rebound slots are copied:
	// unwritten slots of b may not reflect the device.
	syncSlots(bound.vertexBuffers, b.vertexBuffers, ch.VertexBuffers)
	syncSlots(bound.inputLayout, b.inputLayout, singleSlot(f.Has(ChangeInputLayout)))
	syncSlots(bound.indexBuffer, b.indexBuffer, singleSlot(f.Has(ChangeIndexBuffer)))
	for s := range b.stages {
		in, held := &b.stages[s], &bound.stages[s]
		syncSlots(held.constantBuffers, in.constantBuffers, ch.Stages[s].ConstantBuffers)
		syncSlots(held.shaderResources, in.shaderResources, ch.Stages[s].ShaderResources)
		syncSlots(held.samplers, in.samplers, ch.Stages[s].Samplers)
	}
	if f.Has(ChangeRenderTargets) {
		syncPrefix(bound.renderTargets, targets, rtCount)
		bound.depthStencil.values[0] = dsv
	}
	if f.Has(ChangeViewports) {
		syncPrefix(bound.viewports, viewports, vpCount)
	}
	if f.Has(ChangeScissorRects) {
		syncPrefix(bound.scissorRects, scissors, scCount)
	}
	bound.topology = b.topology
	bound.blendFactor = b.blendFactor
	bound.sampleMask = b.sampleMask
	bound.stencilRef = b.stencilRef
	bound.ClearDirty()
	b.ClearDirty()

	snap.scalarsUnknown = false
	snap.shadersUnknown = false
	snap.vertexShader = ch.State.VertexShader()
	snap.fragmentShader = ch.State.FragmentShader()
	if snap.state != ch.State {
		ctx.stats.PipelineSwitches++
	}
	snap.state = ch.State
	snap.cache = m.cache

	ctx.stats.BindingCalls += calls
	ctx.generation++
	return nil
}

// syncSlots copies the written and rebound slots of src into dst.
func syncSlots[T comparable](dst, src *SlotArray[T], rebound Range) {
	dst.copyRange(src, src.DirtyRange().Union(rebound))
}

func singleSlot(rebound bool) Range {
	if rebound {
		return Range{Count: 1}
	}
	return Range{}
}

// syncPrefix records that the device holds values[0:n] and nothing beyond.
func syncPrefix[T comparable](dst *SlotArray[T], values []T, n int) {
	copy(dst.values[:n], values[:n])
	for i := n; i < dst.Len(); i++ {
		dst.values[i] = dst.def
	}
}

// Submit merges b and desc against ctx, applies the changes and dispatches
// call. On any error no draw is issued; binding errors leave the device
// untouched.
func (m *DrawCallMerger) Submit(ctx *RenderContext, b *ResourceBindingSet, desc *PipelineStateDescriptor, call DrawCall) error {
	if debugValidation && call.Kind.Indexed() && ctx.effectiveIndexBuffer(b).Buffer == InvalidID {
		return fmt.Errorf("%w: %s", ErrNoIndexBuffer, call.Kind)
	}
	ch, err := m.Merge(ctx, b, desc)
	if err != nil {
		return err
	}
	if err := m.Apply(ctx, ch); err != nil {
		return err
	}
	if err := call.Dispatch(ctx.device); err != nil {
		return fmt.Errorf("drawstate: %s: %w", call.Kind, err)
	}
	ctx.stats.Draws++
	return nil
}
