// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/drawstate"
	"github.com/gogpu/drawstate/internal/cache"
)

// Default cache capacities.
const (
	DefaultPipelineCapacity  = 64
	DefaultBindGroupCapacity = 256
)

// EncoderOption configures an Encoder during creation.
type EncoderOption func(*encoderOptions)

type encoderOptions struct {
	caps              *drawstate.Capabilities
	pipelineCapacity  int
	bindGroupCapacity int
	logger            *slog.Logger
}

// WithCapabilities sets the capabilities the encoder reports.
func WithCapabilities(caps drawstate.Capabilities) EncoderOption {
	return func(o *encoderOptions) {
		o.caps = &caps
	}
}

// WithPipelineCapacity bounds the number of live render pipelines.
func WithPipelineCapacity(n int) EncoderOption {
	return func(o *encoderOptions) {
		o.pipelineCapacity = n
	}
}

// WithBindGroupCapacity bounds the number of live bind groups.
func WithBindGroupCapacity(n int) EncoderOption {
	return func(o *encoderOptions) {
		o.bindGroupCapacity = n
	}
}

// WithLogger sets the logger used instead of drawstate.Logger().
func WithLogger(l *slog.Logger) EncoderOption {
	return func(o *encoderOptions) {
		o.logger = l
	}
}

// EncoderStats holds encoder cache counters.
type EncoderStats struct {
	Pipelines         int
	BindGroups        int
	PipelineMisses    uint64
	BindGroupMisses   uint64
	PipelineEvictions uint64
}

// stageTable mirrors the per-stage slot arrays of the command context.
type stageTable struct {
	constantBuffers []drawstate.BufferID
	shaderResources []drawstate.ShaderResourceViewID
	samplers        []drawstate.SamplerID
	dirty           bool
}

func newStageTable(caps drawstate.Capabilities) stageTable {
	return stageTable{
		constantBuffers: make([]drawstate.BufferID, caps.MaxConstantBuffers),
		shaderResources: make([]drawstate.ShaderResourceViewID, caps.MaxShaderResources),
		samplers:        make([]drawstate.SamplerID, caps.MaxSamplers),
	}
}

func (t *stageTable) request(stage gputypes.ShaderStage) BindGroupRequest {
	return BindGroupRequest{
		Stage:           stage,
		ConstantBuffers: slices.Clone(trimZero(t.constantBuffers)),
		ShaderResources: slices.Clone(trimZero(t.shaderResources)),
		Samplers:        slices.Clone(trimZero(t.samplers)),
	}
}

// Encoder implements drawstate.Device on a hal.RenderPassEncoder.
//
// The state factory half is safe for concurrent use, so an Encoder can back
// a shared drawstate.PipelineStateCache. The command half is not.
type Encoder struct {
	pass     hal.RenderPassEncoder
	resolver Resolver
	caps     drawstate.Capabilities
	log      *slog.Logger

	// mu guards the state object registry.
	mu            sync.Mutex
	nextID        uint64
	rasters       map[drawstate.RasterStateID]drawstate.RasterStateDescriptor
	depthStencils map[drawstate.DepthStencilStateID]drawstate.DepthStencilDescriptor
	blends        map[drawstate.BlendStateID]drawstate.BlendDescriptor

	pipelines  *cache.Cache[PipelineKey, hal.RenderPipeline]
	bindGroups *cache.Cache[bindGroupKey, hal.BindGroup]

	key           PipelineKey
	pipelineDirty bool
	stages        [2]stageTable
	renderTargets []drawstate.RenderTargetViewID
	depthStencil  drawstate.DepthStencilViewID

	// err is the first binding error, reported by the next draw.
	err    error
	closed bool
}

var (
	_ drawstate.Device             = (*Encoder)(nil)
	_ drawstate.CapabilityReporter = (*Encoder)(nil)
)

// NewEncoder creates an encoder recording into pass.
func NewEncoder(pass hal.RenderPassEncoder, resolver Resolver, opts ...EncoderOption) (*Encoder, error) {
	if pass == nil {
		return nil, ErrNilPass
	}
	if resolver == nil {
		return nil, ErrNilResolver
	}
	o := encoderOptions{
		pipelineCapacity:  DefaultPipelineCapacity,
		bindGroupCapacity: DefaultBindGroupCapacity,
	}
	for _, opt := range opts {
		opt(&o)
	}

	caps := drawstate.DefaultCapabilities()
	if o.caps != nil {
		caps = o.caps.Normalized()
	}

	e := &Encoder{
		pass:          pass,
		resolver:      resolver,
		caps:          caps,
		log:           o.logger,
		rasters:       make(map[drawstate.RasterStateID]drawstate.RasterStateDescriptor),
		depthStencils: make(map[drawstate.DepthStencilStateID]drawstate.DepthStencilDescriptor),
		blends:        make(map[drawstate.BlendStateID]drawstate.BlendDescriptor),
		stages:        [2]stageTable{newStageTable(caps), newStageTable(caps)},
		pipelineDirty: true,
	}
	e.key.Topology = gputypes.PrimitiveTopologyTriangleList
	e.key.SampleMask = 0xFFFFFFFF
	e.pipelines = cache.New(o.pipelineCapacity, func(k PipelineKey, p hal.RenderPipeline) {
		e.logger().Debug("wgpu: render pipeline evicted",
			slog.Uint64("vs", uint64(k.VertexShader)),
			slog.Uint64("fs", uint64(k.FragmentShader)))
		resolver.DestroyRenderPipeline(p)
	})
	e.bindGroups = cache.New(o.bindGroupCapacity, func(_ bindGroupKey, g hal.BindGroup) {
		resolver.DestroyBindGroup(g)
	})
	return e, nil
}

// NewEncoderFromProvider creates an encoder whose capabilities carry the
// adapter reported by provider. Slot counts follow the WebGPU default limits
// unless WithCapabilities is given.
func NewEncoderFromProvider(provider gpucontext.DeviceProvider, pass hal.RenderPassEncoder, resolver Resolver, opts ...EncoderOption) (*Encoder, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	caps := drawstate.CapabilitiesFromProvider(provider, gputypes.DefaultLimits())
	return NewEncoder(pass, resolver, append([]EncoderOption{WithCapabilities(caps)}, opts...)...)
}

func (e *Encoder) logger() *slog.Logger {
	if e.log != nil {
		return e.log
	}
	return drawstate.Logger()
}

// Capabilities implements drawstate.CapabilityReporter.
func (e *Encoder) Capabilities() drawstate.Capabilities { return e.caps }

// RenderTargets returns the color targets and depth/stencil view last bound.
// Hosts use them to check the attachments of the pass.
func (e *Encoder) RenderTargets() ([]drawstate.RenderTargetViewID, drawstate.DepthStencilViewID) {
	return slices.Clone(e.renderTargets), e.depthStencil
}

// Stats returns the encoder cache counters.
func (e *Encoder) Stats() EncoderStats {
	p := e.pipelines.Stats()
	g := e.bindGroups.Stats()
	return EncoderStats{
		Pipelines:         p.Len,
		BindGroups:        g.Len,
		PipelineMisses:    p.Misses,
		BindGroupMisses:   g.Misses,
		PipelineEvictions: p.Evictions,
	}
}

// Close destroys every cached pipeline and bind group. State objects stay
// registered so a PipelineStateCache can still destroy them.
func (e *Encoder) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.pipelines.Clear()
	e.bindGroups.Clear()
}

func (e *Encoder) newID() uint64 {
	e.nextID++
	return e.nextID
}

// fail records the first binding error.
func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// ---------------------------------------------------------------------------
// drawstate.StateFactory
// ---------------------------------------------------------------------------

// CreateRasterState registers a rasterizer descriptor.
func (e *Encoder) CreateRasterState(desc *drawstate.RasterStateDescriptor) (drawstate.RasterStateID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := drawstate.RasterStateID(e.newID())
	e.rasters[id] = *desc
	return id, nil
}

// CreateDepthStencilState registers a depth-stencil descriptor.
func (e *Encoder) CreateDepthStencilState(desc *drawstate.DepthStencilDescriptor) (drawstate.DepthStencilStateID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := drawstate.DepthStencilStateID(e.newID())
	e.depthStencils[id] = *desc
	return id, nil
}

// CreateBlendState registers a blend descriptor.
func (e *Encoder) CreateBlendState(desc *drawstate.BlendDescriptor) (drawstate.BlendStateID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := drawstate.BlendStateID(e.newID())
	d := *desc
	d.RenderTargets = slices.Clone(desc.RenderTargets)
	e.blends[id] = d
	return id, nil
}

// DestroyRasterState unregisters a rasterizer state.
func (e *Encoder) DestroyRasterState(id drawstate.RasterStateID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rasters, id)
}

// DestroyDepthStencilState unregisters a depth-stencil state.
func (e *Encoder) DestroyDepthStencilState(id drawstate.DepthStencilStateID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.depthStencils, id)
}

// DestroyBlendState unregisters a blend state.
func (e *Encoder) DestroyBlendState(id drawstate.BlendStateID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.blends, id)
}

// ---------------------------------------------------------------------------
// drawstate.CommandContext: immediate bindings
// ---------------------------------------------------------------------------

// SetVertexBuffers binds each non-zero buffer to its slot.
func (e *Encoder) SetVertexBuffers(startSlot int, buffers []drawstate.VertexBufferBinding) {
	for i, b := range buffers {
		if b.Buffer == drawstate.InvalidID {
			continue
		}
		buf, err := e.resolver.Buffer(b.Buffer)
		if err != nil {
			e.fail(fmt.Errorf("wgpu: vertex buffer slot %d: %w", startSlot+i, err))
			continue
		}
		e.pass.SetVertexBuffer(uint32(startSlot+i), buf, uint64(b.Offset))
	}
}

// SetIndexBuffer binds the index buffer if it is non-zero.
func (e *Encoder) SetIndexBuffer(binding drawstate.IndexBufferBinding) {
	if binding.Buffer == drawstate.InvalidID {
		return
	}
	buf, err := e.resolver.Buffer(binding.Buffer)
	if err != nil {
		e.fail(fmt.Errorf("wgpu: index buffer: %w", err))
		return
	}
	e.pass.SetIndexBuffer(buf, binding.Format, uint64(binding.Offset))
}

// SetViewports applies the first viewport.
func (e *Encoder) SetViewports(viewports []drawstate.Viewport) {
	if len(viewports) == 0 {
		return
	}
	v := viewports[0]
	e.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
}

// SetScissorRects applies the first scissor rectangle. Negative origins and
// inverted rectangles are clamped to zero.
func (e *Encoder) SetScissorRects(rects []drawstate.ScissorRect) {
	if len(rects) == 0 {
		return
	}
	r := rects[0]
	x, y := max(r.Left, 0), max(r.Top, 0)
	w, h := max(r.Right-x, 0), max(r.Bottom-y, 0)
	e.pass.SetScissorRect(uint32(x), uint32(y), uint32(w), uint32(h))
}

// SetDepthStencilState selects the state for the next pipeline and applies
// the stencil reference.
func (e *Encoder) SetDepthStencilState(state drawstate.DepthStencilStateID, stencilRef uint32) {
	e.setKey(func(k *PipelineKey) { k.DepthStencilState = state })
	e.pass.SetStencilReference(stencilRef)
}

// SetBlendState selects the state and sample mask for the next pipeline and
// applies the blend constant.
func (e *Encoder) SetBlendState(state drawstate.BlendStateID, factor gputypes.Color, sampleMask uint32) {
	e.setKey(func(k *PipelineKey) {
		k.BlendState = state
		k.SampleMask = sampleMask
	})
	e.pass.SetBlendConstant(&factor)
}

// ---------------------------------------------------------------------------
// drawstate.CommandContext: deferred bindings
// ---------------------------------------------------------------------------

func (e *Encoder) setKey(fn func(*PipelineKey)) {
	prev := e.key
	fn(&e.key)
	if e.key != prev {
		e.pipelineDirty = true
	}
}

// SetInputLayout selects the vertex layout of the next pipeline.
func (e *Encoder) SetInputLayout(layout drawstate.InputLayoutID) {
	e.setKey(func(k *PipelineKey) { k.InputLayout = layout })
}

// SetTopology selects the primitive topology of the next pipeline.
func (e *Encoder) SetTopology(topology gputypes.PrimitiveTopology) {
	e.setKey(func(k *PipelineKey) { k.Topology = topology })
}

// SetVertexShader selects the vertex shader of the next pipeline.
func (e *Encoder) SetVertexShader(shader drawstate.ShaderID) {
	e.setKey(func(k *PipelineKey) { k.VertexShader = shader })
}

// SetFragmentShader selects the fragment shader of the next pipeline.
func (e *Encoder) SetFragmentShader(shader drawstate.ShaderID) {
	e.setKey(func(k *PipelineKey) { k.FragmentShader = shader })
}

// SetRasterState selects the rasterizer state of the next pipeline.
func (e *Encoder) SetRasterState(state drawstate.RasterStateID) {
	e.setKey(func(k *PipelineKey) { k.RasterState = state })
}

// SetRenderTargets records the attachments; the next pipeline is built for
// their layout.
func (e *Encoder) SetRenderTargets(targets []drawstate.RenderTargetViewID, depthStencil drawstate.DepthStencilViewID) {
	e.renderTargets = append(e.renderTargets[:0], targets...)
	e.depthStencil = depthStencil
	e.setKey(func(k *PipelineKey) {
		k.ColorTargets = len(trimZero(targets))
		k.DepthStencil = depthStencil != drawstate.InvalidID
	})
}

func (e *Encoder) table(stage gputypes.ShaderStage) *stageTable {
	if stage == gputypes.ShaderStageVertex {
		return &e.stages[VertexBindGroup]
	}
	return &e.stages[FragmentBindGroup]
}

// SetConstantBuffers updates the bind group of stage.
func (e *Encoder) SetConstantBuffers(stage gputypes.ShaderStage, startSlot int, buffers []drawstate.BufferID) {
	t := e.table(stage)
	copy(t.constantBuffers[startSlot:], buffers)
	t.dirty = true
}

// SetShaderResources updates the bind group of stage.
func (e *Encoder) SetShaderResources(stage gputypes.ShaderStage, startSlot int, views []drawstate.ShaderResourceViewID) {
	t := e.table(stage)
	copy(t.shaderResources[startSlot:], views)
	t.dirty = true
}

// SetSamplers updates the bind group of stage.
func (e *Encoder) SetSamplers(stage gputypes.ShaderStage, startSlot int, samplers []drawstate.SamplerID) {
	t := e.table(stage)
	copy(t.samplers[startSlot:], samplers)
	t.dirty = true
}

// ---------------------------------------------------------------------------
// drawstate.CommandContext: draws
// ---------------------------------------------------------------------------

// Draw issues a non-instanced draw.
func (e *Encoder) Draw(vertexCount, startVertex uint32) error {
	if err := e.flush(); err != nil {
		return err
	}
	e.pass.Draw(vertexCount, 1, startVertex, 0)
	return nil
}

// DrawIndexed issues a non-instanced indexed draw.
func (e *Encoder) DrawIndexed(indexCount, startIndex uint32, baseVertex int32) error {
	if err := e.flush(); err != nil {
		return err
	}
	e.pass.DrawIndexed(indexCount, 1, startIndex, baseVertex, 0)
	return nil
}

// DrawInstanced issues an instanced draw.
func (e *Encoder) DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) error {
	if err := e.flush(); err != nil {
		return err
	}
	e.pass.Draw(vertexCountPerInstance, instanceCount, startVertex, startInstance)
	return nil
}

// DrawIndexedInstanced issues an instanced indexed draw.
func (e *Encoder) DrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) error {
	if err := e.flush(); err != nil {
		return err
	}
	e.pass.DrawIndexed(indexCountPerInstance, instanceCount, startIndex, baseVertex, startInstance)
	return nil
}

// flush binds the pipeline and bind groups the next draw needs.
func (e *Encoder) flush() error {
	if e.closed {
		return ErrEncoderClosed
	}
	if err := e.err; err != nil {
		e.err = nil
		return err
	}

	if e.pipelineDirty {
		key := e.key
		p, err := e.pipelines.GetOrCreate(key, func() (hal.RenderPipeline, error) {
			return e.createPipeline(key)
		})
		if err != nil {
			return err
		}
		e.pass.SetPipeline(p)
		e.pipelineDirty = false
		// A new pipeline may use a different layout; rebind both groups.
		for i := range e.stages {
			e.stages[i].dirty = true
		}
	}

	for i := range e.stages {
		t := &e.stages[i]
		if !t.dirty {
			continue
		}
		stage := gputypes.ShaderStageVertex
		if i == FragmentBindGroup {
			stage = gputypes.ShaderStageFragment
		}
		req := t.request(stage)
		if req.Empty() {
			t.dirty = false
			continue
		}
		g, err := e.bindGroups.GetOrCreate(bindGroupKey{stage: stage, hash: req.hash()}, func() (hal.BindGroup, error) {
			g, err := e.resolver.CreateBindGroup(&req)
			if err != nil {
				return nil, fmt.Errorf("wgpu: create %s bind group: %w", stageName(stage), err)
			}
			return g, nil
		})
		if err != nil {
			return err
		}
		e.pass.SetBindGroup(uint32(i), g, nil)
		t.dirty = false
	}
	return nil
}

func (e *Encoder) createPipeline(key PipelineKey) (hal.RenderPipeline, error) {
	e.mu.Lock()
	raster, okR := e.rasters[key.RasterState]
	ds, okD := e.depthStencils[key.DepthStencilState]
	blend, okB := e.blends[key.BlendState]
	e.mu.Unlock()

	switch {
	case !okR:
		return nil, fmt.Errorf("%w: raster state %d", ErrUnknownState, key.RasterState)
	case !okD:
		return nil, fmt.Errorf("%w: depth-stencil state %d", ErrUnknownState, key.DepthStencilState)
	case !okB:
		return nil, fmt.Errorf("%w: blend state %d", ErrUnknownState, key.BlendState)
	}

	req := &PipelineRequest{Key: key, Raster: raster, DepthStencil: ds, Blend: blend}
	p, err := e.resolver.CreateRenderPipeline(req)
	if err != nil {
		e.logger().Warn("wgpu: render pipeline creation failed", slog.Any("err", err))
		return nil, fmt.Errorf("wgpu: create render pipeline: %w", err)
	}
	e.logger().Debug("wgpu: render pipeline created",
		slog.Uint64("vs", uint64(key.VertexShader)),
		slog.Uint64("fs", uint64(key.FragmentShader)),
		slog.Int("colorTargets", key.ColorTargets))
	return p, nil
}

func stageName(s gputypes.ShaderStage) string {
	if s == gputypes.ShaderStageVertex {
		return "vertex"
	}
	return "fragment"
}
