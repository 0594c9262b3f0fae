// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawstate"
)

// ErrInjected is the default error returned by calls armed with Fail.
var ErrInjected = errors.New("recording: injected failure")

// State mirrors the bindings a Device holds.
type State struct {
	VertexBuffers   []drawstate.VertexBufferBinding
	InputLayout     drawstate.InputLayoutID
	IndexBuffer     drawstate.IndexBufferBinding
	ConstantBuffers [2][]drawstate.BufferID
	ShaderResources [2][]drawstate.ShaderResourceViewID
	Samplers        [2][]drawstate.SamplerID
	RenderTargets   []drawstate.RenderTargetViewID
	DepthStencil    drawstate.DepthStencilViewID
	Viewports       []drawstate.Viewport
	ScissorRects    []drawstate.ScissorRect
	Topology        gputypes.PrimitiveTopology

	VertexShader      drawstate.ShaderID
	FragmentShader    drawstate.ShaderID
	RasterState       drawstate.RasterStateID
	DepthStencilState drawstate.DepthStencilStateID
	StencilRef        uint32
	BlendState        drawstate.BlendStateID
	BlendFactor       gputypes.Color
	SampleMask        uint32
}

func newState(caps drawstate.Capabilities) State {
	s := State{
		VertexBuffers: make([]drawstate.VertexBufferBinding, caps.MaxVertexBuffers),
		RenderTargets: make([]drawstate.RenderTargetViewID, caps.MaxRenderTargets),
		Topology:      gputypes.PrimitiveTopologyTriangleList,
		SampleMask:    drawstate.DefaultSampleMask,
	}
	for i := range s.ConstantBuffers {
		s.ConstantBuffers[i] = make([]drawstate.BufferID, caps.MaxConstantBuffers)
		s.ShaderResources[i] = make([]drawstate.ShaderResourceViewID, caps.MaxShaderResources)
		s.Samplers[i] = make([]drawstate.SamplerID, caps.MaxSamplers)
	}
	return s
}

func (s State) clone() State {
	c := s
	c.VertexBuffers = slices.Clone(s.VertexBuffers)
	c.RenderTargets = slices.Clone(s.RenderTargets)
	c.Viewports = slices.Clone(s.Viewports)
	c.ScissorRects = slices.Clone(s.ScissorRects)
	for i := range s.ConstantBuffers {
		c.ConstantBuffers[i] = slices.Clone(s.ConstantBuffers[i])
		c.ShaderResources[i] = slices.Clone(s.ShaderResources[i])
		c.Samplers[i] = slices.Clone(s.Samplers[i])
	}
	return c
}

// stageIndex maps a shader stage flag to the State array index.
func stageIndex(stage gputypes.ShaderStage) int {
	if stage == gputypes.ShaderStageVertex {
		return 0
	}
	return 1
}

// Device is an in-memory drawstate.Device. It records every call as a typed
// Command, mirrors the bound state and hands out sequential object IDs.
//
// State object creation and destruction may be called concurrently, as a
// shared PipelineStateCache does. Binding and draw calls follow the
// single-goroutine contract of drawstate.RenderContext.
type Device struct {
	caps drawstate.Capabilities

	mu       sync.Mutex
	nextID   uint64
	commands []Command
	counts   [numCommandTypes]int
	state    State
	live     map[uint64]CommandType
	failures map[CommandType]error
	misuse   []error
}

// NewDevice creates a recording device reporting caps.
func NewDevice(caps drawstate.Capabilities) *Device {
	caps = caps.Normalized()
	return &Device{
		caps:     caps,
		state:    newState(caps),
		live:     make(map[uint64]CommandType),
		failures: make(map[CommandType]error),
	}
}

// Capabilities implements drawstate.CapabilityReporter.
func (d *Device) Capabilities() drawstate.Capabilities { return d.caps }

// Fail arms the next call of type t to fail with err, or ErrInjected if err
// is nil. Only creation and draw commands can fail.
func (d *Device) Fail(t CommandType, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.mu.Lock()
	d.failures[t] = err
	d.mu.Unlock()
}

// takeFailure returns and disarms the failure for t. Callers hold d.mu.
func (d *Device) takeFailure(t CommandType) error {
	err, ok := d.failures[t]
	if !ok {
		return nil
	}
	delete(d.failures, t)
	return err
}

func (d *Device) record(c Command) {
	d.commands = append(d.commands, c)
	d.counts[c.Type()]++
}

// Commands returns a copy of the recorded commands.
func (d *Device) Commands() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.commands)
}

// CommandsOf returns the recorded commands of type t.
func (d *Device) CommandsOf(t CommandType) []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Command
	for _, c := range d.commands {
		if c.Type() == t {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of recorded commands of type t, including those
// discarded by Reset.
func (d *Device) Count(t CommandType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[t]
}

// BindingCalls returns the number of recorded binding commands.
func (d *Device) BindingCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.commands {
		if c.Type().IsBinding() {
			n++
		}
	}
	return n
}

// Reset discards the recorded command list. Bound state, live objects and
// per-type counts are kept.
func (d *Device) Reset() {
	d.mu.Lock()
	d.commands = d.commands[:0]
	d.mu.Unlock()
}

// State returns a copy of the bindings the device holds.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.clone()
}

// Live returns the number of state objects created and not yet destroyed.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Misuse returns errors for invalid calls such as destroying an object twice.
func (d *Device) Misuse() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.misuse)
}

func (d *Device) create(t CommandType) (uint64, error) {
	if err := d.takeFailure(t); err != nil {
		return 0, err
	}
	d.nextID++
	d.live[d.nextID] = t
	return d.nextID, nil
}

func (d *Device) destroy(id uint64, created CommandType) {
	if t, ok := d.live[id]; !ok || t != created {
		d.misuse = append(d.misuse, fmt.Errorf("recording: destroy of unknown %s object %d", created, id))
		return
	}
	delete(d.live, id)
}

// CreateRasterState implements drawstate.StateFactory.
func (d *Device) CreateRasterState(desc *drawstate.RasterStateDescriptor) (drawstate.RasterStateID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create(CmdCreateRasterState)
	if err != nil {
		return drawstate.InvalidID, err
	}
	d.record(CreateRasterStateCommand{Desc: *desc, ID: drawstate.RasterStateID(id)})
	return drawstate.RasterStateID(id), nil
}

// CreateDepthStencilState implements drawstate.StateFactory.
func (d *Device) CreateDepthStencilState(desc *drawstate.DepthStencilDescriptor) (drawstate.DepthStencilStateID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create(CmdCreateDepthStencilState)
	if err != nil {
		return drawstate.InvalidID, err
	}
	d.record(CreateDepthStencilStateCommand{Desc: *desc, ID: drawstate.DepthStencilStateID(id)})
	return drawstate.DepthStencilStateID(id), nil
}

// CreateBlendState implements drawstate.StateFactory.
func (d *Device) CreateBlendState(desc *drawstate.BlendDescriptor) (drawstate.BlendStateID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create(CmdCreateBlendState)
	if err != nil {
		return drawstate.InvalidID, err
	}
	c := *desc
	c.RenderTargets = slices.Clone(desc.RenderTargets)
	d.record(CreateBlendStateCommand{Desc: c, ID: drawstate.BlendStateID(id)})
	return drawstate.BlendStateID(id), nil
}

// DestroyRasterState implements drawstate.StateFactory.
func (d *Device) DestroyRasterState(id drawstate.RasterStateID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy(uint64(id), CmdCreateRasterState)
	d.record(DestroyRasterStateCommand{ID: id})
}

// DestroyDepthStencilState implements drawstate.StateFactory.
func (d *Device) DestroyDepthStencilState(id drawstate.DepthStencilStateID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy(uint64(id), CmdCreateDepthStencilState)
	d.record(DestroyDepthStencilStateCommand{ID: id})
}

// DestroyBlendState implements drawstate.StateFactory.
func (d *Device) DestroyBlendState(id drawstate.BlendStateID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy(uint64(id), CmdCreateBlendState)
	d.record(DestroyBlendStateCommand{ID: id})
}

// SetVertexBuffers implements drawstate.CommandContext.
func (d *Device) SetVertexBuffers(startSlot int, buffers []drawstate.VertexBufferBinding) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.state.VertexBuffers[startSlot:], buffers)
	d.record(SetVertexBuffersCommand{StartSlot: startSlot, Buffers: slices.Clone(buffers)})
}

// SetInputLayout implements drawstate.CommandContext.
func (d *Device) SetInputLayout(layout drawstate.InputLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.InputLayout = layout
	d.record(SetInputLayoutCommand{Layout: layout})
}

// SetIndexBuffer implements drawstate.CommandContext.
func (d *Device) SetIndexBuffer(binding drawstate.IndexBufferBinding) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.IndexBuffer = binding
	d.record(SetIndexBufferCommand{Binding: binding})
}

// SetConstantBuffers implements drawstate.CommandContext.
func (d *Device) SetConstantBuffers(stage gputypes.ShaderStage, startSlot int, buffers []drawstate.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.state.ConstantBuffers[stageIndex(stage)][startSlot:], buffers)
	d.record(SetConstantBuffersCommand{Stage: stage, StartSlot: startSlot, Buffers: slices.Clone(buffers)})
}

// SetShaderResources implements drawstate.CommandContext.
func (d *Device) SetShaderResources(stage gputypes.ShaderStage, startSlot int, views []drawstate.ShaderResourceViewID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.state.ShaderResources[stageIndex(stage)][startSlot:], views)
	d.record(SetShaderResourcesCommand{Stage: stage, StartSlot: startSlot, Views: slices.Clone(views)})
}

// SetSamplers implements drawstate.CommandContext.
func (d *Device) SetSamplers(stage gputypes.ShaderStage, startSlot int, samplers []drawstate.SamplerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.state.Samplers[stageIndex(stage)][startSlot:], samplers)
	d.record(SetSamplersCommand{Stage: stage, StartSlot: startSlot, Samplers: slices.Clone(samplers)})
}

// SetRenderTargets implements drawstate.CommandContext. Targets beyond
// len(targets) are unbound.
func (d *Device) SetRenderTargets(targets []drawstate.RenderTargetViewID, depthStencil drawstate.DepthStencilViewID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.state.RenderTargets)
	copy(d.state.RenderTargets, targets)
	d.state.DepthStencil = depthStencil
	d.record(SetRenderTargetsCommand{Targets: slices.Clone(targets), DepthStencil: depthStencil})
}

// SetViewports implements drawstate.CommandContext.
func (d *Device) SetViewports(viewports []drawstate.Viewport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Viewports = slices.Clone(viewports)
	d.record(SetViewportsCommand{Viewports: slices.Clone(viewports)})
}

// SetScissorRects implements drawstate.CommandContext.
func (d *Device) SetScissorRects(rects []drawstate.ScissorRect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.ScissorRects = slices.Clone(rects)
	d.record(SetScissorRectsCommand{Rects: slices.Clone(rects)})
}

// SetTopology implements drawstate.CommandContext.
func (d *Device) SetTopology(topology gputypes.PrimitiveTopology) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Topology = topology
	d.record(SetTopologyCommand{Topology: topology})
}

// SetVertexShader implements drawstate.CommandContext.
func (d *Device) SetVertexShader(shader drawstate.ShaderID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.VertexShader = shader
	d.record(SetVertexShaderCommand{Shader: shader})
}

// SetFragmentShader implements drawstate.CommandContext.
func (d *Device) SetFragmentShader(shader drawstate.ShaderID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.FragmentShader = shader
	d.record(SetFragmentShaderCommand{Shader: shader})
}

// SetRasterState implements drawstate.CommandContext.
func (d *Device) SetRasterState(state drawstate.RasterStateID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.RasterState = state
	d.record(SetRasterStateCommand{State: state})
}

// SetDepthStencilState implements drawstate.CommandContext.
func (d *Device) SetDepthStencilState(state drawstate.DepthStencilStateID, stencilRef uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.DepthStencilState = state
	d.state.StencilRef = stencilRef
	d.record(SetDepthStencilStateCommand{State: state, StencilRef: stencilRef})
}

// SetBlendState implements drawstate.CommandContext.
func (d *Device) SetBlendState(state drawstate.BlendStateID, factor gputypes.Color, sampleMask uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.BlendState = state
	d.state.BlendFactor = factor
	d.state.SampleMask = sampleMask
	d.record(SetBlendStateCommand{State: state, Factor: factor, SampleMask: sampleMask})
}

func (d *Device) draw(call drawstate.DrawCall) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := DrawCommand{Call: call}
	if err := d.takeFailure(c.Type()); err != nil {
		return err
	}
	d.record(c)
	return nil
}

// Draw implements drawstate.CommandContext.
func (d *Device) Draw(vertexCount, startVertex uint32) error {
	return d.draw(drawstate.NewDraw(vertexCount, startVertex))
}

// DrawIndexed implements drawstate.CommandContext.
func (d *Device) DrawIndexed(indexCount, startIndex uint32, baseVertex int32) error {
	return d.draw(drawstate.NewDrawIndexed(indexCount, startIndex, baseVertex))
}

// DrawInstanced implements drawstate.CommandContext.
func (d *Device) DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) error {
	return d.draw(drawstate.NewDrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance))
}

// DrawIndexedInstanced implements drawstate.CommandContext.
func (d *Device) DrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) error {
	return d.draw(drawstate.NewDrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex, baseVertex, startInstance))
}

// Playback replays the recorded binding and draw commands onto target.
// State object commands are skipped: IDs are replayed as recorded.
// Playback stops at the first draw error.
func Playback(commands []Command, target drawstate.CommandContext) error {
	for i, c := range commands {
		switch c := c.(type) {
		case SetVertexBuffersCommand:
			target.SetVertexBuffers(c.StartSlot, c.Buffers)
		case SetInputLayoutCommand:
			target.SetInputLayout(c.Layout)
		case SetIndexBufferCommand:
			target.SetIndexBuffer(c.Binding)
		case SetConstantBuffersCommand:
			target.SetConstantBuffers(c.Stage, c.StartSlot, c.Buffers)
		case SetShaderResourcesCommand:
			target.SetShaderResources(c.Stage, c.StartSlot, c.Views)
		case SetSamplersCommand:
			target.SetSamplers(c.Stage, c.StartSlot, c.Samplers)
		case SetRenderTargetsCommand:
			target.SetRenderTargets(c.Targets, c.DepthStencil)
		case SetViewportsCommand:
			target.SetViewports(c.Viewports)
		case SetScissorRectsCommand:
			target.SetScissorRects(c.Rects)
		case SetTopologyCommand:
			target.SetTopology(c.Topology)
		case SetVertexShaderCommand:
			target.SetVertexShader(c.Shader)
		case SetFragmentShaderCommand:
			target.SetFragmentShader(c.Shader)
		case SetRasterStateCommand:
			target.SetRasterState(c.State)
		case SetDepthStencilStateCommand:
			target.SetDepthStencilState(c.State, c.StencilRef)
		case SetBlendStateCommand:
			target.SetBlendState(c.State, c.Factor, c.SampleMask)
		case DrawCommand:
			if err := c.Call.Dispatch(target); err != nil {
				return fmt.Errorf("recording: command %d (%s): %w", i, c.Type(), err)
			}
		}
	}
	return nil
}
