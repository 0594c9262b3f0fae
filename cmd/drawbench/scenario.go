// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/drawstate"
)

// Scenario is a draw sequence read from a TOML file.
//
// Each draw writes only the fields it names into one binding set shared by
// the whole scenario, so omitted fields keep the value of the previous draw.
type Scenario struct {
	Name   string `toml:"name"`
	Repeat int    `toml:"repeat"`

	Capabilities *CapabilitiesConfig `toml:"capabilities"`
	Pipelines    []PipelineConfig    `toml:"pipeline"`
	Draws        []DrawConfig        `toml:"draw"`
}

// CapabilitiesConfig overrides the default device slot counts.
type CapabilitiesConfig struct {
	MaxVertexBuffers    int  `toml:"max_vertex_buffers"`
	MaxConstantBuffers  int  `toml:"max_constant_buffers"`
	MaxShaderResources  int  `toml:"max_shader_resources"`
	MaxSamplers         int  `toml:"max_samplers"`
	MaxRenderTargets    int  `toml:"max_render_targets"`
	VertexStageSampling bool `toml:"vertex_stage_sampling"`
}

// PipelineConfig names a pipeline state used by draws.
type PipelineConfig struct {
	Name           string `toml:"name"`
	VertexShader   uint64 `toml:"vertex_shader"`
	FragmentShader uint64 `toml:"fragment_shader"`
	Fill           string `toml:"fill"`
	Cull           string `toml:"cull"`
	DepthTest      *bool  `toml:"depth_test"`
	DepthWrite     *bool  `toml:"depth_write"`
	Blend          string `toml:"blend"`
}

// DrawConfig is one draw of the scenario.
type DrawConfig struct {
	Pipeline  string `toml:"pipeline"`
	Kind      string `toml:"kind"`
	Count     uint32 `toml:"count"`
	Instances uint32 `toml:"instances"`

	Topology    string    `toml:"topology"`
	InputLayout *uint64   `toml:"input_layout"`
	Vertex      []uint64  `toml:"vertex_buffers"`
	Stride      uint32    `toml:"stride"`
	Index       *uint64   `toml:"index_buffer"`
	Targets     []uint64  `toml:"render_targets"`
	Depth       *uint64   `toml:"depth_stencil"`
	Viewport    []float32 `toml:"viewport"`
	StencilRef  *uint32   `toml:"stencil_ref"`

	VertexConstantBuffers   []uint64 `toml:"vertex_constant_buffers"`
	VertexResources         []uint64 `toml:"vertex_resources"`
	VertexSamplers          []uint64 `toml:"vertex_samplers"`
	FragmentConstantBuffers []uint64 `toml:"fragment_constant_buffers"`
	FragmentResources       []uint64 `toml:"fragment_resources"`
	FragmentSamplers        []uint64 `toml:"fragment_samplers"`
}

var (
	errNoDraws         = errors.New("scenario has no draws")
	errUnknownPipeline = errors.New("unknown pipeline")
	errBadValue        = errors.New("invalid value")
)

// LoadScenario reads a scenario file. Unknown keys are rejected.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeScenario(f)
}

// DecodeScenario parses and validates a scenario.
func DecodeScenario(r io.Reader) (*Scenario, error) {
	var s Scenario
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if s.Repeat <= 0 {
		s.Repeat = 1
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if len(s.Draws) == 0 {
		return errNoDraws
	}
	caps := s.capabilities()
	names := make(map[string]bool, len(s.Pipelines))
	for i := range s.Pipelines {
		p := &s.Pipelines[i]
		if _, err := p.descriptor(); err != nil {
			return fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
		names[p.Name] = true
	}
	for i, d := range s.Draws {
		if !names[d.Pipeline] {
			return fmt.Errorf("draw %d: %w %q", i, errUnknownPipeline, d.Pipeline)
		}
		if _, err := d.call(); err != nil {
			return fmt.Errorf("draw %d: %w", i, err)
		}
		if _, _, err := parseTopology(d.Topology); err != nil {
			return fmt.Errorf("draw %d: %w", i, err)
		}
		if n := len(d.Viewport); n != 0 && n != 4 && n != 6 {
			return fmt.Errorf("draw %d: %w: viewport needs 4 or 6 numbers", i, errBadValue)
		}
		if err := d.checkSlots(caps); err != nil {
			return fmt.Errorf("draw %d: %w", i, err)
		}
	}
	return nil
}

// checkSlots rejects slot lists longer than the device provides.
func (d *DrawConfig) checkSlots(caps drawstate.Capabilities) error {
	lists := []struct {
		name  string
		count int
		limit int
	}{
		{"vertex_buffers", len(d.Vertex), caps.MaxVertexBuffers},
		{"render_targets", len(d.Targets), caps.MaxRenderTargets},
		{"vertex_constant_buffers", len(d.VertexConstantBuffers), caps.MaxConstantBuffers},
		{"vertex_resources", len(d.VertexResources), caps.MaxShaderResources},
		{"vertex_samplers", len(d.VertexSamplers), caps.MaxSamplers},
		{"fragment_constant_buffers", len(d.FragmentConstantBuffers), caps.MaxConstantBuffers},
		{"fragment_resources", len(d.FragmentResources), caps.MaxShaderResources},
		{"fragment_samplers", len(d.FragmentSamplers), caps.MaxSamplers},
	}
	for _, l := range lists {
		if l.count > l.limit {
			return fmt.Errorf("%w: %s has %d slots, device has %d", errBadValue, l.name, l.count, l.limit)
		}
	}
	return nil
}

// capabilities returns the device capabilities for the scenario.
func (s *Scenario) capabilities() drawstate.Capabilities {
	caps := drawstate.DefaultCapabilities()
	if c := s.Capabilities; c != nil {
		caps.MaxVertexBuffers = c.MaxVertexBuffers
		caps.MaxConstantBuffers = c.MaxConstantBuffers
		caps.MaxShaderResources = c.MaxShaderResources
		caps.MaxSamplers = c.MaxSamplers
		caps.MaxRenderTargets = c.MaxRenderTargets
		caps.VertexStageSampling = c.VertexStageSampling
	}
	return caps.Normalized()
}

// descriptors resolves every pipeline by name.
func (s *Scenario) descriptors() (map[string]*drawstate.PipelineStateDescriptor, error) {
	out := make(map[string]*drawstate.PipelineStateDescriptor, len(s.Pipelines))
	for i := range s.Pipelines {
		d, err := s.Pipelines[i].descriptor()
		if err != nil {
			return nil, err
		}
		out[s.Pipelines[i].Name] = d
	}
	return out, nil
}

func (p *PipelineConfig) descriptor() (*drawstate.PipelineStateDescriptor, error) {
	d := drawstate.DefaultPipelineStateDescriptor(drawstate.ShaderID(p.VertexShader), drawstate.ShaderID(p.FragmentShader))

	switch p.Fill {
	case "", "solid":
	case "wireframe":
		d.RasterState.FillMode = drawstate.FillWireframe
	default:
		return nil, fmt.Errorf("%w: fill %q", errBadValue, p.Fill)
	}

	switch p.Cull {
	case "", "back":
	case "none":
		d.RasterState.CullMode = gputypes.CullModeNone
	case "front":
		d.RasterState.CullMode = gputypes.CullModeFront
	default:
		return nil, fmt.Errorf("%w: cull %q", errBadValue, p.Cull)
	}

	if p.DepthTest != nil {
		d.DepthStencilState.DepthEnabled = *p.DepthTest
	}
	if p.DepthWrite != nil {
		d.DepthStencilState.DepthWriteEnabled = *p.DepthWrite
	}

	switch p.Blend {
	case "", "replace":
	case "alpha":
		d.RenderTargetBlendStates[0].BlendEnabled = true
		d.RenderTargetBlendStates[0].Blend = gputypes.BlendStateAlpha()
	case "premultiplied":
		d.RenderTargetBlendStates[0].BlendEnabled = true
		d.RenderTargetBlendStates[0].Blend = gputypes.BlendStatePremultiplied()
	default:
		return nil, fmt.Errorf("%w: blend %q", errBadValue, p.Blend)
	}
	return &d, nil
}

func (d *DrawConfig) call() (drawstate.DrawCall, error) {
	instances := max(d.Instances, 1)
	switch d.Kind {
	case "", "draw":
		return drawstate.NewDraw(d.Count, 0), nil
	case "indexed":
		return drawstate.NewDrawIndexed(d.Count, 0, 0), nil
	case "instanced":
		return drawstate.NewDrawInstanced(d.Count, instances, 0, 0), nil
	case "indexed_instanced":
		return drawstate.NewDrawIndexedInstanced(d.Count, instances, 0, 0, 0), nil
	default:
		return drawstate.DrawCall{}, fmt.Errorf("%w: kind %q", errBadValue, d.Kind)
	}
}

func parseTopology(s string) (gputypes.PrimitiveTopology, bool, error) {
	switch s {
	case "":
		return 0, false, nil
	case "triangle_list":
		return gputypes.PrimitiveTopologyTriangleList, true, nil
	case "triangle_strip":
		return gputypes.PrimitiveTopologyTriangleStrip, true, nil
	case "line_list":
		return gputypes.PrimitiveTopologyLineList, true, nil
	case "line_strip":
		return gputypes.PrimitiveTopologyLineStrip, true, nil
	case "point_list":
		return gputypes.PrimitiveTopologyPointList, true, nil
	default:
		return 0, false, fmt.Errorf("%w: topology %q", errBadValue, s)
	}
}

// apply writes the fields named by d into b.
func (d *DrawConfig) apply(b *drawstate.ResourceBindingSet) {
	if t, ok, _ := parseTopology(d.Topology); ok {
		b.SetTopology(t)
	}
	if d.InputLayout != nil {
		b.SetInputLayout(drawstate.InputLayoutID(*d.InputLayout))
	}
	for i, id := range d.Vertex {
		b.SetVertexBuffer(i, drawstate.VertexBufferBinding{Buffer: drawstate.BufferID(id), Stride: d.Stride})
	}
	if d.Index != nil {
		b.SetIndexBuffer(drawstate.IndexBufferBinding{
			Buffer: drawstate.BufferID(*d.Index),
			Format: gputypes.IndexFormatUint16,
		})
	}
	if d.Targets != nil {
		dsv := b.DepthStencilView()
		b.UnbindRenderTargets()
		b.SetDepthStencilView(dsv)
		for i, id := range d.Targets {
			b.SetRenderTarget(i, drawstate.RenderTargetViewID(id))
		}
	}
	if d.Depth != nil {
		b.SetDepthStencilView(drawstate.DepthStencilViewID(*d.Depth))
	}
	if len(d.Viewport) >= 4 {
		v := drawstate.Viewport{X: d.Viewport[0], Y: d.Viewport[1], Width: d.Viewport[2], Height: d.Viewport[3], MaxDepth: 1}
		if len(d.Viewport) == 6 {
			v.MinDepth, v.MaxDepth = d.Viewport[4], d.Viewport[5]
		}
		b.SetViewport(0, v)
	}
	if d.StencilRef != nil {
		b.SetStencilRef(*d.StencilRef)
	}

	stage := func(s drawstate.Stage, cbs, srvs, samplers []uint64) {
		for i, id := range cbs {
			b.SetConstantBuffer(s, i, drawstate.BufferID(id))
		}
		for i, id := range srvs {
			b.SetShaderResource(s, i, drawstate.ShaderResourceViewID(id))
		}
		for i, id := range samplers {
			b.SetSampler(s, i, drawstate.SamplerID(id))
		}
	}
	stage(drawstate.StageVertex, d.VertexConstantBuffers, d.VertexResources, d.VertexSamplers)
	stage(drawstate.StageFragment, d.FragmentConstantBuffers, d.FragmentResources, d.FragmentSamplers)
}
